package handler

import (
	"strings"

	"opsdesk/internal/registration/models"
	dErrors "opsdesk/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST /registrations.
type SubmitRequest struct {
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Address         string `json:"address"`
	City            string `json:"city"`
	District        string `json:"district"`
	PostalCode      string `json:"postal_code"`
	PackageID       string `json:"package_id"`
	PreferredWindow string `json:"preferred_window"`
}

// Validate trims and checks the submission fields. Field-level invariants
// live on the domain applicant; this only rejects what can be rejected
// before touching the service.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Email = strings.TrimSpace(r.Email)
	r.Address = strings.TrimSpace(r.Address)
	r.PackageID = strings.TrimSpace(r.PackageID)
	if r.PackageID == "" {
		return dErrors.New(dErrors.CodeValidation, "package_id is required")
	}
	return nil
}

// Applicant converts the request to the domain applicant.
func (r *SubmitRequest) Applicant() models.Applicant {
	return models.Applicant{
		Name:       r.Name,
		Phone:      r.Phone,
		Email:      r.Email,
		Address:    r.Address,
		City:       r.City,
		District:   r.District,
		PostalCode: r.PostalCode,
	}
}

// TransitionRequest is the HTTP request body for
// POST /registrations/{id}/transitions.
type TransitionRequest struct {
	Target  string         `json:"target"`
	Payload models.Payload `json:"payload"`
}

// Validate checks the target field only; whether the transition is legal is
// the lifecycle engine's call.
func (r *TransitionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Target = strings.TrimSpace(r.Target)
	if r.Target == "" {
		return dErrors.New(dErrors.CodeValidation, "target is required")
	}
	return nil
}

package handler

import (
	"encoding/json"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/registration/models"
)

// RegistrationResponse is the wire shape of one registration.
type RegistrationResponse struct {
	ID              string `json:"id"`
	Number          string `json:"number"`
	Name            string `json:"name"`
	Phone           string `json:"phone"`
	Email           string `json:"email,omitempty"`
	Address         string `json:"address"`
	City            string `json:"city,omitempty"`
	District        string `json:"district,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	PackageID       string `json:"package_id"`
	PreferredWindow string `json:"preferred_window,omitempty"`

	Status string `json:"status"`

	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	SurveyScheduledAt *time.Time `json:"survey_scheduled_at,omitempty"`
	SurveyCompletedAt *time.Time `json:"survey_completed_at,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`
	CustomerCreatedAt *time.Time `json:"customer_created_at,omitempty"`

	RejectionReason     string     `json:"rejection_reason,omitempty"`
	SurveyScheduledDate *time.Time `json:"survey_scheduled_date,omitempty"`
	SurveyNotes         string     `json:"survey_notes,omitempty"`
	SurveyResult        string     `json:"survey_result,omitempty"`

	CustomerID *string `json:"customer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromRegistration converts a domain registration to its wire shape.
func FromRegistration(reg *models.Registration) *RegistrationResponse {
	resp := &RegistrationResponse{
		ID:              reg.ID.String(),
		Number:          reg.Number,
		Name:            reg.Applicant.Name,
		Phone:           reg.Applicant.Phone,
		Email:           reg.Applicant.Email,
		Address:         reg.Applicant.Address,
		City:            reg.Applicant.City,
		District:        reg.Applicant.District,
		PostalCode:      reg.Applicant.PostalCode,
		PackageID:       reg.PackageID,
		PreferredWindow: reg.PreferredWindow,
		Status:          string(reg.Status),

		VerifiedAt:        reg.VerifiedAt,
		SurveyScheduledAt: reg.SurveyScheduledAt,
		SurveyCompletedAt: reg.SurveyCompletedAt,
		ApprovedAt:        reg.ApprovedAt,
		RejectedAt:        reg.RejectedAt,
		CustomerCreatedAt: reg.CustomerCreatedAt,

		RejectionReason:     reg.RejectionReason,
		SurveyScheduledDate: reg.SurveyScheduledDate,
		SurveyNotes:         reg.SurveyNotes,
		SurveyResult:        string(reg.SurveyResult),

		CreatedAt: reg.CreatedAt,
		UpdatedAt: reg.UpdatedAt,
	}
	if reg.CustomerID != nil {
		v := reg.CustomerID.String()
		resp.CustomerID = &v
	}
	return resp
}

// ListResponse wraps a page of registrations.
type ListResponse struct {
	Registrations []RegistrationResponse `json:"registrations"`
}

// ProvisionResponse is the result of a successful provisioning call.
type ProvisionResponse struct {
	CustomerID string `json:"customer_id"`
	TicketID   string `json:"ticket_id"`
}

// TimelineEntryResponse is one audit entry on the timeline.
type TimelineEntryResponse struct {
	ID          string          `json:"id"`
	ActorID     string          `json:"actor_id"`
	ActorName   string          `json:"actor_name,omitempty"`
	ActorRole   string          `json:"actor_role"`
	Action      string          `json:"action"`
	FromStatus  string          `json:"from_status,omitempty"`
	ToStatus    string          `json:"to_status,omitempty"`
	Outcome     string          `json:"outcome"`
	FailureKind string          `json:"failure_kind,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	CustomerID  *string         `json:"customer_id,omitempty"`
	TicketID    *string         `json:"ticket_id,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// TimelineResponse wraps an ordered timeline.
type TimelineResponse struct {
	RegistrationID string                  `json:"registration_id"`
	Entries        []TimelineEntryResponse `json:"entries"`
}

// FromTimeline converts audit entries to their wire shape.
func FromTimeline(regID string, entries []audit.Entry) *TimelineResponse {
	out := &TimelineResponse{
		RegistrationID: regID,
		Entries:        make([]TimelineEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		item := TimelineEntryResponse{
			ID:          e.ID.String(),
			ActorID:     e.ActorID.String(),
			ActorName:   e.ActorName,
			ActorRole:   string(e.ActorRole),
			Action:      string(e.Action),
			FromStatus:  e.FromStatus,
			ToStatus:    e.ToStatus,
			Outcome:     string(e.Outcome),
			FailureKind: e.FailureKind,
			Reason:      e.Reason,
			Payload:     e.Payload,
			Channel:     e.Channel,
			Timestamp:   e.Timestamp,
		}
		if e.CustomerID != nil {
			v := e.CustomerID.String()
			item.CustomerID = &v
		}
		if e.TicketID != nil {
			v := e.TicketID.String()
			item.TicketID = &v
		}
		out.Entries = append(out.Entries, item)
	}
	return out
}

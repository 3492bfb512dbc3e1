package models

import (
	"strings"
	"time"

	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
)

// Status is the single lifecycle state of a Registration. Exactly one value
// at any time; which stage timestamps are set is fully determined by it.
type Status string

const (
	StatusPendingVerification Status = "pending_verification"
	StatusVerified            Status = "verified"
	StatusSurveyScheduled     Status = "survey_scheduled"
	StatusSurveyCompleted     Status = "survey_completed"
	StatusApproved            Status = "approved"
	StatusCustomerCreated     Status = "customer_created"
	StatusRejected            Status = "rejected"
	// StatusCancelled is terminal and originated outside this subsystem; the
	// engine recognizes the value but never produces it.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a member of the status enum.
func (s Status) Valid() bool {
	switch s {
	case StatusPendingVerification, StatusVerified, StatusSurveyScheduled,
		StatusSurveyCompleted, StatusApproved, StatusCustomerCreated,
		StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusCustomerCreated || s == StatusRejected || s == StatusCancelled
}

// SurveyResult is the outcome recorded when a physical site survey completes.
type SurveyResult string

const (
	SurveyFeasible   SurveyResult = "feasible"
	SurveyInfeasible SurveyResult = "infeasible"
)

func (r SurveyResult) Valid() bool {
	return r == SurveyFeasible || r == SurveyInfeasible
}

// Payload carries the operator-submitted fields for one transition attempt.
// Which fields are required depends on the (source, target) pair; the
// transition table owns those rules.
type Payload struct {
	Notes               string       `json:"notes,omitempty"`
	RejectionReason     string       `json:"rejection_reason,omitempty"`
	SurveyScheduledDate string       `json:"survey_scheduled_date,omitempty"` // YYYY-MM-DD
	SurveyNotes         string       `json:"survey_notes,omitempty"`
	SurveyResult        SurveyResult `json:"survey_result,omitempty"`
}

// surveyDateLayout is the wire format for survey_scheduled_date.
const surveyDateLayout = "2006-01-02"

// ParseSurveyDate parses the payload's survey date field.
func (p Payload) ParseSurveyDate() (time.Time, error) {
	parsed, err := time.Parse(surveyDateLayout, p.SurveyScheduledDate)
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeValidation,
			"survey_scheduled_date must be a date in YYYY-MM-DD format")
	}
	return parsed, nil
}

// Applicant groups the sign-up fields copied onto the Customer at
// provisioning time. Immutable once the registration reaches customer_created.
type Applicant struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	City       string `json:"city"`
	District   string `json:"district"`
	PostalCode string `json:"postal_code"`
}

// Validate enforces the submission-time applicant invariants.
func (a Applicant) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "applicant name is required")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return dErrors.New(dErrors.CodeValidation, "applicant phone is required")
	}
	if strings.TrimSpace(a.Address) == "" {
		return dErrors.New(dErrors.CodeValidation, "applicant address is required")
	}
	if a.Email != "" && !strings.Contains(a.Email, "@") {
		return dErrors.New(dErrors.CodeValidation, "applicant email is malformed")
	}
	return nil
}

// Registration is the aggregate root of the sign-up lifecycle.
//
// Invariants:
//   - Number is assigned at creation and immutable
//   - Status is always a Valid() enum member
//   - Each stage timestamp is set at most once, only by its matching
//     transition, and never cleared
//   - CustomerID is set if and only if Status == customer_created
//   - RejectionReason is non-empty if and only if Status == rejected
//
// Records are never physically deleted; rejected and cancelled registrations
// are retained for the audit trail.
type Registration struct {
	ID        domain.RegistrationID `json:"id"`
	Number    string                `json:"number"`
	Applicant Applicant             `json:"applicant"`

	PackageID       string `json:"package_id"`
	PreferredWindow string `json:"preferred_window,omitempty"`

	Status Status `json:"status"`

	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
	SurveyScheduledAt *time.Time `json:"survey_scheduled_at,omitempty"`
	SurveyCompletedAt *time.Time `json:"survey_completed_at,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
	RejectedAt        *time.Time `json:"rejected_at,omitempty"`
	CustomerCreatedAt *time.Time `json:"customer_created_at,omitempty"`

	RejectionReason     string       `json:"rejection_reason,omitempty"`
	SurveyScheduledDate *time.Time   `json:"survey_scheduled_date,omitempty"`
	SurveyNotes         string       `json:"survey_notes,omitempty"`
	SurveyResult        SurveyResult `json:"survey_result,omitempty"`

	CustomerID *domain.CustomerID `json:"customer_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRegistration constructs a Registration in the initial state.
func NewRegistration(id domain.RegistrationID, number string, applicant Applicant, packageID, preferredWindow string, now time.Time) (*Registration, error) {
	if err := applicant.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(number) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "registration number is required")
	}
	if strings.TrimSpace(packageID) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "package reference is required")
	}
	return &Registration{
		ID:              id,
		Number:          number,
		Applicant:       applicant,
		PackageID:       packageID,
		PreferredWindow: preferredWindow,
		Status:          StatusPendingVerification,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Provisioned reports whether this registration already produced a customer.
// CustomerID presence is the single source of truth for idempotency.
func (r *Registration) Provisioned() bool {
	return r.CustomerID != nil
}

// stamp sets a stage timestamp exactly once. Re-entry through the same
// transition is impossible by the table, so an already-set pointer indicates
// a bug; keeping the first value preserves the monotonic timeline.
func stamp(field **time.Time, now time.Time) {
	if *field == nil {
		t := now
		*field = &t
	}
}

// ApplyCustomerCreated records the provisioning outcome on the registration.
// Called only by the provisioning orchestrator inside its transaction.
func (r *Registration) ApplyCustomerCreated(customerID domain.CustomerID, now time.Time) {
	r.Status = StatusCustomerCreated
	r.CustomerID = &customerID
	stamp(&r.CustomerCreatedAt, now)
	r.UpdatedAt = now
}

// CheckInvariants verifies the status/field coupling the lifecycle promises.
// Exercised by tests after every transition and provisioning attempt.
func (r *Registration) CheckInvariants() error {
	if !r.Status.Valid() {
		return dErrors.Newf(dErrors.CodeInternal, "unknown status %q", r.Status)
	}
	if (r.CustomerID != nil) != (r.Status == StatusCustomerCreated) {
		return dErrors.New(dErrors.CodeInternal, "customer_id must be set exactly when status is customer_created")
	}
	if (r.Status == StatusRejected) != (r.RejectionReason != "") {
		return dErrors.New(dErrors.CodeInternal, "rejection_reason must be set exactly when status is rejected")
	}
	if r.SurveyCompletedAt != nil && r.SurveyScheduledAt == nil {
		return dErrors.New(dErrors.CodeInternal, "survey_completed_at requires survey_scheduled_at")
	}
	if r.CustomerCreatedAt != nil && r.ApprovedAt == nil {
		return dErrors.New(dErrors.CodeInternal, "customer_created_at requires approved_at")
	}
	return nil
}

package audit

import (
	"time"

	"opsdesk/pkg/domain"
)

// Action names what the actor attempted.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionTransition Action = "transition"
	ActionProvision  Action = "provision"
)

// Outcome records how the attempt ended. Failures carry the error code so
// the timeline shows why an attempt was refused.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Entry is one immutable line of a registration's timeline. Every attempt is
// recorded, successful or not; entries are never updated or deleted.
type Entry struct {
	ID             domain.AuditEntryID   `json:"id"`
	RegistrationID domain.RegistrationID `json:"registration_id"`

	ActorID   domain.ActorID `json:"actor_id"`
	ActorName string         `json:"actor_name,omitempty"`
	ActorRole domain.Role    `json:"actor_role"`

	Action     Action `json:"action"`
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`

	Outcome     Outcome `json:"outcome"`
	FailureKind string  `json:"failure_kind,omitempty"`
	Reason      string  `json:"reason,omitempty"`

	// Payload is the operator-submitted body, marshaled as JSON.
	Payload []byte `json:"payload,omitempty"`

	CustomerID *domain.CustomerID `json:"customer_id,omitempty"`
	TicketID   *domain.TicketID   `json:"ticket_id,omitempty"`

	RequestID string    `json:"request_id,omitempty"`
	Channel   string    `json:"channel,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Package domain holds the typed identifiers and shared value types used
// across the registration lifecycle modules. Wrapping uuid.UUID in distinct
// named types makes cross-assignment a compile error: a CustomerID can never
// be passed where a RegistrationID is expected.
package domain

import (
	"github.com/google/uuid"

	dErrors "opsdesk/pkg/domain-errors"
)

type (
	// RegistrationID identifies a customer sign-up request.
	RegistrationID uuid.UUID

	// CustomerID identifies a provisioned customer account.
	CustomerID uuid.UUID

	// TicketID identifies an installation work order.
	TicketID uuid.UUID

	// ActorID identifies the staff member performing an operation.
	ActorID uuid.UUID

	// AuditEntryID identifies one immutable timeline entry.
	AuditEntryID uuid.UUID
)

func (i RegistrationID) String() string { return uuid.UUID(i).String() }
func (i CustomerID) String() string     { return uuid.UUID(i).String() }
func (i TicketID) String() string       { return uuid.UUID(i).String() }
func (i ActorID) String() string        { return uuid.UUID(i).String() }
func (i AuditEntryID) String() string   { return uuid.UUID(i).String() }

func (i RegistrationID) IsNil() bool { return uuid.UUID(i) == uuid.Nil }
func (i CustomerID) IsNil() bool     { return uuid.UUID(i) == uuid.Nil }
func (i TicketID) IsNil() bool       { return uuid.UUID(i) == uuid.Nil }
func (i ActorID) IsNil() bool        { return uuid.UUID(i) == uuid.Nil }
func (i AuditEntryID) IsNil() bool   { return uuid.UUID(i) == uuid.Nil }

// NewRegistrationID returns a fresh random RegistrationID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewCustomerID returns a fresh random CustomerID.
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// NewTicketID returns a fresh random TicketID.
func NewTicketID() TicketID { return TicketID(uuid.New()) }

// NewAuditEntryID returns a fresh random AuditEntryID.
func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs. Parsing happens at trust boundaries (HTTP, tokens) so the
// rest of the code can assume well-formed identifiers.
func parseUUID(raw, kind string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" id is required")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid "+kind+" id")
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeBadRequest, kind+" id must not be the nil uuid")
	}
	return parsed, nil
}

// ParseRegistrationID parses and validates a registration id string.
func ParseRegistrationID(raw string) (RegistrationID, error) {
	parsed, err := parseUUID(raw, "registration")
	if err != nil {
		return RegistrationID{}, err
	}
	return RegistrationID(parsed), nil
}

// ParseCustomerID parses and validates a customer id string.
func ParseCustomerID(raw string) (CustomerID, error) {
	parsed, err := parseUUID(raw, "customer")
	if err != nil {
		return CustomerID{}, err
	}
	return CustomerID(parsed), nil
}

// ParseTicketID parses and validates a ticket id string.
func ParseTicketID(raw string) (TicketID, error) {
	parsed, err := parseUUID(raw, "ticket")
	if err != nil {
		return TicketID{}, err
	}
	return TicketID(parsed), nil
}

// ParseActorID parses and validates an actor id string.
func ParseActorID(raw string) (ActorID, error) {
	parsed, err := parseUUID(raw, "actor")
	if err != nil {
		return ActorID{}, err
	}
	return ActorID(parsed), nil
}

package ticket

import (
	"context"

	"opsdesk/pkg/domain"
)

// Store persists work orders. Delete exists solely for compensating rollback
// during a failed provisioning attempt.
type Store interface {
	Create(ctx context.Context, t *Ticket) error
	FindByID(ctx context.Context, id domain.TicketID) (*Ticket, error)
	FindByCustomer(ctx context.Context, customerID domain.CustomerID) ([]Ticket, error)
	Delete(ctx context.Context, id domain.TicketID) error
}

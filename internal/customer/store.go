package customer

import (
	"context"

	"opsdesk/pkg/domain"
)

// Store persists customer accounts. Delete exists solely for compensating
// rollback when a later write in the same provisioning attempt fails on a
// backend without multi-record transactions.
type Store interface {
	Create(ctx context.Context, c *Customer) error
	FindByID(ctx context.Context, id domain.CustomerID) (*Customer, error)
	FindByRegistration(ctx context.Context, regID domain.RegistrationID) (*Customer, error)
	Delete(ctx context.Context, id domain.CustomerID) error
}

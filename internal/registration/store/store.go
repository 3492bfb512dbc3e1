package store

import (
	"context"

	"opsdesk/internal/registration/models"
	"opsdesk/pkg/domain"
)

// Filter narrows List results. Zero values mean no constraint.
type Filter struct {
	Status models.Status
	Limit  int
	Offset int
}

// Store persists registrations.
//
// UpdateIfStatus is the single mutation path after creation: it writes the
// record only if the stored status still equals expected, reporting
// sentinel.ErrConflict otherwise. Every lifecycle write goes through it, so
// two operators racing from the same observed state can never both win.
type Store interface {
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error)
	FindByNumber(ctx context.Context, number string) (*models.Registration, error)
	List(ctx context.Context, filter Filter) ([]models.Registration, error)
	UpdateIfStatus(ctx context.Context, reg *models.Registration, expected models.Status) error
}

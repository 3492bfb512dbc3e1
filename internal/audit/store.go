package audit

import (
	"context"

	"opsdesk/pkg/domain"
)

// Store is an append-only sink for timeline entries. ListByRegistration
// returns entries in timestamp order, oldest first.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByRegistration(ctx context.Context, regID domain.RegistrationID) ([]Entry, error)
}

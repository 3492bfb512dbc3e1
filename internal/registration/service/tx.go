package service

import (
	"context"
	"sync"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/customer"
	"opsdesk/internal/registration/store"
	"opsdesk/internal/ticket"
	dErrors "opsdesk/pkg/domain-errors"
)

// TxStores bundles the stores one transactional unit of work sees. On
// PostgreSQL all four are bound to the same database transaction; in memory
// they are the live stores behind a coarse lock.
type TxStores struct {
	Registrations store.Store
	Customers     customer.Store
	Tickets       ticket.Store
	Audit         audit.Store
}

// StoreTx provides the transactional boundary for lifecycle writes. The
// provisioning orchestrator depends on it for the three-way Customer, Ticket
// and Registration write.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error
}

// defaultTxTimeout bounds a lifecycle transaction.
const defaultTxTimeout = 5 * time.Second

// memoryStoreTx serializes units of work with a single mutex. It offers
// mutual exclusion but no rollback; callers that need all-or-nothing
// semantics compensate by deleting what they wrote, which the orchestrator
// does.
type memoryStoreTx struct {
	mu      sync.Mutex
	stores  TxStores
	timeout time.Duration
}

// NewMemoryTx wraps in-memory stores in a coarse-grained transactional
// boundary for development and tests.
func NewMemoryTx(stores TxStores) StoreTx {
	return &memoryStoreTx{stores: stores, timeout: defaultTxTimeout}
}

func (t *memoryStoreTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx, t.stores)
}

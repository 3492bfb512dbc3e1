package main

import (
	"context"
	"database/sql"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/customer"
	"opsdesk/internal/registration/service"
	"opsdesk/internal/registration/store"
	"opsdesk/internal/ticket"
	dErrors "opsdesk/pkg/domain-errors"
)

const defaultLifecycleTxTimeout = 5 * time.Second

// lifecyclePostgresTx runs a unit of work with all four stores bound to one
// database transaction, so a provisioning failure rolls back the customer,
// the ticket, the registration update and the audit row together.
type lifecyclePostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newLifecyclePostgresTx(db *sql.DB) *lifecyclePostgresTx {
	return &lifecyclePostgresTx{db: db}
}

func (t *lifecyclePostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context, stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultLifecycleTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stores := service.TxStores{
		Registrations: store.NewPostgres(tx),
		Customers:     customer.NewPostgresStore(tx),
		Tickets:       ticket.NewPostgresStore(tx),
		Audit:         audit.NewPostgresStore(tx),
	}
	if err := fn(ctx, stores); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

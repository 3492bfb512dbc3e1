package ticket

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"opsdesk/pkg/domain"
	"opsdesk/pkg/platform/sentinel"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same store can run
// standalone or inside the provisioning transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists work orders in PostgreSQL.
type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const ticketColumns = `id, customer_id, type, status, subject, address, preferred_window, created_at`

func (s *PostgresStore) Create(ctx context.Context, t *Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID.String(), t.CustomerID.String(), string(t.Type), string(t.Status),
		t.Subject, t.Address, t.Window, t.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create ticket: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.TicketID) (*Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id.String())

	t, err := scanTicket(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find ticket: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) FindByCustomer(ctx context.Context, customerID domain.CustomerID) ([]Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE customer_id = $1 ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, customerID.String())
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list tickets: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.TicketID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanTicket(scan func(dest ...any) error) (*Ticket, error) {
	var (
		t              Ticket
		id, customerID string
		typ, status    string
	)
	if err := scan(&id, &customerID, &typ, &status, &t.Subject, &t.Address, &t.Window, &t.CreatedAt); err != nil {
		return nil, err
	}
	ticketID, err := domain.ParseTicketID(id)
	if err != nil {
		return nil, err
	}
	custID, err := domain.ParseCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	t.ID = ticketID
	t.CustomerID = custID
	t.Type = Type(typ)
	t.Status = Status(status)
	return &t, nil
}

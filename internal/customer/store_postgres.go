package customer

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
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists customers in PostgreSQL.
type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

const customerColumns = `id, registration_id, name, phone, email, address, city, district, postal_code,
	package_id, package_name, package_type, speed_mbps, monthly_price, status, created_at`

func (s *PostgresStore) Create(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(ctx, query,
		c.ID.String(), c.RegistrationID.String(), c.Name, c.Phone, c.Email,
		c.Address, c.City, c.District, c.PostalCode,
		c.PackageID, c.PackageName, c.PackageType, c.SpeedMbps, c.MonthlyPrice,
		string(c.Status), c.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.CustomerID) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id.String()))
}

func (s *PostgresStore) FindByRegistration(ctx context.Context, regID domain.RegistrationID) (*Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE registration_id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, regID.String()))
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.CustomerID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row) (*Customer, error) {
	var (
		c         Customer
		id, regID string
		status    string
	)
	err := row.Scan(&id, &regID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.City, &c.District, &c.PostalCode,
		&c.PackageID, &c.PackageName, &c.PackageType, &c.SpeedMbps, &c.MonthlyPrice, &status, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	customerID, err := domain.ParseCustomerID(id)
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	registrationID, err := domain.ParseRegistrationID(regID)
	if err != nil {
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	c.ID = customerID
	c.RegistrationID = registrationID
	c.Status = Status(status)
	return &c, nil
}

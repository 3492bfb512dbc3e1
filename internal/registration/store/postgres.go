package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"opsdesk/internal/registration/models"
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

// Postgres persists registrations in PostgreSQL.
type Postgres struct {
	db DBTX
}

func NewPostgres(db DBTX) *Postgres {
	return &Postgres{db: db}
}

const registrationColumns = `id, number, applicant_name, applicant_phone, applicant_email,
	applicant_address, applicant_city, applicant_district, applicant_postal_code,
	package_id, preferred_window, status,
	verified_at, survey_scheduled_at, survey_completed_at, approved_at, rejected_at, customer_created_at,
	rejection_reason, survey_scheduled_date, survey_notes, survey_result,
	customer_id, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err := s.db.ExecContext(ctx, query, writeArgs(reg)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id.String()))
}

func (s *Postgres) FindByNumber(ctx context.Context, number string) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE number = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, number))
}

func (s *Postgres) List(ctx context.Context, filter Filter) ([]models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at, number`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET %d`, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list registrations: %w", err)
		}
		out = append(out, *reg)
	}
	return out, rows.Err()
}

// UpdateIfStatus conditions the write on the status value the caller observed
// when it loaded the record. Zero rows affected means another operator moved
// the registration first.
func (s *Postgres) UpdateIfStatus(ctx context.Context, reg *models.Registration, expected models.Status) error {
	query := `
		UPDATE registrations SET
			status = $2,
			verified_at = $3, survey_scheduled_at = $4, survey_completed_at = $5,
			approved_at = $6, rejected_at = $7, customer_created_at = $8,
			rejection_reason = $9, survey_scheduled_date = $10, survey_notes = $11, survey_result = $12,
			customer_id = $13, updated_at = $14
		WHERE id = $1 AND status = $15
	`
	res, err := s.db.ExecContext(ctx, query,
		reg.ID.String(), string(reg.Status),
		reg.VerifiedAt, reg.SurveyScheduledAt, reg.SurveyCompletedAt,
		reg.ApprovedAt, reg.RejectedAt, reg.CustomerCreatedAt,
		reg.RejectionReason, reg.SurveyScheduledDate, reg.SurveyNotes, string(reg.SurveyResult),
		customerIDArg(reg), reg.UpdatedAt,
		string(expected),
	)
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if affected == 0 {
		var exists bool
		check := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM registrations WHERE id = $1)`, reg.ID.String())
		if scanErr := check.Scan(&exists); scanErr != nil {
			return fmt.Errorf("update registration: %w", scanErr)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrConflict
	}
	return nil
}

func writeArgs(reg *models.Registration) []any {
	return []any{
		reg.ID.String(), reg.Number,
		reg.Applicant.Name, reg.Applicant.Phone, reg.Applicant.Email,
		reg.Applicant.Address, reg.Applicant.City, reg.Applicant.District, reg.Applicant.PostalCode,
		reg.PackageID, reg.PreferredWindow, string(reg.Status),
		reg.VerifiedAt, reg.SurveyScheduledAt, reg.SurveyCompletedAt,
		reg.ApprovedAt, reg.RejectedAt, reg.CustomerCreatedAt,
		reg.RejectionReason, reg.SurveyScheduledDate, reg.SurveyNotes, string(reg.SurveyResult),
		customerIDArg(reg), reg.CreatedAt, reg.UpdatedAt,
	}
}

func customerIDArg(reg *models.Registration) any {
	if reg.CustomerID == nil {
		return nil
	}
	return reg.CustomerID.String()
}

func (s *Postgres) scanOne(row *sql.Row) (*models.Registration, error) {
	reg, err := scanRegistration(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func scanRegistration(scan func(dest ...any) error) (*models.Registration, error) {
	var (
		reg          models.Registration
		id           string
		status       string
		surveyResult sql.NullString
		customerID   sql.NullString
	)
	err := scan(&id, &reg.Number,
		&reg.Applicant.Name, &reg.Applicant.Phone, &reg.Applicant.Email,
		&reg.Applicant.Address, &reg.Applicant.City, &reg.Applicant.District, &reg.Applicant.PostalCode,
		&reg.PackageID, &reg.PreferredWindow, &status,
		&reg.VerifiedAt, &reg.SurveyScheduledAt, &reg.SurveyCompletedAt,
		&reg.ApprovedAt, &reg.RejectedAt, &reg.CustomerCreatedAt,
		&reg.RejectionReason, &reg.SurveyScheduledDate, &reg.SurveyNotes, &surveyResult,
		&customerID, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	parsedID, err := domain.ParseRegistrationID(id)
	if err != nil {
		return nil, err
	}
	reg.ID = parsedID
	reg.Status = models.Status(status)
	if surveyResult.Valid && surveyResult.String != "" {
		reg.SurveyResult = models.SurveyResult(surveyResult.String)
	}
	if customerID.Valid {
		parsed, err := domain.ParseCustomerID(customerID.String)
		if err != nil {
			return nil, err
		}
		reg.CustomerID = &parsed
	}
	return &reg, nil
}

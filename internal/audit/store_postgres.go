package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"opsdesk/pkg/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so audit writes can share the
// transaction of the lifecycle write they describe.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists timeline entries and, via the transactional outbox,
// hands each one to the Kafka relay. The outbox row commits or rolls back
// together with the entry, so downstream consumers never see an event for a
// write that did not land.
type PostgresStore struct {
	db DBTX
}

func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	var customerID, ticketID *string
	if entry.CustomerID != nil {
		v := entry.CustomerID.String()
		customerID = &v
	}
	if entry.TicketID != nil {
		v := entry.TicketID.String()
		ticketID = &v
	}

	query := `
		INSERT INTO audit_entries (
			id, registration_id, actor_id, actor_name, actor_role,
			action, from_status, to_status, outcome, failure_kind, reason,
			payload, customer_id, ticket_id, request_id, channel, timestamp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID.String(), entry.RegistrationID.String(),
		entry.ActorID.String(), entry.ActorName, string(entry.ActorRole),
		string(entry.Action), entry.FromStatus, entry.ToStatus,
		string(entry.Outcome), entry.FailureKind, entry.Reason,
		entry.Payload, customerID, ticketID,
		entry.RequestID, entry.Channel, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	outbox := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(ctx, outbox,
		uuid.New(), "registration", entry.RegistrationID.String(),
		string(entry.Action), payload, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRegistration(ctx context.Context, regID domain.RegistrationID) ([]Entry, error) {
	query := `
		SELECT id, registration_id, actor_id, actor_name, actor_role,
			action, from_status, to_status, outcome, failure_kind, reason,
			payload, customer_id, ticket_id, request_id, channel, timestamp
		FROM audit_entries
		WHERE registration_id = $1
		ORDER BY timestamp, id
	`
	rows, err := s.db.QueryContext(ctx, query, regID.String())
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e                           Entry
			id, registrationID, actorID string
			role, action, outcome       string
			customerID, ticketID        sql.NullString
		)
		err := rows.Scan(&id, &registrationID, &actorID, &e.ActorName, &role,
			&action, &e.FromStatus, &e.ToStatus, &outcome, &e.FailureKind, &e.Reason,
			&e.Payload, &customerID, &ticketID, &e.RequestID, &e.Channel, &e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entryID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ID = domain.AuditEntryID(entryID)
		parsedReg, err := domain.ParseRegistrationID(registrationID)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.RegistrationID = parsedReg
		parsedActor, err := domain.ParseActorID(actorID)
		if err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.ActorID = parsedActor
		e.ActorRole = domain.Role(role)
		e.Action = Action(action)
		e.Outcome = Outcome(outcome)
		if customerID.Valid {
			parsed, err := domain.ParseCustomerID(customerID.String)
			if err != nil {
				return nil, fmt.Errorf("scan audit entry: %w", err)
			}
			e.CustomerID = &parsed
		}
		if ticketID.Valid {
			parsed, err := domain.ParseTicketID(ticketID.String)
			if err != nil {
				return nil, fmt.Errorf("scan audit entry: %w", err)
			}
			e.TicketID = &parsed
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

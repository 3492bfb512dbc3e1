//go:build integration

package audit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"opsdesk/internal/audit"
	"opsdesk/pkg/domain"
	"opsdesk/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *audit.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = audit.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "audit_entries", "outbox")
	s.Require().NoError(err)
}

func newEntry(regID domain.RegistrationID, action audit.Action, at time.Time) *audit.Entry {
	return &audit.Entry{
		ID:             domain.NewAuditEntryID(),
		RegistrationID: regID,
		ActorID:        domain.ActorID(uuid.New()),
		ActorName:      "Dewi Lestari",
		ActorRole:      domain.RoleSupervisor,
		Action:         action,
		FromStatus:     "verified",
		ToStatus:       "approved",
		Outcome:        audit.OutcomeSuccess,
		Payload:        []byte(`{"notes":"coverage confirmed"}`),
		RequestID:      uuid.NewString(),
		Channel:        "web",
		Timestamp:      at,
	}
}

func (s *PostgresStoreSuite) TestAppendWritesEntryAndOutboxRow() {
	ctx := context.Background()
	regID := domain.NewRegistrationID()

	entry := newEntry(regID, audit.ActionTransition, time.Now().UTC().Truncate(time.Microsecond))
	s.Require().NoError(s.store.Append(ctx, entry))

	listed, err := s.store.ListByRegistration(ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(entry.ID, listed[0].ID)
	s.Equal("approved", listed[0].ToStatus)
	s.JSONEq(`{"notes":"coverage confirmed"}`, string(listed[0].Payload))

	// The same append must leave an unpublished outbox row behind.
	var outboxCount int
	row := s.postgres.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outbox WHERE aggregate_id = $1 AND published_at IS NULL`,
		regID.String(),
	)
	s.Require().NoError(row.Scan(&outboxCount))
	s.Equal(1, outboxCount)
}

func (s *PostgresStoreSuite) TestListOrdersByTimestamp() {
	ctx := context.Background()
	regID := domain.NewRegistrationID()
	base := time.Now().UTC().Truncate(time.Microsecond)

	// Append newest first to prove ordering comes from the query.
	for _, offset := range []time.Duration{2 * time.Minute, 0, time.Minute} {
		entry := newEntry(regID, audit.ActionTransition, base.Add(offset))
		s.Require().NoError(s.store.Append(ctx, entry))
	}

	listed, err := s.store.ListByRegistration(ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(listed, 3)
	s.True(listed[0].Timestamp.Before(listed[1].Timestamp))
	s.True(listed[1].Timestamp.Before(listed[2].Timestamp))
}

func (s *PostgresStoreSuite) TestEntriesAreIsolatedPerRegistration() {
	ctx := context.Background()
	first := domain.NewRegistrationID()
	second := domain.NewRegistrationID()
	now := time.Now().UTC().Truncate(time.Microsecond)

	s.Require().NoError(s.store.Append(ctx, newEntry(first, audit.ActionSubmit, now)))
	s.Require().NoError(s.store.Append(ctx, newEntry(second, audit.ActionTransition, now)))

	listed, err := s.store.ListByRegistration(ctx, first)
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal(audit.ActionSubmit, listed[0].Action)
}

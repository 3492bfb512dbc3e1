//go:build integration

package outbox_test

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"opsdesk/internal/outbox"
	"opsdesk/internal/platform/kafka"
	"opsdesk/pkg/testutil/containers"
)

type RelaySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redpanda *containers.RedpandaContainer
	producer *kafka.Producer
	topic    string
}

func TestRelaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redpanda = mgr.GetRedpanda(s.T())

	producer, err := kafka.NewProducer(s.redpanda.Brokers)
	s.Require().NoError(err)
	s.producer = producer
}

func (s *RelaySuite) TearDownSuite() {
	if s.producer != nil {
		s.producer.Close()
	}
}

func (s *RelaySuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "outbox"))

	// Fresh topic per test so consumed offsets do not leak between tests.
	s.topic = "opsdesk.test." + uuid.NewString()
	s.Require().NoError(s.producer.EnsureTopics(ctx, s.topic))
}

func (s *RelaySuite) insertOutboxRow(ctx context.Context, aggregateID string, at time.Time) {
	_, err := s.postgres.DB.ExecContext(ctx, `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, 'registration', $2, 'transition', $3, $4)
	`, uuid.New(), aggregateID, []byte(fmt.Sprintf(`{"registration_id":%q}`, aggregateID)), at)
	s.Require().NoError(err)
}

func (s *RelaySuite) TestRelayPublishesAndMarksRows() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	base := time.Now().UTC()
	ids := make([]string, 3)
	for i := range ids {
		ids[i] = uuid.NewString()
		s.insertOutboxRow(ctx, ids[i], base.Add(time.Duration(i)*time.Millisecond))
	}

	relay := outbox.NewRelay(s.postgres.DB, s.producer, s.topic, 100*time.Millisecond, slog.Default())
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go func() { _ = relay.Run(relayCtx) }()

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.redpanda.Brokers),
		kgo.ConsumeTopics(s.topic),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	received := map[string]bool{}
	for len(received) < len(ids) {
		fetches := consumer.PollFetches(ctx)
		s.Require().NoError(fetches.Err())
		fetches.EachRecord(func(rec *kgo.Record) {
			received[string(rec.Key)] = true
		})
	}
	for _, id := range ids {
		s.True(received[id], "event for %s should be published", id)
	}

	// Every row must be marked published once the broker acknowledged it.
	s.Eventually(func() bool {
		var unpublished int
		row := s.postgres.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`)
		if err := row.Scan(&unpublished); err != nil {
			return false
		}
		return unpublished == 0
	}, 10*time.Second, 100*time.Millisecond)
}

func (s *RelaySuite) TestRelayLeavesRowsWhenIdle() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	relay := outbox.NewRelay(s.postgres.DB, s.producer, s.topic, 50*time.Millisecond, slog.Default())
	relayCtx, stopRelay := context.WithCancel(ctx)
	go func() { _ = relay.Run(relayCtx) }()

	// Nothing to publish; the relay should simply keep polling.
	time.Sleep(300 * time.Millisecond)
	stopRelay()

	var total int
	row := s.postgres.DB.QueryRowContext(context.Background(), `SELECT COUNT(*) FROM outbox`)
	s.Require().NoError(row.Scan(&total))
	s.Zero(total)
}

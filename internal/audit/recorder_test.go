package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"opsdesk/pkg/domain"
)

type RecorderSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *RecorderSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderSuite))
}

func (s *RecorderSuite) entry(regID domain.RegistrationID, action Action, at time.Time) Entry {
	return Entry{
		RegistrationID: regID,
		ActorID:        domain.ActorID{},
		ActorRole:      domain.RoleAdmin,
		Action:         action,
		Outcome:        OutcomeSuccess,
		Timestamp:      at,
	}
}

func (s *RecorderSuite) TestSynchronousRecord() {
	recorder := NewRecorder(s.store)
	regID := domain.NewRegistrationID()
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(recorder.Record(s.ctx, s.entry(regID, ActionSubmit, base)))
	s.Require().NoError(recorder.Record(s.ctx, s.entry(regID, ActionTransition, base.Add(time.Minute))))

	entries, err := recorder.Timeline(s.ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Equal(ActionSubmit, entries[0].Action)
	s.Equal(ActionTransition, entries[1].Action)
	s.False(entries[0].ID.IsNil(), "entry id is assigned when absent")
}

func (s *RecorderSuite) TestTimelineOrdering() {
	recorder := NewRecorder(s.store)
	regID := domain.NewRegistrationID()
	base := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	// Appended out of order; the timeline sorts by timestamp.
	s.Require().NoError(recorder.Record(s.ctx, s.entry(regID, ActionProvision, base.Add(2*time.Hour))))
	s.Require().NoError(recorder.Record(s.ctx, s.entry(regID, ActionSubmit, base)))
	s.Require().NoError(recorder.Record(s.ctx, s.entry(regID, ActionTransition, base.Add(time.Hour))))

	entries, err := recorder.Timeline(s.ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(ActionSubmit, entries[0].Action)
	s.Equal(ActionTransition, entries[1].Action)
	s.Equal(ActionProvision, entries[2].Action)
}

func (s *RecorderSuite) TestTimelineIsolation() {
	recorder := NewRecorder(s.store)
	regA := domain.NewRegistrationID()
	regB := domain.NewRegistrationID()
	now := time.Now()

	s.Require().NoError(recorder.Record(s.ctx, s.entry(regA, ActionSubmit, now)))
	s.Require().NoError(recorder.Record(s.ctx, s.entry(regB, ActionSubmit, now)))

	entries, err := recorder.Timeline(s.ctx, regA)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.Equal(regA, entries[0].RegistrationID)
}

func (s *RecorderSuite) TestAsyncBufferDrainsOnClose() {
	recorder := NewRecorder(s.store, WithAsyncBuffer(16))
	regID := domain.NewRegistrationID()
	now := time.Now()

	for i := 0; i < 10; i++ {
		s.Require().NoError(recorder.Record(s.ctx, s.entry(regID, ActionTransition, now.Add(time.Duration(i)*time.Second))))
	}
	recorder.Close()

	entries, err := recorder.Timeline(s.ctx, regID)
	s.Require().NoError(err)
	s.Len(entries, 10, "close flushes everything buffered")

	recorder.Close() // second close is a no-op
}

func (s *RecorderSuite) TestZeroTimestampFilled() {
	recorder := NewRecorder(s.store)
	regID := domain.NewRegistrationID()

	entry := s.entry(regID, ActionSubmit, time.Time{})
	s.Require().NoError(recorder.Record(s.ctx, entry))

	entries, err := recorder.Timeline(s.ctx, regID)
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.False(entries[0].Timestamp.IsZero())
}

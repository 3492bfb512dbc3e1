package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"opsdesk/pkg/domain"
)

// Recorder is the single entry point domain code uses to append timeline
// entries. Synchronous by default; WithAsyncBuffer moves persistence onto a
// background worker so a slow audit sink cannot slow the request path.
//
// Audit writes for FAILED attempts are best effort: a failed attempt changed
// no registration state, so losing its entry loses accountability, not
// correctness. Entries for successful transitions are written inside the same
// transaction as the state change and never pass through the async buffer.
type Recorder struct {
	store  Store
	logger *slog.Logger

	inbox chan Entry
	wg    sync.WaitGroup
	once  sync.Once
}

type RecorderOption func(*Recorder)

// WithLogger sets the logger used for dropped or failed audit writes.
func WithLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithAsyncBuffer persists entries on a background goroutine through a
// buffered channel of the given size. When the buffer is full, Record falls
// back to a synchronous write rather than dropping the entry.
func WithAsyncBuffer(size int) RecorderOption {
	return func(r *Recorder) {
		if size > 0 {
			r.inbox = make(chan Entry, size)
		}
	}
}

func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.inbox != nil {
		r.wg.Add(1)
		go r.drain()
	}
	return r
}

// Record appends one entry. A zero timestamp is filled with the current time.
func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.ID.IsNil() {
		entry.ID = domain.NewAuditEntryID()
	}

	if r.inbox == nil {
		return r.store.Append(ctx, entry)
	}
	select {
	case r.inbox <- entry:
		return nil
	default:
		return r.store.Append(ctx, entry)
	}
}

// RecordBestEffort appends an entry and logs instead of propagating failure.
// Used for failed-attempt entries where refusing the caller twice helps no one.
func (r *Recorder) RecordBestEffort(ctx context.Context, entry Entry) {
	if err := r.Record(ctx, entry); err != nil {
		r.logger.ErrorContext(ctx, "audit append failed",
			"registration_id", entry.RegistrationID.String(),
			"action", string(entry.Action),
			"error", err,
		)
	}
}

// Store exposes the underlying sink, for callers that need to append inside
// their own transactional boundary.
func (r *Recorder) Store() Store {
	return r.store
}

// Timeline returns the full ordered history for one registration.
func (r *Recorder) Timeline(ctx context.Context, regID domain.RegistrationID) ([]Entry, error) {
	return r.store.ListByRegistration(ctx, regID)
}

// Close stops the background worker after flushing everything buffered.
// Safe to call more than once; a nil buffer makes it a no-op.
func (r *Recorder) Close() {
	if r.inbox == nil {
		return
	}
	r.once.Do(func() {
		close(r.inbox)
	})
	r.wg.Wait()
}

func (r *Recorder) drain() {
	defer r.wg.Done()
	for entry := range r.inbox {
		if err := r.store.Append(context.Background(), entry); err != nil {
			r.logger.Error("async audit append failed",
				"registration_id", entry.RegistrationID.String(),
				"error", err,
			)
		}
	}
}

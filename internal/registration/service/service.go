// Package service implements the registration lifecycle: submission, guarded
// transitions, provisioning and the timeline read side.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"opsdesk/internal/audit"
	"opsdesk/internal/catalog"
	"opsdesk/internal/customer"
	"opsdesk/internal/notify"
	regmetrics "opsdesk/internal/registration/metrics"
	"opsdesk/internal/registration/store"
	"opsdesk/internal/ticket"
)

// Notifier receives committed lifecycle changes. Invoked after the store
// write succeeds, never inside the transaction.
type Notifier interface {
	Notify(ctx context.Context, event notify.Event)
}

// Service orchestrates the registration lifecycle. All writes flow through
// the transition table and the optimistic-concurrency store update; no other
// code path mutates a registration.
type Service struct {
	registrations store.Store
	customers     customer.Store
	tickets       ticket.Store
	recorder      *audit.Recorder
	catalog       catalog.Gateway

	tx       StoreTx
	notifier Notifier
	logger   *slog.Logger
	metrics  *regmetrics.Metrics
	tracer   trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTx replaces the transactional boundary. Production wiring passes the
// PostgreSQL implementation; the default serializes over the given stores
// in memory.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New constructs a Service over the given stores and catalog gateway.
func New(registrations store.Store, customers customer.Store, tickets ticket.Store, recorder *audit.Recorder, gateway catalog.Gateway, opts ...Option) *Service {
	s := &Service{
		registrations: registrations,
		customers:     customers,
		tickets:       tickets,
		recorder:      recorder,
		catalog:       gateway,
		logger:        slog.Default(),
		tracer:        otel.Tracer("opsdesk/registration"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tx == nil {
		s.tx = NewMemoryTx(TxStores{
			Registrations: registrations,
			Customers:     customers,
			Tickets:       tickets,
			Audit:         recorder.Store(),
		})
	}
	return s
}

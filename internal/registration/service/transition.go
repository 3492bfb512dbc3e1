package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/notify"
	"opsdesk/internal/registration/guard"
	"opsdesk/internal/registration/models"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
	"opsdesk/pkg/platform/sentinel"
	"opsdesk/pkg/requestcontext"
)

// ApplyTransition moves a registration to the requested target state.
//
// The write is conditioned on the status loaded at the start of the call, so
// of two operators racing from the same observed state exactly one wins; the
// other gets a conflict and must re-fetch. Every attempt lands on the
// timeline, refused ones included.
//
// A request targeting customer_created is not a field update; it hands over
// to the provisioning orchestrator.
func (s *Service) ApplyTransition(ctx context.Context, regID domain.RegistrationID, target models.Status, payload models.Payload) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.ApplyTransition")
	defer span.End()
	start := time.Now()

	reg, err := s.registrations.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}

	if target == models.StatusCustomerCreated {
		if _, _, err := s.Provision(ctx, regID); err != nil {
			return nil, err
		}
		return s.Get(ctx, regID)
	}

	actor := requestcontext.Actor(ctx)
	now := requestcontext.Now(ctx)

	rule, err := guard.Check(reg, target, payload, actor.Role, now)
	if err != nil {
		s.auditAttempt(ctx, reg, target, payload, err)
		s.observeTransition(target, "refused", start)
		return nil, err
	}

	updated := *reg
	rule.Apply(&updated, payload, now)

	err = s.tx.RunInTx(ctx, func(txCtx context.Context, stores TxStores) error {
		if err := stores.Registrations.UpdateIfStatus(txCtx, &updated, reg.Status); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Newf(dErrors.CodeConflict,
					"registration moved while you were editing; it is no longer %s", reg.Status)
			}
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "registration not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration")
		}
		return stores.Audit.Append(txCtx, s.entryFor(ctx, reg, target, payload, nil))
	})
	if err != nil {
		s.auditAttempt(ctx, reg, target, payload, err)
		s.observeTransition(target, "failed", start)
		return nil, err
	}

	s.observeTransition(target, "success", start)
	s.logger.InfoContext(ctx, "registration transitioned",
		"registration_id", reg.ID.String(),
		"number", reg.Number,
		"from", string(reg.Status),
		"to", string(target),
		"actor_id", actor.ID.String(),
	)
	if s.notifier != nil {
		s.notifier.Notify(ctx, notify.Event{
			RegistrationID: updated.ID,
			Number:         updated.Number,
			FromStatus:     string(reg.Status),
			ToStatus:       string(updated.Status),
			Timestamp:      now,
		})
	}
	return &updated, nil
}

// auditAttempt records a refused or failed attempt. Best effort: the state
// did not change, so the entry is accountability, not correctness.
func (s *Service) auditAttempt(ctx context.Context, reg *models.Registration, target models.Status, payload models.Payload, cause error) {
	s.recorder.RecordBestEffort(ctx, s.entryFor(ctx, reg, target, payload, cause))
}

// entryFor builds the timeline entry for one transition attempt. A nil cause
// means the attempt succeeded.
func (s *Service) entryFor(ctx context.Context, reg *models.Registration, target models.Status, payload models.Payload, cause error) audit.Entry {
	actor := requestcontext.Actor(ctx)
	body, _ := json.Marshal(payload)

	entry := audit.Entry{
		ID:             domain.NewAuditEntryID(),
		RegistrationID: reg.ID,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		ActorRole:      actor.Role,
		Action:         audit.ActionTransition,
		FromStatus:     string(reg.Status),
		ToStatus:       string(target),
		Outcome:        audit.OutcomeSuccess,
		Payload:        body,
		RequestID:      requestcontext.RequestID(ctx),
		Channel:        requestcontext.Channel(ctx),
		Timestamp:      requestcontext.Now(ctx),
	}
	if cause != nil {
		entry.Outcome = audit.OutcomeFailure
		entry.FailureKind = string(dErrors.CodeOf(cause))
		entry.Reason = dErrors.MessageOf(cause)
	}
	return entry
}

func (s *Service) observeTransition(target models.Status, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordTransition(string(target), outcome, start)
	}
}

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"opsdesk/internal/audit"
	"opsdesk/internal/registration/models"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
	"opsdesk/pkg/platform/sentinel"
	"opsdesk/pkg/requestcontext"
)

// SubmitInput carries the sign-up request fields.
type SubmitInput struct {
	Applicant       models.Applicant
	PackageID       string
	PreferredWindow string
}

// numberAttempts bounds retries when a generated registration number
// collides with an existing one.
const numberAttempts = 5

// Submit creates a new registration in pending_verification, assigns its
// human-readable number and writes the first timeline entry.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*models.Registration, error) {
	ctx, span := s.tracer.Start(ctx, "registration.Submit")
	defer span.End()

	if _, err := s.catalog.GetPackage(ctx, input.PackageID); err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, dErrors.Newf(dErrors.CodeValidation, "unknown package %s", input.PackageID)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "package lookup failed")
	}

	now := requestcontext.Now(ctx)
	var reg *models.Registration
	for attempt := 0; attempt < numberAttempts; attempt++ {
		candidate, err := models.NewRegistration(
			domain.NewRegistrationID(),
			generateNumber(now),
			input.Applicant,
			input.PackageID,
			input.PreferredWindow,
			now,
		)
		if err != nil {
			return nil, err
		}
		if err := s.registrations.Create(ctx, candidate); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyExists) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
		}
		reg = candidate
		break
	}
	if reg == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "could not assign a unique registration number")
	}

	s.recorder.RecordBestEffort(ctx, audit.Entry{
		RegistrationID: reg.ID,
		ActorID:        requestcontext.Actor(ctx).ID,
		ActorName:      requestcontext.Actor(ctx).Name,
		ActorRole:      requestcontext.Actor(ctx).Role,
		Action:         audit.ActionSubmit,
		ToStatus:       string(models.StatusPendingVerification),
		Outcome:        audit.OutcomeSuccess,
		RequestID:      requestcontext.RequestID(ctx),
		Channel:        requestcontext.Channel(ctx),
		Timestamp:      now,
	})
	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
	s.logger.InfoContext(ctx, "registration submitted",
		"registration_id", reg.ID.String(),
		"number", reg.Number,
		"package_id", reg.PackageID,
	)
	return reg, nil
}

// generateNumber produces REG-YYYYMMDD-XXXXXX. The random suffix keeps
// numbers unguessable while the date prefix keeps them sortable for staff.
func generateNumber(now time.Time) string {
	return fmt.Sprintf("REG-%s-%06d", now.Format("20060102"), rand.IntN(1000000))
}

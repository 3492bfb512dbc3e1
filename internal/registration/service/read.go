package service

import (
	"context"
	"errors"

	"opsdesk/internal/audit"
	"opsdesk/internal/registration/models"
	"opsdesk/internal/registration/store"
	"opsdesk/pkg/domain"
	dErrors "opsdesk/pkg/domain-errors"
	"opsdesk/pkg/platform/sentinel"
)

// Get returns one registration by id.
func (s *Service) Get(ctx context.Context, regID domain.RegistrationID) (*models.Registration, error) {
	reg, err := s.registrations.FindByID(ctx, regID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "registration not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load registration")
	}
	return reg, nil
}

// List returns registrations matching the filter, oldest first.
func (s *Service) List(ctx context.Context, filter store.Filter) ([]models.Registration, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown status %q", filter.Status)
	}
	out, err := s.registrations.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return out, nil
}

// GetTimeline returns the full ordered audit history for one registration.
// The registration must exist; an empty timeline for a live record is
// impossible because submission itself is recorded.
func (s *Service) GetTimeline(ctx context.Context, regID domain.RegistrationID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, regID); err != nil {
		return nil, err
	}
	entries, err := s.recorder.Timeline(ctx, regID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load timeline")
	}
	return entries, nil
}

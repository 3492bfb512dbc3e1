package store

import (
	"context"
	"sort"
	"sync"

	"opsdesk/internal/registration/models"
	"opsdesk/pkg/domain"
	"opsdesk/pkg/platform/sentinel"
)

// InMemory keeps registrations in a map. Records are stored and returned by
// value so callers can never mutate shared state without going through
// UpdateIfStatus.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[domain.RegistrationID]models.Registration
	numbers map[string]domain.RegistrationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:    make(map[domain.RegistrationID]models.Registration),
		numbers: make(map[string]domain.RegistrationID),
	}
}

func (s *InMemory) Create(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[reg.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	if _, ok := s.numbers[reg.Number]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.byID[reg.ID] = *reg
	s.numbers[reg.Number] = reg.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.RegistrationID) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reg, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &reg, nil
}

func (s *InMemory) FindByNumber(_ context.Context, number string) (*models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.numbers[number]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	reg := s.byID[id]
	return &reg, nil
}

func (s *InMemory) List(_ context.Context, filter Filter) ([]models.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Registration, 0, len(s.byID))
	for _, reg := range s.byID {
		if filter.Status != "" && reg.Status != filter.Status {
			continue
		}
		out = append(out, reg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Number < out[j].Number
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemory) UpdateIfStatus(_ context.Context, reg *models.Registration, expected models.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[reg.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Status != expected {
		return sentinel.ErrConflict
	}
	s.byID[reg.ID] = *reg
	return nil
}

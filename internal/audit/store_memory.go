package audit

import (
	"context"
	"sort"
	"sync"

	"opsdesk/pkg/domain"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[domain.RegistrationID][]Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[domain.RegistrationID][]Entry)}
}

func (s *InMemoryStore) Append(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.RegistrationID] = append(s.entries[entry.RegistrationID], entry)
	return nil
}

func (s *InMemoryStore) ListByRegistration(_ context.Context, regID domain.RegistrationID) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Entry{}, s.entries[regID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

package customer

import (
	"context"
	"sync"

	"opsdesk/pkg/domain"
	"opsdesk/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	customers map[domain.CustomerID]Customer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{customers: make(map[domain.CustomerID]Customer)}
}

func (s *InMemoryStore) Create(_ context.Context, c *Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.customers[c.ID] = *c
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.CustomerID) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) FindByRegistration(_ context.Context, regID domain.RegistrationID) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.customers {
		if c.RegistrationID == regID {
			c := c
			return &c, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.customers, id)
	return nil
}

// Count is a test helper for exactly-once provisioning assertions.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.customers)
}

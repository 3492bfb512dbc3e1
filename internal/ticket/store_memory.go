package ticket

import (
	"context"
	"sync"

	"opsdesk/pkg/domain"
	"opsdesk/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	tickets map[domain.TicketID]Ticket
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tickets: make(map[domain.TicketID]Ticket)}
}

func (s *InMemoryStore) Create(_ context.Context, t *Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[t.ID]; ok {
		return sentinel.ErrAlreadyExists
	}
	s.tickets[t.ID] = *t
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.TicketID) (*Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemoryStore) FindByCustomer(_ context.Context, customerID domain.CustomerID) ([]Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Ticket
	for _, t := range s.tickets {
		if t.CustomerID == customerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.TicketID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.tickets, id)
	return nil
}

// Count is a test helper for exactly-once provisioning assertions.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}

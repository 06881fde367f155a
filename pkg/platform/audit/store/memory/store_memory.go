package memory

import (
	"context"
	"sync"

	audit "votilio/pkg/platform/audit"
)

const defaultCapacity = 1000

// Store keeps a bounded in-memory ring of audit events. Development and
// unit-test backend; production uses the postgres store.
type Store struct {
	mu     sync.RWMutex
	events []audit.Event
	cap    int
}

// New creates an in-memory audit store holding the most recent events.
func New() *Store {
	return &Store{cap: defaultCapacity}
}

// Append records an event, evicting the oldest past capacity.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
	if len(s.events) > s.cap {
		s.events = s.events[len(s.events)-s.cap:]
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]audit.Event, 0, limit)
	for i := len(s.events) - 1; i >= len(s.events)-limit; i-- {
		out = append(out, s.events[i])
	}
	return out, nil
}

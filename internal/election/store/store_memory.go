package store

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"votilio/internal/election/models"
	"votilio/pkg/platform/sentinel"
)

// InMemory is the development and unit-test election store.
type InMemory struct {
	mu        sync.RWMutex
	elections map[uuid.UUID]*models.Election
	bySlug    map[string]uuid.UUID
}

// NewInMemory creates an empty in-memory election store.
func NewInMemory() *InMemory {
	return &InMemory{
		elections: make(map[uuid.UUID]*models.Election),
		bySlug:    make(map[string]uuid.UUID),
	}
}

// Create stores a new election with its positions and candidates.
func (s *InMemory) Create(ctx context.Context, election *models.Election) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.elections[election.ID]; ok {
		return sentinel.ErrConflict
	}
	if election.ResultsSlug != "" {
		if _, ok := s.bySlug[election.ResultsSlug]; ok {
			return sentinel.ErrConflict
		}
		s.bySlug[election.ResultsSlug] = election.ID
	}
	s.elections[election.ID] = election.Clone()
	return nil
}

// Get returns an immutable snapshot of the election.
func (s *InMemory) Get(ctx context.Context, electionID uuid.UUID) (*models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.elections[electionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return e.Clone(), nil
}

// GetBySlug returns the election owning a public results slug.
func (s *InMemory) GetBySlug(ctx context.Context, slug string) (*models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.elections[id].Clone(), nil
}

// List returns snapshots of all elections.
func (s *InMemory) List(ctx context.Context) ([]*models.Election, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Election, 0, len(s.elections))
	for _, e := range s.elections {
		out = append(out, e.Clone())
	}
	return out, nil
}

// Publish flips the one-way results flag and records the slug.
// Publishing an already-published election is a no-op.
func (s *InMemory) Publish(ctx context.Context, electionID uuid.UUID, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.elections[electionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if e.ResultsPublished {
		return nil
	}
	slug = strings.ToLower(slug)
	if owner, ok := s.bySlug[slug]; ok && owner != electionID {
		return sentinel.ErrConflict
	}
	e.ResultsPublished = true
	e.ResultsSlug = slug
	s.bySlug[slug] = electionID
	return nil
}

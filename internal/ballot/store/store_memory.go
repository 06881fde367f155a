package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"votilio/internal/ballot/models"
	"votilio/pkg/platform/sentinel"
)

// Count is one aggregated tally row. An abstention row has the zero
// CandidateID and Abstain set.
type Count struct {
	PositionID  uuid.UUID
	CandidateID uuid.UUID
	Abstain     bool
	Votes       int
}

// InMemory is the development and unit-test ballot store.
type InMemory struct {
	mu      sync.Mutex
	ballots map[uuid.UUID]*models.Ballot

	failNext bool
}

// NewInMemory creates an empty in-memory ballot store.
func NewInMemory() *InMemory {
	return &InMemory{ballots: make(map[uuid.UUID]*models.Ballot)}
}

// Insert stores one accepted ballot.
func (s *InMemory) Insert(ctx context.Context, ballot *models.Ballot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext {
		s.failNext = false
		return sentinel.ErrUnavailable
	}
	if _, ok := s.ballots[ballot.ID]; ok {
		return sentinel.ErrConflict
	}
	s.ballots[ballot.ID] = ballot.Clone()
	return nil
}

// CountByElection returns how many ballots an election holds.
func (s *InMemory) CountByElection(ctx context.Context, electionID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, b := range s.ballots {
		if b.ElectionID == electionID {
			total++
		}
	}
	return total, nil
}

// CountAll aggregates every selection for an election in one consistent
// snapshot: the ballot total and the per-row counts come from the same
// pass under the lock.
func (s *InMemory) CountAll(ctx context.Context, electionID uuid.UUID) (int, []Count, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		position  uuid.UUID
		candidate uuid.UUID
		abstain   bool
	}
	ballots := 0
	tally := make(map[key]int)
	for _, b := range s.ballots {
		if b.ElectionID != electionID {
			continue
		}
		ballots++
		for _, sel := range b.Selections {
			tally[key{sel.PositionID, sel.CandidateID, sel.Abstain}]++
		}
	}

	counts := make([]Count, 0, len(tally))
	for k, n := range tally {
		counts = append(counts, Count{
			PositionID:  k.position,
			CandidateID: k.candidate,
			Abstain:     k.abstain,
			Votes:       n,
		})
	}
	return ballots, counts, nil
}

// FailNextInsert arms a one-shot storage fault for tests exercising the
// write-failure path.
func (s *InMemory) FailNextInsert() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = true
}

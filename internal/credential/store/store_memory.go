package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"votilio/internal/credential/models"
	"votilio/pkg/platform/sentinel"
)

// Counts summarizes credential statuses for one election. Status totals
// only; nothing here identifies an invitee or links to a ballot.
type Counts struct {
	Total    int `json:"total"`
	Unused   int `json:"unused"`
	Redeemed int `json:"redeemed"`
	Revoked  int `json:"revoked"`
}

// InMemory is the development and unit-test credential store. The mutex
// gives the same atomicity for TryRedeem that the conditional UPDATE gives
// the postgres store.
type InMemory struct {
	mu    sync.Mutex
	creds map[string]*models.Credential
}

// NewInMemory creates an empty in-memory credential store.
func NewInMemory() *InMemory {
	return &InMemory{creds: make(map[string]*models.Credential)}
}

// Insert stores a new UNUSED credential. Digest collisions return
// sentinel.ErrConflict so the generator can retry with a fresh code.
func (s *InMemory) Insert(ctx context.Context, cred *models.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.creds[cred.Digest]; ok {
		return sentinel.ErrConflict
	}
	s.creds[cred.Digest] = cred.Clone()
	return nil
}

// Lookup returns a snapshot of the credential with the given digest.
func (s *InMemory) Lookup(ctx context.Context, digest string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[digest]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cred.Clone(), nil
}

// TryRedeem performs the atomic UNUSED -> REDEEMED transition. Exactly one
// caller succeeds per digest; every other caller observes the terminal
// state it lost to.
func (s *InMemory) TryRedeem(ctx context.Context, digest string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[digest]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch cred.Status {
	case models.StatusRedeemed:
		return sentinel.ErrAlreadyUsed
	case models.StatusRevoked:
		return sentinel.ErrRevoked
	}
	cred.Status = models.StatusRedeemed
	cred.RedeemedAt = &at
	return nil
}

// Revoke invalidates an UNUSED credential. Redeemed credentials are never
// revoked; revoking an already-revoked credential is a no-op success.
func (s *InMemory) Revoke(ctx context.Context, digest string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.creds[digest]
	if !ok {
		return sentinel.ErrNotFound
	}
	switch cred.Status {
	case models.StatusRedeemed:
		return sentinel.ErrAlreadyUsed
	case models.StatusRevoked:
		return nil
	}
	cred.Status = models.StatusRevoked
	cred.RevokedAt = &at
	return nil
}

// CountByElection tallies credential statuses for one election.
func (s *InMemory) CountByElection(ctx context.Context, electionID uuid.UUID) (Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var counts Counts
	for _, cred := range s.creds {
		if cred.ElectionID != electionID {
			continue
		}
		counts.Total++
		switch cred.Status {
		case models.StatusUnused:
			counts.Unused++
		case models.StatusRedeemed:
			counts.Redeemed++
		case models.StatusRevoked:
			counts.Revoked++
		}
	}
	return counts, nil
}

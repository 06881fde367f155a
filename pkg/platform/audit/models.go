// Package audit captures the operational trail of the voting core.
//
// Events deliberately carry no credential digests, plaintext codes, or
// ballot identifiers: nothing in the trail may bridge the identity-bearing
// credential records and the anonymous ballot records.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action names an auditable occurrence.
type Action string

const (
	EventElectionCreated        Action = "election_created"
	EventResultsPublished       Action = "results_published"
	EventCredentialsIssued      Action = "credentials_issued"
	EventCredentialRevoked      Action = "credential_revoked"
	EventBallotAccepted         Action = "ballot_accepted"
	EventRedemptionRejected     Action = "redemption_rejected"
	EventReconciliationRequired Action = "reconciliation_required"
)

// Event is emitted from domain logic. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Action     Action    `json:"action"`
	ElectionID uuid.UUID `json:"election_id,omitempty"`
	// Count carries bulk sizes (e.g. number of credentials issued).
	Count int `json:"count,omitempty"`
	// Reason carries the internal rejection taxonomy for redemption events.
	Reason string `json:"reason,omitempty"`
	// Detail is free-form operator context. Never a digest or code.
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
}

// Multi fans Append out to several stores; Recent reads from the first.
func Multi(stores ...Store) Store {
	return multiStore(stores)
}

type multiStore []Store

func (m multiStore) Append(ctx context.Context, event Event) error {
	var firstErr error
	for _, s := range m {
		if err := s.Append(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return m[0].Recent(ctx, limit)
}

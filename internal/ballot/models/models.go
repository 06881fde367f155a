// Package models defines the anonymous ballot. A ballot carries no
// credential reference, voter identity, or precise timestamp; once stored
// it cannot be traced back to whoever cast it.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Ballot is one accepted vote. CastAt is truncated to the hour before the
// ballot is built so storage order and timing cannot be correlated with
// redemption records.
type Ballot struct {
	ID         uuid.UUID   `json:"id"`
	ElectionID uuid.UUID   `json:"election_id"`
	CastAt     time.Time   `json:"cast_at"`
	Selections []Selection `json:"selections"`
}

// Selection is the choice for one position. Abstain and CandidateID are
// mutually exclusive: an abstention has the zero CandidateID.
type Selection struct {
	PositionID  uuid.UUID `json:"position_id"`
	CandidateID uuid.UUID `json:"candidate_id,omitempty"`
	Abstain     bool      `json:"abstain,omitempty"`
}

// TruncateCastTime coarsens a timestamp for storage on a ballot.
func TruncateCastTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Hour)
}

// Clone returns a deep copy.
func (b *Ballot) Clone() *Ballot {
	if b == nil {
		return nil
	}
	out := *b
	out.Selections = make([]Selection, len(b.Selections))
	copy(out.Selections, b.Selections)
	return &out
}

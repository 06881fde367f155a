// Package models defines the election configuration read by the voting core.
//
// The redemption path treats a loaded Election as an immutable snapshot:
// stores hand out deep copies, and nothing downstream mutates them.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Election is the configuration unit that scopes credentials and ballots.
type Election struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Active      bool       `json:"active"`

	// ResultsPublished is a one-way flag gating the public results surface.
	// The tally engine itself ignores it.
	ResultsPublished bool   `json:"results_published"`
	ResultsSlug      string `json:"results_slug,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	Positions []Position `json:"positions"`
}

// Position is a contested seat within an election.
type Position struct {
	ID          uuid.UUID   `json:"id"`
	ElectionID  uuid.UUID   `json:"election_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required"`
	OrderIndex  int         `json:"order_index"`
	Candidates  []Candidate `json:"candidates"`
}

// Candidate is a choice within a position.
type Candidate struct {
	ID          uuid.UUID `json:"id"`
	PositionID  uuid.UUID `json:"position_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OrderIndex  int       `json:"order_index"`
}

// IsOpen reports whether the election accepts ballots at the given time.
func (e *Election) IsOpen(now time.Time) bool {
	if !e.Active {
		return false
	}
	if e.StartTime != nil && now.Before(*e.StartTime) {
		return false
	}
	if e.EndTime != nil && now.After(*e.EndTime) {
		return false
	}
	return true
}

// PositionByID returns the position with the given ID, or nil.
func (e *Election) PositionByID(positionID uuid.UUID) *Position {
	for i := range e.Positions {
		if e.Positions[i].ID == positionID {
			return &e.Positions[i]
		}
	}
	return nil
}

// HasCandidate reports whether the candidate belongs to this position.
func (p *Position) HasCandidate(candidateID uuid.UUID) bool {
	for i := range p.Candidates {
		if p.Candidates[i].ID == candidateID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out immutable snapshots.
func (e *Election) Clone() *Election {
	out := *e
	if e.StartTime != nil {
		t := *e.StartTime
		out.StartTime = &t
	}
	if e.EndTime != nil {
		t := *e.EndTime
		out.EndTime = &t
	}
	out.Positions = make([]Position, len(e.Positions))
	for i, p := range e.Positions {
		cp := p
		cp.Candidates = append([]Candidate(nil), p.Candidates...)
		out.Positions[i] = cp
	}
	return &out
}

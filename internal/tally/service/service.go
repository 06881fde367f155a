// Package service aggregates stored ballots into election results. Every
// call recomputes from the ballot box; nothing is cached, so results always
// reflect the ballots actually present.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	ballotStore "votilio/internal/ballot/store"
	credStore "votilio/internal/credential/store"
	electionmodels "votilio/internal/election/models"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/requestcontext"
)

// Ballots is the read side of the ballot box.
type Ballots interface {
	CountAll(ctx context.Context, electionID uuid.UUID) (int, []ballotStore.Count, error)
}

// Credentials supplies status totals for turnout figures.
type Credentials interface {
	CountByElection(ctx context.Context, electionID uuid.UUID) (credStore.Counts, error)
}

// Elections serves election snapshots and slug resolution.
type Elections interface {
	Get(ctx context.Context, electionID uuid.UUID) (*electionmodels.Election, error)
	GetBySlug(ctx context.Context, slug string) (*electionmodels.Election, error)
}

// Service computes election results.
type Service struct {
	ballots     Ballots
	credentials Credentials
	elections   Elections
	logger      *slog.Logger
}

// New creates a tally service.
func New(ballots Ballots, credentials Credentials, elections Elections, logger *slog.Logger) *Service {
	return &Service{
		ballots:     ballots,
		credentials: credentials,
		elections:   elections,
		logger:      logger,
	}
}

// Turnout reports credential status totals next to the ballot count.
// Status totals only; no identity and nothing joinable to a ballot.
type Turnout struct {
	CredentialsIssued   int `json:"credentials_issued"`
	CredentialsRedeemed int `json:"credentials_redeemed"`
	CredentialsRevoked  int `json:"credentials_revoked"`
	Ballots             int `json:"ballots"`
}

// CandidateResult is one candidate's total for a position.
type CandidateResult struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Name        string    `json:"name"`
	Votes       int       `json:"votes"`
}

// PositionResult is the outcome for one position. Winners lists every
// candidate holding the maximum; a tie has several, a position nobody
// voted on has none.
type PositionResult struct {
	PositionID  uuid.UUID         `json:"position_id"`
	Name        string            `json:"name"`
	Candidates  []CandidateResult `json:"candidates"`
	Abstentions int               `json:"abstentions"`
	Winners     []uuid.UUID       `json:"winners"`
}

// Result is the full tally for an election.
type Result struct {
	ElectionID   uuid.UUID        `json:"election_id"`
	ElectionName string           `json:"election_name"`
	Turnout      Turnout          `json:"turnout"`
	Positions    []PositionResult `json:"positions"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// Results computes the tally for an election regardless of publication
// state. This is the admin view.
func (s *Service) Results(ctx context.Context, electionID uuid.UUID) (*Result, error) {
	election, err := s.elections.Get(ctx, electionID)
	if err != nil {
		return nil, err
	}
	return s.tally(ctx, election)
}

// PublishedResults resolves a public slug and computes the tally, but only
// once the election's results have been published. An unpublished election
// answers exactly like a nonexistent one.
func (s *Service) PublishedResults(ctx context.Context, slug string) (*Result, error) {
	election, err := s.elections.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !election.ResultsPublished {
		return nil, dErrors.New(dErrors.CodeNotFound, "results not found")
	}
	return s.tally(ctx, election)
}

func (s *Service) tally(ctx context.Context, election *electionmodels.Election) (*Result, error) {
	ballots, counts, err := s.ballots.CountAll(ctx, election.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count ballots")
	}
	credCounts, err := s.credentials.CountByElection(ctx, election.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}

	type key struct {
		position  uuid.UUID
		candidate uuid.UUID
	}
	votes := make(map[key]int, len(counts))
	abstentions := make(map[uuid.UUID]int)
	for _, c := range counts {
		if c.Abstain {
			abstentions[c.PositionID] += c.Votes
			continue
		}
		votes[key{c.PositionID, c.CandidateID}] += c.Votes
	}

	result := &Result{
		ElectionID:   election.ID,
		ElectionName: election.Name,
		Turnout: Turnout{
			CredentialsIssued:   credCounts.Total,
			CredentialsRedeemed: credCounts.Redeemed,
			CredentialsRevoked:  credCounts.Revoked,
			Ballots:             ballots,
		},
		GeneratedAt: requestcontext.Now(ctx),
	}

	for _, position := range election.Positions {
		pr := PositionResult{
			PositionID:  position.ID,
			Name:        position.Name,
			Abstentions: abstentions[position.ID],
		}
		max := 0
		for _, candidate := range position.Candidates {
			n := votes[key{position.ID, candidate.ID}]
			pr.Candidates = append(pr.Candidates, CandidateResult{
				CandidateID: candidate.ID,
				Name:        candidate.Name,
				Votes:       n,
			})
			if n > max {
				max = n
			}
		}
		if max > 0 {
			for _, cr := range pr.Candidates {
				if cr.Votes == max {
					pr.Winners = append(pr.Winners, cr.CandidateID)
				}
			}
		}
		result.Positions = append(result.Positions, pr)
	}
	return result, nil
}

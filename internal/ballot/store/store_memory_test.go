package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"votilio/internal/ballot/models"
	"votilio/pkg/platform/sentinel"
)

type InMemoryBallotSuite struct {
	suite.Suite
	store      *InMemory
	ctx        context.Context
	electionID uuid.UUID
}

func TestInMemoryBallotSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBallotSuite))
}

func (s *InMemoryBallotSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.electionID = uuid.New()
}

func (s *InMemoryBallotSuite) newBallot(selections ...models.Selection) *models.Ballot {
	return &models.Ballot{
		ID:         uuid.New(),
		ElectionID: s.electionID,
		CastAt:     models.TruncateCastTime(time.Now()),
		Selections: selections,
	}
}

func (s *InMemoryBallotSuite) TestInsertAndCount() {
	s.Require().NoError(s.store.Insert(s.ctx, s.newBallot()))
	s.Require().NoError(s.store.Insert(s.ctx, s.newBallot()))

	other := s.newBallot()
	other.ElectionID = uuid.New()
	s.Require().NoError(s.store.Insert(s.ctx, other))

	total, err := s.store.CountByElection(s.ctx, s.electionID)
	s.Require().NoError(err)
	s.Equal(2, total)
}

func (s *InMemoryBallotSuite) TestInsertDuplicateID() {
	ballot := s.newBallot()
	s.Require().NoError(s.store.Insert(s.ctx, ballot))
	s.ErrorIs(s.store.Insert(s.ctx, ballot), sentinel.ErrConflict)
}

func (s *InMemoryBallotSuite) TestFailNextInsert() {
	s.store.FailNextInsert()
	s.ErrorIs(s.store.Insert(s.ctx, s.newBallot()), sentinel.ErrUnavailable)

	// One-shot: the next insert succeeds.
	s.NoError(s.store.Insert(s.ctx, s.newBallot()))
}

func (s *InMemoryBallotSuite) TestCountAll() {
	positionID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	s.Require().NoError(s.store.Insert(s.ctx, s.newBallot(models.Selection{PositionID: positionID, CandidateID: alice})))
	s.Require().NoError(s.store.Insert(s.ctx, s.newBallot(models.Selection{PositionID: positionID, CandidateID: alice})))
	s.Require().NoError(s.store.Insert(s.ctx, s.newBallot(models.Selection{PositionID: positionID, CandidateID: bob})))
	s.Require().NoError(s.store.Insert(s.ctx, s.newBallot(models.Selection{PositionID: positionID, Abstain: true})))

	ballots, counts, err := s.store.CountAll(s.ctx, s.electionID)
	s.Require().NoError(err)
	s.Equal(4, ballots)

	votes := make(map[uuid.UUID]int)
	abstains := 0
	for _, c := range counts {
		s.Equal(positionID, c.PositionID)
		if c.Abstain {
			abstains = c.Votes
			continue
		}
		votes[c.CandidateID] = c.Votes
	}
	s.Equal(2, votes[alice])
	s.Equal(1, votes[bob])
	s.Equal(1, abstains)
}

func (s *InMemoryBallotSuite) TestCountAllEmptyElection() {
	ballots, counts, err := s.store.CountAll(s.ctx, s.electionID)
	s.Require().NoError(err)
	s.Zero(ballots)
	s.Empty(counts)
}

func (s *InMemoryBallotSuite) TestConcurrentInserts() {
	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.NoError(s.store.Insert(s.ctx, s.newBallot()))
		}()
	}
	wg.Wait()

	total, err := s.store.CountByElection(s.ctx, s.electionID)
	s.Require().NoError(err)
	s.Equal(writers, total)
}

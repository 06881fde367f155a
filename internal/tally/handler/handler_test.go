package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	ballotmodels "votilio/internal/ballot/models"
	ballotStore "votilio/internal/ballot/store"
	credStore "votilio/internal/credential/store"
	electionmodels "votilio/internal/election/models"
	electionService "votilio/internal/election/service"
	electionStore "votilio/internal/election/store"
	tallyService "votilio/internal/tally/service"
	"votilio/pkg/testutil"
)

type TallyHandlerSuite struct {
	suite.Suite
	router    chi.Router
	ctx       context.Context
	elections *electionService.Service
	ballots   *ballotStore.InMemory
	election  *electionmodels.Election
}

func TestTallyHandlerSuite(t *testing.T) {
	suite.Run(t, new(TallyHandlerSuite))
}

func (s *TallyHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.ballots = ballotStore.NewInMemory()
	s.elections = electionService.New(electionStore.NewInMemory(), logger, nil)

	election, err := s.elections.Create(s.ctx, electionService.NewElectionInput{
		Name: "Board Election",
		Positions: []electionService.NewPositionInput{{
			Name:       "Chair",
			Candidates: []electionService.NewCandidateInput{{Name: "Ada"}},
		}},
	})
	s.Require().NoError(err)
	s.election = election

	svc := tallyService.New(s.ballots, credStore.NewInMemory(), s.elections, logger)
	h := New(svc, logger)

	s.router = chi.NewRouter()
	h.RegisterAdmin(s.router)
	h.RegisterPublic(s.router)
}

func (s *TallyHandlerSuite) castOne() {
	s.Require().NoError(s.ballots.Insert(s.ctx, &ballotmodels.Ballot{
		ID:         uuid.New(),
		ElectionID: s.election.ID,
		CastAt:     ballotmodels.TruncateCastTime(time.Now()),
		Selections: []ballotmodels.Selection{{
			PositionID:  s.election.Positions[0].ID,
			CandidateID: s.election.Positions[0].Candidates[0].ID,
		}},
	}))
}

func (s *TallyHandlerSuite) TestAdminResults() {
	s.castOne()

	req := testutil.NewRequest(s.T(), http.MethodGet, "/elections/"+s.election.ID.String()+"/results")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var result tallyService.Result
	testutil.DecodeJSON(s.T(), rec, &result)
	s.Equal(1, result.Turnout.Ballots)
}

func (s *TallyHandlerSuite) TestAdminResultsSeesUnpublished() {
	// The admin view ignores the publication flag entirely.
	req := testutil.NewRequest(s.T(), http.MethodGet, "/elections/"+s.election.ID.String()+"/results")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *TallyHandlerSuite) TestPublicResultsGated() {
	s.castOne()

	slug, err := s.elections.Publish(s.ctx, s.election.ID)
	s.Require().NoError(err)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/results/"+slug)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var result tallyService.Result
	testutil.DecodeJSON(s.T(), rec, &result)
	s.Equal(s.election.ID, result.ElectionID)
}

func (s *TallyHandlerSuite) TestPublicResultsUnknownSlug() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/results/no-such-slug")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *TallyHandlerSuite) TestAdminResultsInvalidID() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/elections/nope/results")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusBadRequest, rec.Code)
}

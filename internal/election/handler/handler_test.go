package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"votilio/internal/election/models"
	electionService "votilio/internal/election/service"
	electionStore "votilio/internal/election/store"
	"votilio/pkg/testutil"
)

type ElectionHandlerSuite struct {
	suite.Suite
	router chi.Router
}

func TestElectionHandlerSuite(t *testing.T) {
	suite.Run(t, new(ElectionHandlerSuite))
}

func (s *ElectionHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := electionService.New(electionStore.NewInMemory(), logger, nil)

	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func (s *ElectionHandlerSuite) create(req CreateRequest) (*httptest.ResponseRecorder, models.Election) {
	httpReq := testutil.NewJSONRequest(s.T(), http.MethodPost, "/elections", req)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httpReq)

	var election models.Election
	if rec.Code == http.StatusCreated {
		testutil.DecodeJSON(s.T(), rec, &election)
	}
	return rec, election
}

func (s *ElectionHandlerSuite) validRequest() CreateRequest {
	return CreateRequest{
		Name: "Board Election",
		Positions: []PositionRequest{{
			Name:       "Chair",
			Required:   true,
			Candidates: []CandidateRequest{{Name: "Ada"}, {Name: "Grace"}},
		}},
	}
}

func (s *ElectionHandlerSuite) TestCreate() {
	rec, election := s.create(s.validRequest())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	s.NotEqual(uuid.Nil, election.ID)
	s.Equal("Board Election", election.Name)
	s.Require().Len(election.Positions, 1)
	s.Len(election.Positions[0].Candidates, 2)
	s.True(election.Positions[0].Required)
}

func (s *ElectionHandlerSuite) TestCreateValidation() {
	s.Run("missing name", func() {
		req := s.validRequest()
		req.Name = ""
		rec, _ := s.create(req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("no positions", func() {
		req := s.validRequest()
		req.Positions = nil
		rec, _ := s.create(req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("position without candidates", func() {
		req := s.validRequest()
		req.Positions[0].Candidates = nil
		rec, _ := s.create(req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ElectionHandlerSuite) TestGet() {
	_, created := s.create(s.validRequest())

	req := testutil.NewRequest(s.T(), http.MethodGet, "/elections/"+created.ID.String())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var got models.Election
	testutil.DecodeJSON(s.T(), rec, &got)
	s.Equal(created.ID, got.ID)
}

func (s *ElectionHandlerSuite) TestGetUnknown() {
	req := testutil.NewRequest(s.T(), http.MethodGet, "/elections/"+uuid.NewString())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *ElectionHandlerSuite) TestList() {
	s.create(s.validRequest())
	other := s.validRequest()
	other.Name = "Other Election"
	s.create(other)

	req := testutil.NewRequest(s.T(), http.MethodGet, "/elections")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var elections []models.Election
	testutil.DecodeJSON(s.T(), rec, &elections)
	s.Len(elections, 2)
}

func (s *ElectionHandlerSuite) TestPublish() {
	_, created := s.create(s.validRequest())

	req := testutil.NewRequest(s.T(), http.MethodPost, "/elections/"+created.ID.String()+"/publish")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code)

	var resp PublishResponse
	testutil.DecodeJSON(s.T(), rec, &resp)
	s.Equal("board-election", resp.Slug)

	// Idempotent: publishing again returns the same slug.
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, testutil.NewRequest(s.T(), http.MethodPost, "/elections/"+created.ID.String()+"/publish"))
	s.Require().Equal(http.StatusOK, rec.Code)
	testutil.DecodeJSON(s.T(), rec, &resp)
	s.Equal("board-election", resp.Slug)
}

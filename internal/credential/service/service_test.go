package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"votilio/internal/credential/digest"
	"votilio/internal/credential/generator"
	"votilio/internal/credential/models"
	credStore "votilio/internal/credential/store"
	electionService "votilio/internal/election/service"
	electionStore "votilio/internal/election/store"
	dErrors "votilio/pkg/domain-errors"
)

func nowUTC() time.Time { return time.Now().UTC() }

type CredentialServiceSuite struct {
	suite.Suite
	store      *credStore.InMemory
	keyer      *digest.Keyer
	service    *Service
	ctx        context.Context
	electionID uuid.UUID
}

func TestCredentialServiceSuite(t *testing.T) {
	suite.Run(t, new(CredentialServiceSuite))
}

func (s *CredentialServiceSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.ctx = context.Background()
	s.store = credStore.NewInMemory()
	s.keyer = digest.NewKeyer("test-secret")

	elections := electionService.New(electionStore.NewInMemory(), logger, nil)
	election, err := elections.Create(s.ctx, electionService.NewElectionInput{
		Name: "Board Election",
		Positions: []electionService.NewPositionInput{{
			Name:       "Chair",
			Candidates: []electionService.NewCandidateInput{{Name: "Ada"}},
		}},
	})
	s.Require().NoError(err)
	s.electionID = election.ID

	s.service = New(s.store, elections, s.keyer, generator.New(6), logger, nil, nil)
}

func (s *CredentialServiceSuite) TestIssueAnonymousBatch() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: 5})
	s.Require().NoError(err)
	s.Len(issued, 5)

	seen := make(map[string]bool)
	for _, cred := range issued {
		s.Len(cred.Code, 6)
		s.False(seen[cred.Code], "codes must be unique within a batch")
		seen[cred.Code] = true

		stored, err := s.store.Lookup(s.ctx, s.keyer.Digest(s.electionID, cred.Code))
		s.Require().NoError(err)
		s.Equal(models.StatusUnused, stored.Status)
		s.Empty(stored.InviteeName)
	}

	counts, err := s.store.CountByElection(s.ctx, s.electionID)
	s.Require().NoError(err)
	s.Equal(5, counts.Unused)
}

func (s *CredentialServiceSuite) TestIssueLabeled() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{
		Invitees: []InviteeInput{
			{Name: "Grace Hopper", Email: "GRACE@Example.org"},
			{Email: "ada.lovelace@example.org"},
		},
	})
	s.Require().NoError(err)
	s.Require().Len(issued, 2)

	s.Equal("Grace Hopper", issued[0].InviteeName)
	s.Equal("grace@example.org", issued[0].InviteeEmail)

	// Label derived from the address when the roster had no name.
	s.Equal("Ada Lovelace", issued[1].InviteeName)

	stored, err := s.store.Lookup(s.ctx, s.keyer.Digest(s.electionID, issued[0].Code))
	s.Require().NoError(err)
	s.Equal("Grace Hopper", stored.InviteeName)
}

func (s *CredentialServiceSuite) TestIssueManualCodes() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{
		Codes: []string{"135790", "24-68 02"},
	})
	s.Require().NoError(err)
	s.Require().Len(issued, 2)
	s.Equal("135790", issued[0].Code)
	s.Equal("246802", issued[1].Code)

	stored, err := s.store.Lookup(s.ctx, s.keyer.Digest(s.electionID, "246802"))
	s.Require().NoError(err)
	s.Equal(models.StatusUnused, stored.Status)
}

func (s *CredentialServiceSuite) TestIssueManualCodeErrors() {
	s.Run("malformed code", func() {
		_, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Codes: []string{"abc"}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate of an issued code", func() {
		_, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Codes: []string{"111222"}})
		s.Require().NoError(err)

		_, err = s.service.Issue(s.ctx, s.electionID, IssueInput{Codes: []string{"111222"}})
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *CredentialServiceSuite) TestIssueValidation() {
	s.Run("empty batch", func() {
		_, err := s.service.Issue(s.ctx, s.electionID, IssueInput{})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("negative count", func() {
		_, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: -3, Invitees: []InviteeInput{{Name: "X"}}})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("bad invitee email", func() {
		_, err := s.service.Issue(s.ctx, s.electionID, IssueInput{
			Invitees: []InviteeInput{{Email: "not an address"}},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown election", func() {
		_, err := s.service.Issue(s.ctx, uuid.New(), IssueInput{Count: 1})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CredentialServiceSuite) TestIssueCapacityBound() {
	// Four digit codes give a space of 10000 and a capacity of 1000.
	small := New(s.store, s.service.elections, s.keyer, generator.New(4),
		slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil)

	_, err := small.Issue(s.ctx, s.electionID, IssueInput{Count: 1001})
	s.True(dErrors.HasCode(err, dErrors.CodeCapacityExceeded))

	// A refused batch issues nothing.
	counts, cerr := s.store.CountByElection(s.ctx, s.electionID)
	s.Require().NoError(cerr)
	s.Equal(0, counts.Total)
}

func (s *CredentialServiceSuite) TestRevoke() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: 1})
	s.Require().NoError(err)
	code := issued[0].Code

	s.Require().NoError(s.service.Revoke(s.ctx, s.electionID, code))

	stored, err := s.store.Lookup(s.ctx, s.keyer.Digest(s.electionID, code))
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, stored.Status)

	// Idempotent.
	s.NoError(s.service.Revoke(s.ctx, s.electionID, code))
}

func (s *CredentialServiceSuite) TestRevokeNormalizesCode() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: 1})
	s.Require().NoError(err)
	code := issued[0].Code

	spaced := " " + code[:3] + "-" + code[3:] + " "
	s.NoError(s.service.Revoke(s.ctx, s.electionID, spaced))
}

func (s *CredentialServiceSuite) TestRevokeByDigest() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: 1})
	s.Require().NoError(err)
	d := s.keyer.Digest(s.electionID, issued[0].Code)

	s.Require().NoError(s.service.Revoke(s.ctx, s.electionID, d))

	stored, err := s.store.Lookup(s.ctx, d)
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, stored.Status)
}

func (s *CredentialServiceSuite) TestRevokeErrors() {
	s.Run("malformed code", func() {
		err := s.service.Revoke(s.ctx, s.electionID, "abc")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown code", func() {
		err := s.service.Revoke(s.ctx, s.electionID, "000000")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("redeemed credential", func() {
		issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: 1})
		s.Require().NoError(err)
		code := issued[0].Code

		d := s.keyer.Digest(s.electionID, code)
		s.Require().NoError(s.store.TryRedeem(s.ctx, d, nowUTC()))

		err = s.service.Revoke(s.ctx, s.electionID, code)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})
}

func (s *CredentialServiceSuite) TestStats() {
	issued, err := s.service.Issue(s.ctx, s.electionID, IssueInput{Count: 3})
	s.Require().NoError(err)
	s.Require().NoError(s.service.Revoke(s.ctx, s.electionID, issued[0].Code))
	s.Require().NoError(s.store.TryRedeem(s.ctx, s.keyer.Digest(s.electionID, issued[1].Code), nowUTC()))

	counts, err := s.service.Stats(s.ctx, s.electionID)
	s.Require().NoError(err)
	s.Equal(credStore.Counts{Total: 3, Unused: 1, Redeemed: 1, Revoked: 1}, counts)
}

func (s *CredentialServiceSuite) TestStatsUnknownElection() {
	_, err := s.service.Stats(s.ctx, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

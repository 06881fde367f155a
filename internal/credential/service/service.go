package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"votilio/internal/credential/digest"
	"votilio/internal/credential/generator"
	"votilio/internal/credential/metrics"
	"votilio/internal/credential/models"
	"votilio/internal/credential/store"
	electionmodels "votilio/internal/election/models"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/email"
	"votilio/pkg/platform/audit"
	"votilio/pkg/platform/sentinel"
	"votilio/pkg/requestcontext"
)

// Store is the persistence boundary for credentials.
type Store interface {
	Insert(ctx context.Context, cred *models.Credential) error
	Lookup(ctx context.Context, digest string) (*models.Credential, error)
	TryRedeem(ctx context.Context, digest string, at time.Time) error
	Revoke(ctx context.Context, digest string, at time.Time) error
	CountByElection(ctx context.Context, electionID uuid.UUID) (store.Counts, error)
}

// Elections is the slice of the election module the credential service
// needs: existence checks before issuing against an election.
type Elections interface {
	Get(ctx context.Context, electionID uuid.UUID) (*electionmodels.Election, error)
}

// Service issues and revokes voting credentials. Plaintext codes exist only
// inside Issue calls; everything at rest and in logs is the keyed digest.
type Service struct {
	credentials Store
	elections   Elections
	keyer       *digest.Keyer
	generator   *generator.Generator
	logger      *slog.Logger
	metrics     *metrics.Metrics
	recorder    *audit.Recorder
}

// New creates a credential service.
func New(credentials Store, elections Elections, keyer *digest.Keyer, gen *generator.Generator,
	logger *slog.Logger, m *metrics.Metrics, recorder *audit.Recorder) *Service {
	return &Service{
		credentials: credentials,
		elections:   elections,
		keyer:       keyer,
		generator:   gen,
		logger:      logger,
		metrics:     m,
		recorder:    recorder,
	}
}

// InviteeInput labels one credential with who it was handed to. The label
// lives on the credential row only; ballots never see it.
type InviteeInput struct {
	Name  string
	Email string
}

// IssueInput describes one issuance batch. Count asks for anonymous
// generated credentials; Invitees asks for one labeled credential each;
// Codes carries caller-supplied codes to register as-is. Any combination
// may be set in one call.
type IssueInput struct {
	Count    int
	Invitees []InviteeInput
	Codes    []string
}

// IssuedCredential carries a fresh plaintext code out of Issue. This is
// the only time the code exists outside the caller's hands; the service
// keeps the digest.
type IssuedCredential struct {
	Code         string `json:"code"`
	InviteeName  string `json:"invitee_name,omitempty"`
	InviteeEmail string `json:"invitee_email,omitempty"`
}

// Issue creates a batch of UNUSED credentials for an election. The batch
// is refused outright when it would push the election past the code space
// capacity bound; a refused batch issues nothing.
func (s *Service) Issue(ctx context.Context, electionID uuid.UUID, input IssueInput) ([]IssuedCredential, error) {
	total := input.Count + len(input.Invitees) + len(input.Codes)
	if total < 1 {
		return nil, dErrors.New(dErrors.CodeValidation, "issuance batch is empty")
	}
	if input.Count < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "credential count must not be negative")
	}
	for _, code := range input.Codes {
		if !s.generator.ValidFormat(digest.Normalize(code)) {
			return nil, dErrors.New(dErrors.CodeValidation, "malformed credential code")
		}
	}

	if _, err := s.elections.Get(ctx, electionID); err != nil {
		return nil, err
	}

	counts, err := s.credentials.CountByElection(ctx, electionID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}
	if int64(counts.Total+total) > s.generator.Capacity() {
		s.metrics.IncrementCapacityRejection()
		return nil, dErrors.New(dErrors.CodeCapacityExceeded, "election exceeds credential capacity")
	}

	invitees := make([]InviteeInput, 0, total)
	for _, inv := range input.Invitees {
		inv.Email = email.Normalize(inv.Email)
		if inv.Email != "" && !email.Valid(inv.Email) {
			return nil, dErrors.New(dErrors.CodeValidation, "invalid invitee email: "+inv.Email)
		}
		inv.Name = strings.TrimSpace(inv.Name)
		if inv.Name == "" && inv.Email != "" {
			inv.Name = email.DisplayName(inv.Email)
		}
		invitees = append(invitees, inv)
	}
	for i := 0; i < input.Count; i++ {
		invitees = append(invitees, InviteeInput{})
	}

	now := requestcontext.Now(ctx)
	issued := make([]IssuedCredential, 0, total)
	for _, inv := range invitees {
		code, err := s.issueOne(ctx, electionID, inv, now)
		if err != nil {
			return nil, err
		}
		issued = append(issued, IssuedCredential{
			Code:         code,
			InviteeName:  inv.Name,
			InviteeEmail: inv.Email,
		})
	}

	// Caller-supplied codes are registered as-is; a collision with an
	// existing credential is the caller's mistake, not a retry case.
	for _, code := range input.Codes {
		err := s.credentials.Insert(ctx, &models.Credential{
			Digest:     s.keyer.Digest(electionID, code),
			ElectionID: electionID,
			Status:     models.StatusUnused,
			IssuedAt:   now,
		})
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "code already issued for this election")
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
		}
		issued = append(issued, IssuedCredential{Code: digest.Normalize(code)})
	}

	s.metrics.IncrementIssued("labeled", len(input.Invitees))
	s.metrics.IncrementIssued("anonymous", input.Count)
	s.metrics.IncrementIssued("manual", len(input.Codes))
	s.recorder.Record(ctx, audit.Event{
		Action:     audit.EventCredentialsIssued,
		ElectionID: electionID,
		Count:      total,
	})
	s.logger.InfoContext(ctx, "credentials issued",
		"election_id", electionID,
		"count", total,
	)
	return issued, nil
}

// issueOne draws codes until one's digest is free, within the retry budget.
func (s *Service) issueOne(ctx context.Context, electionID uuid.UUID, inv InviteeInput, now time.Time) (string, error) {
	for attempt := 0; attempt <= s.generator.Retries(); attempt++ {
		code, err := s.generator.Code()
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
		}
		err = s.credentials.Insert(ctx, &models.Credential{
			Digest:       s.keyer.Digest(electionID, code),
			ElectionID:   electionID,
			Status:       models.StatusUnused,
			InviteeName:  inv.Name,
			InviteeEmail: inv.Email,
			IssuedAt:     now,
		})
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementCollision()
			continue
		}
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
		}
		return code, nil
	}
	s.metrics.IncrementCapacityRejection()
	return "", dErrors.New(dErrors.CodeCapacityExceeded, "code space too crowded, retry budget exhausted")
}

// Revoke invalidates a credential. The admin may hold either the plaintext
// code or the stored digest; both are accepted. Revoking an already revoked
// credential succeeds; a redeemed credential cannot be revoked because its
// ballot is already in the box.
func (s *Service) Revoke(ctx context.Context, electionID uuid.UUID, codeOrDigest string) error {
	var d string
	switch {
	case len(codeOrDigest) == digest.Size:
		d = codeOrDigest
	case s.generator.ValidFormat(digest.Normalize(codeOrDigest)):
		d = s.keyer.Digest(electionID, codeOrDigest)
	default:
		return dErrors.New(dErrors.CodeValidation, "malformed credential code")
	}
	err := s.credentials.Revoke(ctx, d, requestcontext.Now(ctx))
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "credential not found")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeConflict, "credential already redeemed")
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke credential")
	}

	s.metrics.IncrementRevoked()
	s.recorder.Record(ctx, audit.Event{
		Action:     audit.EventCredentialRevoked,
		ElectionID: electionID,
		Count:      1,
	})
	return nil
}

// Stats returns credential status totals for an election. This feeds the
// admin dashboard and the turnout figures on published results.
func (s *Service) Stats(ctx context.Context, electionID uuid.UUID) (store.Counts, error) {
	if _, err := s.elections.Get(ctx, electionID); err != nil {
		return store.Counts{}, err
	}
	counts, err := s.credentials.CountByElection(ctx, electionID)
	if err != nil {
		return store.Counts{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}
	return counts, nil
}

// Package service implements the cast path: one credential in, at most one
// anonymous ballot out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	ballotmodels "votilio/internal/ballot/models"
	"votilio/internal/credential/digest"
	"votilio/internal/credential/generator"
	electionmodels "votilio/internal/election/models"
	"votilio/internal/redemption/metrics"
	"votilio/internal/redemption/models"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/platform/audit"
	"votilio/pkg/platform/sentinel"
	"votilio/pkg/requestcontext"
)

// Credentials is the slice of the credential store the cast path needs.
type Credentials interface {
	TryRedeem(ctx context.Context, digest string, at time.Time) error
}

// Ballots is the write side of the ballot box.
type Ballots interface {
	Insert(ctx context.Context, ballot *ballotmodels.Ballot) error
}

// Elections serves immutable election snapshots.
type Elections interface {
	Get(ctx context.Context, electionID uuid.UUID) (*electionmodels.Election, error)
}

// Service coordinates credential redemption and ballot storage.
type Service struct {
	credentials Credentials
	ballots     Ballots
	elections   Elections
	keyer       *digest.Keyer
	generator   *generator.Generator
	logger      *slog.Logger
	metrics     *metrics.Metrics
	recorder    *audit.Recorder
	tracer      trace.Tracer
}

// New creates the redemption coordinator.
func New(credentials Credentials, ballots Ballots, elections Elections,
	keyer *digest.Keyer, gen *generator.Generator,
	logger *slog.Logger, m *metrics.Metrics, recorder *audit.Recorder) *Service {
	return &Service{
		credentials: credentials,
		ballots:     ballots,
		elections:   elections,
		keyer:       keyer,
		generator:   gen,
		logger:      logger,
		metrics:     m,
		recorder:    recorder,
		tracer:      otel.Tracer("votilio/redemption"),
	}
}

// CastInput is one submitted vote: the plaintext code and the selections.
type CastInput struct {
	ElectionID uuid.UUID
	Code       string
	Selections []ballotmodels.Selection
}

// Receipt confirms an accepted ballot. The ballot ID is not linkable to
// the credential; handing it to the voter leaks nothing.
type Receipt struct {
	BallotID uuid.UUID `json:"ballot_id"`
	CastAt   time.Time `json:"cast_at"`
}

// Cast validates the ballot, consumes the credential, and stores the
// ballot, in that order. The ordering carries the privacy and fairness
// guarantees:
//
//   - A ballot that fails validation is rejected before the credential is
//     touched, so the voter can correct it and resubmit.
//   - The credential transition is atomic; when the same code races itself
//     only one cast proceeds past redemption.
//   - A ballot write failure after redemption leaves the credential
//     consumed. Rolling it back would open a double-vote window, so the
//     event is flagged for reconciliation instead.
func (s *Service) Cast(ctx context.Context, input CastInput) (*Receipt, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "redemption.Cast",
		trace.WithAttributes(attribute.String("election_id", input.ElectionID.String())))
	defer span.End()
	defer func() {
		s.metrics.ObserveCastLatency(time.Since(start))
	}()

	election, err := s.elections.Get(ctx, input.ElectionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, s.reject(ctx, span, input.ElectionID, models.ReasonUnknownElection,
				dErrors.New(dErrors.CodeNotFound, "election not found"))
		}
		return nil, err
	}

	now := requestcontext.Now(ctx)
	if !election.IsOpen(now) {
		return nil, s.reject(ctx, span, election.ID, models.ReasonElectionClosed,
			dErrors.New(dErrors.CodeForbidden, "election is not open for voting"))
	}

	if err := validateSelections(election, input.Selections); err != nil {
		return nil, s.reject(ctx, span, election.ID, models.ReasonMalformedBallot,
			dErrors.Wrap(err, dErrors.CodeValidation, "malformed ballot"))
	}

	// A structurally impossible code gets the same answer as an unknown
	// one; the response never narrows the search space.
	code := digest.Normalize(input.Code)
	if !s.generator.ValidFormat(code) {
		return nil, s.reject(ctx, span, election.ID, models.ReasonInvalidCredential, rejectedErr())
	}

	err = s.credentials.TryRedeem(ctx, s.keyer.Digest(election.ID, code), now)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, s.reject(ctx, span, election.ID, models.ReasonInvalidCredential, rejectedErr())
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return nil, s.reject(ctx, span, election.ID, models.ReasonAlreadyUsed, rejectedErr())
	case errors.Is(err, sentinel.ErrRevoked):
		return nil, s.reject(ctx, span, election.ID, models.ReasonRevoked, rejectedErr())
	case err != nil:
		span.SetStatus(codes.Error, "redeem failed")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to redeem credential")
	}

	ballot := &ballotmodels.Ballot{
		ID:         uuid.New(),
		ElectionID: election.ID,
		CastAt:     ballotmodels.TruncateCastTime(now),
		Selections: input.Selections,
	}
	if err := s.ballots.Insert(ctx, ballot); err != nil {
		// The credential is spent and stays spent. Reversing it here
		// would let a slow retry vote twice; an operator resolves the
		// stranded redemption from the audit trail instead.
		s.metrics.IncrementReconciliationRequired()
		s.recorder.Record(ctx, audit.Event{
			Action:     audit.EventReconciliationRequired,
			ElectionID: election.ID,
			Reason:     string(models.ReasonStorageFault),
		})
		s.logger.ErrorContext(ctx, "ballot write failed after redemption, reconciliation required",
			"request_id", requestcontext.RequestID(ctx),
			"election_id", election.ID,
			"error", err,
		)
		span.SetStatus(codes.Error, "ballot write failed after redemption")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "ballot could not be recorded")
	}

	s.metrics.IncrementAccepted()
	s.recorder.Record(ctx, audit.Event{
		Action:     audit.EventBallotAccepted,
		ElectionID: election.ID,
	})
	span.SetAttributes(attribute.String("ballot_id", ballot.ID.String()))
	return &Receipt{BallotID: ballot.ID, CastAt: ballot.CastAt}, nil
}

// reject records a rejection on every internal channel and returns the
// voter-facing error.
func (s *Service) reject(ctx context.Context, span trace.Span, electionID uuid.UUID, reason models.Reason, err error) error {
	s.metrics.IncrementRejected(string(reason))
	s.recorder.Record(ctx, audit.Event{
		Action:     audit.EventRedemptionRejected,
		ElectionID: electionID,
		Reason:     string(reason),
	})
	span.SetAttributes(attribute.String("reject_reason", string(reason)))
	return err
}

func rejectedErr() error {
	return dErrors.New(dErrors.CodeUnauthorized, models.RejectedMessage)
}

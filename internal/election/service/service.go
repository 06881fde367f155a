package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"votilio/internal/election/models"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/platform/audit"
	"votilio/pkg/platform/sentinel"
	"votilio/pkg/requestcontext"
)

// Store is the persistence boundary for election configuration.
type Store interface {
	Create(ctx context.Context, election *models.Election) error
	Get(ctx context.Context, electionID uuid.UUID) (*models.Election, error)
	GetBySlug(ctx context.Context, slug string) (*models.Election, error)
	List(ctx context.Context) ([]*models.Election, error)
	Publish(ctx context.Context, electionID uuid.UUID, slug string) error
}

// Service manages election configuration for the admin surface and serves
// immutable snapshots to the voting core.
type Service struct {
	elections Store
	logger    *slog.Logger
	recorder  *audit.Recorder
}

// New creates an election service.
func New(elections Store, logger *slog.Logger, recorder *audit.Recorder) *Service {
	return &Service{elections: elections, logger: logger, recorder: recorder}
}

// NewElectionInput mirrors the admin payload for election creation.
type NewElectionInput struct {
	Name        string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
	Positions   []NewPositionInput
}

// NewPositionInput describes a position to create.
type NewPositionInput struct {
	Name        string
	Description string
	Required    bool
	Candidates  []NewCandidateInput
}

// NewCandidateInput describes a candidate to create.
type NewCandidateInput struct {
	Name        string
	Description string
}

// Create validates and persists a new election configuration.
func (s *Service) Create(ctx context.Context, input NewElectionInput) (*models.Election, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "election name is required")
	}
	if len(input.Positions) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one position is required")
	}
	if input.StartTime != nil && input.EndTime != nil && !input.EndTime.After(*input.StartTime) {
		return nil, dErrors.New(dErrors.CodeValidation, "end time must be after start time")
	}

	now := requestcontext.Now(ctx)
	election := &models.Election{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: strings.TrimSpace(input.Description),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Active:      true,
		CreatedAt:   now,
	}

	for i, p := range input.Positions {
		p.Name = strings.TrimSpace(p.Name)
		if p.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "position name is required")
		}
		if len(p.Candidates) == 0 {
			return nil, dErrors.New(dErrors.CodeValidation, "position needs at least one candidate")
		}
		position := models.Position{
			ID:          uuid.New(),
			ElectionID:  election.ID,
			Name:        p.Name,
			Description: strings.TrimSpace(p.Description),
			Required:    p.Required,
			OrderIndex:  i,
		}
		for j, c := range p.Candidates {
			c.Name = strings.TrimSpace(c.Name)
			if c.Name == "" {
				return nil, dErrors.New(dErrors.CodeValidation, "candidate name is required")
			}
			position.Candidates = append(position.Candidates, models.Candidate{
				ID:          uuid.New(),
				PositionID:  position.ID,
				Name:        c.Name,
				Description: strings.TrimSpace(c.Description),
				OrderIndex:  j,
			})
		}
		election.Positions = append(election.Positions, position)
	}

	if err := s.elections.Create(ctx, election); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "election already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create election")
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.EventElectionCreated,
		ElectionID: election.ID,
		Detail:     election.Name,
	})
	return election, nil
}

// Get returns an immutable snapshot of the election configuration.
func (s *Service) Get(ctx context.Context, electionID uuid.UUID) (*models.Election, error) {
	election, err := s.elections.Get(ctx, electionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "election not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load election")
	}
	return election, nil
}

// GetBySlug resolves a public results slug to its election.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Election, error) {
	election, err := s.elections.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "results not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load election")
	}
	return election, nil
}

// List returns all elections.
func (s *Service) List(ctx context.Context) ([]*models.Election, error) {
	elections, err := s.elections.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list elections")
	}
	return elections, nil
}

// Publish enables the public results link. The flag is one-way; repeated
// publishes are idempotent. Returns the slug the results live under.
func (s *Service) Publish(ctx context.Context, electionID uuid.UUID) (string, error) {
	election, err := s.Get(ctx, electionID)
	if err != nil {
		return "", err
	}
	slug := election.ResultsSlug
	if slug == "" {
		slug = slugify(election.Name)
	}
	if err := s.elections.Publish(ctx, electionID, slug); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeNotFound, "election not found")
		}
		if errors.Is(err, sentinel.ErrConflict) {
			// Slug collision with another election; retry with a suffix.
			slug = slug + "-" + uuid.NewString()[:8]
			if err := s.elections.Publish(ctx, electionID, slug); err != nil {
				return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish results")
			}
		} else {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to publish results")
		}
	}

	s.recorder.Record(ctx, audit.Event{
		Action:     audit.EventResultsPublished,
		ElectionID: electionID,
		Detail:     slug,
	})
	return slug, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = uuid.NewString()[:8]
	}
	if len(slug) > 50 {
		slug = slug[:50]
	}
	return slug
}

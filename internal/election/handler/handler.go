package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"votilio/internal/election/models"
	"votilio/internal/election/service"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/platform/httputil"
	"votilio/pkg/requestcontext"
)

// Service defines the election operations the admin surface exposes.
type Service interface {
	Create(ctx context.Context, input service.NewElectionInput) (*models.Election, error)
	Get(ctx context.Context, electionID uuid.UUID) (*models.Election, error)
	List(ctx context.Context) ([]*models.Election, error)
	Publish(ctx context.Context, electionID uuid.UUID) (string, error)
}

// Handler wires election configuration endpoints to the election service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an election handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts election endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/elections", h.HandleCreate)
	r.Get("/elections", h.HandleList)
	r.Get("/elections/{electionID}", h.HandleGet)
	r.Post("/elections/{electionID}/publish", h.HandlePublish)
}

// CreateRequest is the admin payload for election creation.
type CreateRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	StartTime   *time.Time        `json:"start_time"`
	EndTime     *time.Time        `json:"end_time"`
	Positions   []PositionRequest `json:"positions"`
}

// PositionRequest describes one position to create.
type PositionRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Required    bool               `json:"required"`
	Candidates  []CandidateRequest `json:"candidates"`
}

// CandidateRequest describes one candidate to create.
type CandidateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HandleCreate handles POST /elections.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	input := service.NewElectionInput{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
	}
	for _, p := range req.Positions {
		position := service.NewPositionInput{
			Name:        p.Name,
			Description: p.Description,
			Required:    p.Required,
		}
		for _, c := range p.Candidates {
			position.Candidates = append(position.Candidates, service.NewCandidateInput{
				Name:        c.Name,
				Description: c.Description,
			})
		}
		input.Positions = append(input.Positions, position)
	}

	election, err := h.service.Create(ctx, input)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "election created",
		"request_id", requestcontext.RequestID(ctx),
		"election_id", election.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, election)
}

// HandleList handles GET /elections.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	elections, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, elections)
}

// HandleGet handles GET /elections/{electionID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}
	election, err := h.service.Get(r.Context(), electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, election)
}

// PublishResponse returns the public slug results are reachable under.
type PublishResponse struct {
	Slug string `json:"slug"`
}

// HandlePublish handles POST /elections/{electionID}/publish.
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}
	slug, err := h.service.Publish(r.Context(), electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PublishResponse{Slug: slug})
}

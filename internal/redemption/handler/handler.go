package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	ballotmodels "votilio/internal/ballot/models"
	"votilio/internal/redemption/service"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/platform/httputil"
	"votilio/pkg/requestcontext"
)

// Service defines the cast operation.
type Service interface {
	Cast(ctx context.Context, input service.CastInput) (*service.Receipt, error)
}

// Handler wires the public voting endpoint to the redemption service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a voting handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the voting endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/elections/{electionID}/vote", h.HandleCast)
}

// CastRequest is the voter payload. The code travels in the body so it
// never lands in access logs.
type CastRequest struct {
	Code       string             `json:"code"`
	Selections []SelectionRequest `json:"selections"`
}

// SelectionRequest is one choice on the submitted ballot.
type SelectionRequest struct {
	PositionID  uuid.UUID `json:"position_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Abstain     bool      `json:"abstain"`
}

// HandleCast handles POST /elections/{electionID}/vote.
func (h *Handler) HandleCast(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}
	var req CastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	input := service.CastInput{
		ElectionID: electionID,
		Code:       req.Code,
	}
	for _, sel := range req.Selections {
		input.Selections = append(input.Selections, ballotmodels.Selection{
			PositionID:  sel.PositionID,
			CandidateID: sel.CandidateID,
			Abstain:     sel.Abstain,
		})
	}

	receipt, err := h.service.Cast(ctx, input)
	if err != nil {
		// Rejections are logged inside the service with their precise
		// reason; the response only carries the collapsed message.
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "ballot accepted",
		"request_id", requestcontext.RequestID(ctx),
		"election_id", electionID,
	)
	httputil.WriteJSON(w, http.StatusCreated, receipt)
}

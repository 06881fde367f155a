package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"votilio/internal/tally/service"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/platform/httputil"
)

// Service defines the tally operations.
type Service interface {
	Results(ctx context.Context, electionID uuid.UUID) (*service.Result, error)
	PublishedResults(ctx context.Context, slug string) (*service.Result, error)
}

// Handler serves election results. The admin route sees any election; the
// public route only sees published ones, by slug.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a tally handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterAdmin mounts the unrestricted results endpoint.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/elections/{electionID}/results", h.HandleResults)
}

// RegisterPublic mounts the publication-gated results endpoint.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/results/{slug}", h.HandlePublishedResults)
}

// HandleResults handles GET /elections/{electionID}/results.
func (h *Handler) HandleResults(w http.ResponseWriter, r *http.Request) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return
	}
	result, err := h.service.Results(r.Context(), electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandlePublishedResults handles GET /results/{slug}.
func (h *Handler) HandlePublishedResults(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.PublishedResults(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

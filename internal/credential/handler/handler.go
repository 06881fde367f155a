package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"votilio/internal/credential/service"
	"votilio/internal/credential/store"
	dErrors "votilio/pkg/domain-errors"
	"votilio/pkg/platform/httputil"
	"votilio/pkg/requestcontext"
)

// Service defines the credential operations the admin surface exposes.
type Service interface {
	Issue(ctx context.Context, electionID uuid.UUID, input service.IssueInput) ([]service.IssuedCredential, error)
	Revoke(ctx context.Context, electionID uuid.UUID, code string) error
	Stats(ctx context.Context, electionID uuid.UUID) (store.Counts, error)
}

// Handler wires credential endpoints to the credential service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a credential handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts credential endpoints on the router. All of these are
// admin operations; the admin token middleware wraps them at the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/elections/{electionID}/credentials", h.HandleIssue)
	r.Post("/elections/{electionID}/credentials/revoke", h.HandleRevoke)
	r.Get("/elections/{electionID}/credentials/stats", h.HandleStats)
}

// IssueRequest is the admin payload for one issuance batch. Codes carries
// caller-supplied codes for manual issuance.
type IssueRequest struct {
	Count    int              `json:"count"`
	Invitees []InviteeRequest `json:"invitees"`
	Codes    []string         `json:"codes"`
}

// InviteeRequest labels one requested credential.
type InviteeRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// IssueResponse returns the plaintext codes. They appear here once and are
// never retrievable again.
type IssueResponse struct {
	ElectionID  uuid.UUID                  `json:"election_id"`
	Credentials []service.IssuedCredential `json:"credentials"`
}

// HandleIssue handles POST /elections/{electionID}/credentials.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	electionID, ok := h.electionID(w, r)
	if !ok {
		return
	}
	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	input := service.IssueInput{Count: req.Count, Codes: req.Codes}
	for _, inv := range req.Invitees {
		input.Invitees = append(input.Invitees, service.InviteeInput{Name: inv.Name, Email: inv.Email})
	}

	issued, err := h.service.Issue(ctx, electionID, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential issuance failed",
			"request_id", requestcontext.RequestID(ctx),
			"election_id", electionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, IssueResponse{
		ElectionID:  electionID,
		Credentials: issued,
	})
}

// RevokeRequest carries the code or digest to revoke. It travels in the
// body, not the URL, to keep plaintext codes out of access logs.
type RevokeRequest struct {
	Code string `json:"code"`
}

// HandleRevoke handles POST /elections/{electionID}/credentials/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	electionID, ok := h.electionID(w, r)
	if !ok {
		return
	}
	var req RevokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	if err := h.service.Revoke(ctx, electionID, req.Code); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStats handles GET /elections/{electionID}/credentials/stats.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	electionID, ok := h.electionID(w, r)
	if !ok {
		return
	}
	counts, err := h.service.Stats(ctx, electionID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) electionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	electionID, err := uuid.Parse(chi.URLParam(r, "electionID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid election id"))
		return uuid.Nil, false
	}
	return electionID, true
}

// Package handler exposes the invitation, campaign, and signup HTTP
// endpoints.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casaflow/casaflow-backend/internal/invitation/service"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/httputil"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// InvitationHandler handles invitation endpoints
type InvitationHandler struct {
	issuer *service.IssuerService
	logger *logger.Logger
}

// NewInvitationHandler creates a new invitation handler
func NewInvitationHandler(issuer *service.IssuerService, log *logger.Logger) *InvitationHandler {
	return &InvitationHandler{
		issuer: issuer,
		logger: log,
	}
}

// Create issues a single invitation
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateInvitationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	response, err := h.issuer.CreateInvitation(r.Context(), caller.FromContext(r.Context()), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, response)
}

// GetByToken returns the landing-page view of an invitation (public)
func (h *InvitationHandler) GetByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	orgHint := r.URL.Query().Get("organization")

	info, err := h.issuer.GetPublicInfo(r.Context(), token, orgHint)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, info)
}

// Revoke withdraws a pending invitation
func (h *InvitationHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	orgHint := r.URL.Query().Get("organization")

	if err := h.issuer.RevokeInvitation(r.Context(), caller.FromContext(r.Context()), token, orgHint); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

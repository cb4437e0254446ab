package handler

import (
	"net/http"

	"github.com/casaflow/casaflow-backend/internal/invitation/service"
	"github.com/casaflow/casaflow-backend/pkg/httputil"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// SignupHandler handles the public invitation redemption endpoint
type SignupHandler struct {
	service *service.SignupService
	logger  *logger.Logger
}

// NewSignupHandler creates a new signup handler
func NewSignupHandler(svc *service.SignupService, log *logger.Logger) *SignupHandler {
	return &SignupHandler{
		service: svc,
		logger:  log,
	}
}

// SignUpWithInvitation redeems an invitation into an account
func (h *SignupHandler) SignUpWithInvitation(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	response, err := h.service.SignUpWithInvitation(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, response)
}

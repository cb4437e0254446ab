// Package handler exposes the staff management endpoints.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casaflow/casaflow-backend/internal/staff/service"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/httputil"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// StaffHandler handles property manager endpoints
type StaffHandler struct {
	service *service.StaffService
	logger  *logger.Logger
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(svc *service.StaffService, log *logger.Logger) *StaffHandler {
	return &StaffHandler{
		service: svc,
		logger:  log,
	}
}

// Create provisions a property manager
func (h *StaffHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreatePropertyManagerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	pm, err := h.service.CreatePropertyManager(r.Context(), caller.FromContext(r.Context()), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, pm)
}

// Get fetches one property manager
func (h *StaffHandler) Get(w http.ResponseWriter, r *http.Request) {
	pm, err := h.service.GetPropertyManager(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"), chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, pm)
}

// List lists an organization's property managers
func (h *StaffHandler) List(w http.ResponseWriter, r *http.Request) {
	managers, err := h.service.ListPropertyManagers(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, managers)
}

// Update changes a property manager's display name and status
func (h *StaffHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.UpdatePropertyManagerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	err := h.service.UpdatePropertyManager(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"), chi.URLParam(r, "accountID"), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Delete disables and removes a property manager
func (h *StaffHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeletePropertyManager(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"), chi.URLParam(r, "accountID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

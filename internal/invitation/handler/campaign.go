package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casaflow/casaflow-backend/internal/invitation/service"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/httputil"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// CampaignHandler handles campaign management endpoints
type CampaignHandler struct {
	service *service.CampaignService
	logger  *logger.Logger
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(svc *service.CampaignService, log *logger.Logger) *CampaignHandler {
	return &CampaignHandler{
		service: svc,
		logger:  log,
	}
}

// Create creates a campaign
func (h *CampaignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateCampaignRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(&req); err != nil {
		httputil.Error(w, err)
		return
	}

	response, err := h.service.CreateCampaign(r.Context(), caller.FromContext(r.Context()), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, response)
}

// Get fetches one campaign
func (h *CampaignHandler) Get(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.service.GetCampaign(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"), chi.URLParam(r, "propertyID"), chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, campaign)
}

// List lists a property's campaigns
func (h *CampaignHandler) List(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.service.ListCampaigns(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"), chi.URLParam(r, "propertyID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, campaigns)
}

// Deactivate takes an active campaign offline
func (h *CampaignHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DeactivateCampaign)
}

// Reactivate brings an inactive campaign back online
func (h *CampaignHandler) Reactivate(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.ReactivateCampaign)
}

// Delete removes an inactive campaign
func (h *CampaignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.DeleteCampaign)
}

type campaignMutation func(ctx context.Context, c *caller.Caller, organizationID, propertyID, id string) error

func (h *CampaignHandler) mutate(w http.ResponseWriter, r *http.Request, fn campaignMutation) {
	err := fn(r.Context(), caller.FromContext(r.Context()),
		chi.URLParam(r, "organizationID"), chi.URLParam(r, "propertyID"), chi.URLParam(r, "campaignID"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

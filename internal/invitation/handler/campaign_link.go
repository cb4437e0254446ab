package handler

import (
	"net/http"

	"github.com/casaflow/casaflow-backend/internal/invitation/service"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// CampaignLinkHandler serves the public campaign signup link. It is the
// only handler that answers with bare HTTP statuses: a browser follows
// the redirect, and failures must not leak internals to an anonymous
// visitor.
type CampaignLinkHandler struct {
	service *service.CampaignService
	logger  *logger.Logger
}

// NewCampaignLinkHandler creates a new campaign link handler
func NewCampaignLinkHandler(svc *service.CampaignService, log *logger.Logger) *CampaignLinkHandler {
	return &CampaignLinkHandler{
		service: svc,
		logger:  log,
	}
}

// Redirect validates the campaign and sends the visitor to the signup
// landing page with a freshly minted invitation.
func (h *CampaignLinkHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	campaignID := r.URL.Query().Get("campaign")
	if campaignID == "" {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	redirect, err := h.service.RedeemCampaignLink(r.Context(), campaignID)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, errors.ErrFailedPrecondition):
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			h.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("campaign link redemption failed")
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}

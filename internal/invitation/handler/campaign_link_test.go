package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/internal/invitation/handler"
	"github.com/casaflow/casaflow-backend/internal/invitation/service"
	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// Stubs covering only what the public link path touches; everything else
// panics loudly if reached.

type stubCampaigns struct {
	active        *domain.Campaign
	activeErr     error
	statusUpdates []domain.CampaignStatus
}

func (s *stubCampaigns) Create(context.Context, *domain.Campaign) error { panic("unexpected") }
func (s *stubCampaigns) GetByID(context.Context, string, string, string) (*domain.Campaign, error) {
	panic("unexpected")
}
func (s *stubCampaigns) GetActiveByID(_ context.Context, id string) (*domain.Campaign, error) {
	if s.activeErr != nil {
		return nil, s.activeErr
	}
	if s.active == nil || s.active.ID != id {
		return nil, errors.NotFound("campaign")
	}
	return s.active, nil
}
func (s *stubCampaigns) ListByProperty(context.Context, string, string) ([]*domain.Campaign, error) {
	panic("unexpected")
}
func (s *stubCampaigns) UpdateStatus(_ context.Context, _ string, status domain.CampaignStatus, _ *string) error {
	s.statusUpdates = append(s.statusUpdates, status)
	return nil
}
func (s *stubCampaigns) SetAccessURL(context.Context, string, string) error { panic("unexpected") }
func (s *stubCampaigns) FinishProcessing(context.Context, string, int, domain.CampaignStatus) error {
	panic("unexpected")
}
func (s *stubCampaigns) Delete(context.Context, string) error            { panic("unexpected") }
func (s *stubCampaigns) IncrementAccepted(context.Context, string) error { panic("unexpected") }

type stubInvitations struct {
	created []*domain.Invitation
}

func (s *stubInvitations) Create(ctx context.Context, inv *domain.Invitation) error {
	return s.CreateTx(ctx, nil, inv)
}
func (s *stubInvitations) CreateTx(_ context.Context, _ sqlx.ExtContext, inv *domain.Invitation) error {
	inv.Token = "tok-fresh"
	s.created = append(s.created, inv)
	return nil
}
func (s *stubInvitations) Resolve(context.Context, string, string) (*domain.Invitation, domain.Ref, error) {
	panic("unexpected")
}
func (s *stubInvitations) GetByToken(context.Context, string) (*domain.Invitation, error) {
	panic("unexpected")
}
func (s *stubInvitations) MarkAccepted(context.Context, domain.Ref, string) error {
	panic("unexpected")
}
func (s *stubInvitations) MarkRevoked(context.Context, domain.Ref) error { panic("unexpected") }

type stubDirectory struct{}

func (stubDirectory) GetOrganization(context.Context, string) (*domain.Organization, error) {
	panic("unexpected")
}
func (stubDirectory) GetProperty(context.Context, string, string) (*domain.Property, error) {
	panic("unexpected")
}
func (stubDirectory) CreateOrganizationUser(context.Context, sqlx.ExtContext, *domain.OrganizationUser) error {
	panic("unexpected")
}
func (stubDirectory) CreateResident(context.Context, sqlx.ExtContext, *domain.Resident) error {
	panic("unexpected")
}

type stubMail struct{}

func (stubMail) Enqueue(context.Context, sqlx.ExtContext, *domain.MailMessage) error {
	panic("unexpected")
}

type stubRoster struct{}

func (stubRoster) Download(context.Context, string) ([]byte, error) { panic("unexpected") }
func (stubRoster) MoveToProcessed(context.Context, string)          {}
func (stubRoster) MoveToFailed(context.Context, string)             {}

type stubEvents struct{}

func (stubEvents) PublishInvitationCreated(context.Context, *domain.Invitation)            {}
func (stubEvents) PublishInvitationAccepted(context.Context, *domain.Invitation, string)   {}
func (stubEvents) PublishInvitationRevoked(context.Context, string)                        {}
func (stubEvents) PublishCampaignCreated(context.Context, *domain.Campaign)                {}
func (stubEvents) PublishCampaignStatus(context.Context, string, domain.CampaignStatus, string) {}

type stubTx struct{}

func (stubTx) Transaction(_ context.Context, fn func(*sqlx.Tx) error) error { return fn(nil) }

func newLinkHandler(campaigns *stubCampaigns) *handler.CampaignLinkHandler {
	log := logger.New("test", "test")
	links := &config.LinkConfig{Protocol: "https", BaseURL: "app.casaflow.test", SignupPath: "/signup"}
	svc := service.NewCampaignService(
		campaigns, &stubInvitations{}, stubDirectory{}, stubMail{}, stubRoster{},
		stubEvents{}, stubTx{}, links, log,
	)
	return handler.NewCampaignLinkHandler(svc, log)
}

func redeemRequest(campaignID string) *http.Request {
	target := "/signup/campaign"
	if campaignID != "" {
		target += "?campaign=" + campaignID
	}
	return httptest.NewRequest(http.MethodGet, target, nil)
}

func activeCampaign() *domain.Campaign {
	return &domain.Campaign{
		ID:             "camp-1",
		OrganizationID: "org1",
		PropertyID:     "propA",
		Type:           domain.CampaignTypePublicLink,
		Roles:          domain.RoleList{roles.Resident},
		Status:         domain.CampaignStatusActive,
		CreatedBy:      "mgr-1",
	}
}

func TestCampaignLinkRedirect(t *testing.T) {
	t.Run("active campaign redirects to signup", func(t *testing.T) {
		h := newLinkHandler(&stubCampaigns{active: activeCampaign()})

		rec := httptest.NewRecorder()
		h.Redirect(rec, redeemRequest("camp-1"))

		require.Equal(t, http.StatusFound, rec.Code)
		loc, err := url.Parse(rec.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "/signup", loc.Path)
		assert.Equal(t, "tok-fresh", loc.Query().Get("invitation"))
		assert.Equal(t, "camp-1", loc.Query().Get("campaign"))
		assert.Equal(t, "org1", loc.Query().Get("organization"))
	})

	t.Run("missing campaign parameter", func(t *testing.T) {
		h := newLinkHandler(&stubCampaigns{})

		rec := httptest.NewRecorder()
		h.Redirect(rec, redeemRequest(""))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown campaign", func(t *testing.T) {
		h := newLinkHandler(&stubCampaigns{})

		rec := httptest.NewRecorder()
		h.Redirect(rec, redeemRequest("camp-9"))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("expired campaign is forbidden and parked", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		c := activeCampaign()
		c.ExpiresAt = &past
		campaigns := &stubCampaigns{active: c}
		h := newLinkHandler(campaigns)

		rec := httptest.NewRecorder()
		h.Redirect(rec, redeemRequest("camp-1"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, []domain.CampaignStatus{domain.CampaignStatusExpired}, campaigns.statusUpdates)
	})

	t.Run("exhausted campaign is forbidden", func(t *testing.T) {
		maxUses := 3
		c := activeCampaign()
		c.MaxUses = &maxUses
		c.TotalAccepted = 3
		campaigns := &stubCampaigns{active: c}
		h := newLinkHandler(campaigns)

		rec := httptest.NewRecorder()
		h.Redirect(rec, redeemRequest("camp-1"))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, []domain.CampaignStatus{domain.CampaignStatusCompleted}, campaigns.statusUpdates)
	})

	t.Run("store failure stays opaque", func(t *testing.T) {
		h := newLinkHandler(&stubCampaigns{activeErr: errors.Internal("database down")})

		rec := httptest.NewRecorder()
		h.Redirect(rec, redeemRequest("camp-1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "database")
	})
}

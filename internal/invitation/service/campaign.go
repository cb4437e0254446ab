package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/internal/invitation/roster"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// CampaignService creates and manages invitation campaigns and serves
// the public signup link redemption.
type CampaignService struct {
	campaigns   campaignStore
	invitations invitationStore
	directory   directoryStore
	mail        mailStore
	files       rosterStore
	events      eventPublisher
	tx          transactor
	links       *config.LinkConfig
	logger      *logger.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(campaigns campaignStore, invitations invitationStore, directory directoryStore, mail mailStore, files rosterStore, events eventPublisher, tx transactor, links *config.LinkConfig, log *logger.Logger) *CampaignService {
	return &CampaignService{
		campaigns:   campaigns,
		invitations: invitations,
		directory:   directory,
		mail:        mail,
		files:       files,
		events:      events,
		tx:          tx,
		links:       links,
		logger:      log.WithComponent("campaign"),
	}
}

// CreateCampaignRequest is the input for creating a campaign
type CreateCampaignRequest struct {
	OrganizationID  string     `json:"organizationId" validate:"required"`
	PropertyID      string     `json:"propertyId" validate:"required"`
	CampaignName    string     `json:"campaignName" validate:"required"`
	CampaignType    string     `json:"campaignType" validate:"required,oneof=csv_import public_link"`
	RolesToAssign   []string   `json:"rolesToAssign" validate:"required,min=1"`
	MaxUses         *int       `json:"maxUses,omitempty"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	StorageFilePath string     `json:"storageFilePath,omitempty"`
	SourceFileName  string     `json:"sourceFileName,omitempty"`
}

// CreateCampaignResponse is the result of creating a campaign
type CreateCampaignResponse struct {
	CampaignID string  `json:"campaignId"`
	AccessURL  *string `json:"accessUrl,omitempty"`
}

// CreateCampaign creates a campaign. Public-link campaigns go live
// immediately with a shareable URL; CSV campaigns are processed inline
// and activate once every surviving row has an invitation.
func (s *CampaignService) CreateCampaign(ctx context.Context, c *caller.Caller, req *CreateCampaignRequest) (*CreateCampaignResponse, error) {
	if c == nil {
		return nil, errors.Unauthenticated("a verified caller identity is required")
	}
	if err := s.authorizeCampaign(c, req.OrganizationID); err != nil {
		return nil, err
	}

	roleSet, unknown := roles.ParseAll(req.RolesToAssign)
	if len(unknown) > 0 || len(roleSet) != 1 || roleSet[0] != roles.Resident {
		return nil, errors.InvalidArgument("campaigns can only assign the resident role")
	}

	campaignType := domain.CampaignType(req.CampaignType)
	if campaignType == domain.CampaignTypeCSVImport && req.StorageFilePath == "" {
		return nil, errors.InvalidArgument("storageFilePath is required for csv campaigns")
	}

	if _, err := s.directory.GetProperty(ctx, req.OrganizationID, req.PropertyID); err != nil {
		return nil, err
	}

	campaign := &domain.Campaign{
		OrganizationID: req.OrganizationID,
		PropertyID:     req.PropertyID,
		Name:           req.CampaignName,
		Type:           campaignType,
		Roles:          roleSet,
		MaxUses:        req.MaxUses,
		ExpiresAt:      req.ExpiresAt,
		Status:         domain.CampaignStatusProcessing,
		CreatedBy:      c.ID,
	}
	if campaignType == domain.CampaignTypePublicLink {
		campaign.Status = domain.CampaignStatusActive
	}
	if req.StorageFilePath != "" {
		campaign.StorageFilePath = &req.StorageFilePath
	}
	if req.SourceFileName != "" {
		campaign.SourceFileName = &req.SourceFileName
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}
	s.events.PublishCampaignCreated(ctx, campaign)

	if campaignType == domain.CampaignTypePublicLink {
		accessURL := s.links.CampaignURL(campaign.ID)
		if err := s.campaigns.SetAccessURL(ctx, campaign.ID, accessURL); err != nil {
			return nil, err
		}
		campaign.AccessURL = &accessURL
		return &CreateCampaignResponse{CampaignID: campaign.ID, AccessURL: &accessURL}, nil
	}

	if err := s.processRoster(ctx, c, campaign); err != nil {
		return nil, err
	}

	return &CreateCampaignResponse{CampaignID: campaign.ID}, nil
}

// authorizeCampaign allows admins and callers bound to the campaign's
// organization; property-level ownership is not checked further.
func (s *CampaignService) authorizeCampaign(c *caller.Caller, organizationID string) error {
	if c.IsAdmin() {
		return nil
	}
	if !c.ManagesOrganization(organizationID) {
		return errors.PermissionDenied("caller is not bound to this organization")
	}
	if !c.HasRole(roles.OrganizationManager) && !c.HasRole(roles.PropertyManager) {
		return errors.PermissionDenied("caller role cannot manage campaigns")
	}
	return nil
}

// processRoster runs the CSV pipeline for a campaign: download, parse,
// one invitation and one mail record per surviving row written in a
// single transaction, then activation and the file move. Bad rows are
// skipped by the parser; only a systemic failure marks the campaign
// failed.
func (s *CampaignService) processRoster(ctx context.Context, c *caller.Caller, campaign *domain.Campaign) error {
	log := s.logger.WithCampaign(campaign.ID)

	raw, err := s.files.Download(ctx, *campaign.StorageFilePath)
	if err != nil {
		return s.failCampaign(ctx, campaign, fmt.Sprintf("roster download failed: %v", err))
	}

	scanner, err := roster.Parse(bytes.NewReader(raw), roster.InviteeFields, log)
	if err != nil {
		return s.failCampaign(ctx, campaign, fmt.Sprintf("roster header invalid: %v", err))
	}

	propertyName := s.propertyName(ctx, campaign.OrganizationID, campaign.PropertyID)
	inviterName := c.DisplayName
	if inviterName == "" {
		inviterName = c.ID
	}

	invitations, err := s.collectInvitations(scanner, c, campaign)
	if err != nil {
		return s.failCampaign(ctx, campaign, fmt.Sprintf("roster parse failed: %v", err))
	}

	if len(invitations) > 0 {
		err = s.tx.Transaction(ctx, func(tx *sqlx.Tx) error {
			for _, inv := range invitations {
				if err := s.invitations.CreateTx(ctx, tx, inv); err != nil {
					return err
				}
				msg := &domain.MailMessage{
					Recipient:    inv.Email,
					TemplateName: domain.TemplateResidentInvitation,
					TemplateData: domain.StringMap{
						"displayName":  inv.DisplayName,
						"token":        inv.Token,
						"propertyName": propertyName,
						"inviterName":  inviterName,
					},
				}
				if err := s.mail.Enqueue(ctx, tx, msg); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return s.failCampaign(ctx, campaign, fmt.Sprintf("invitation batch failed: %v", err))
		}
	}

	if err := s.campaigns.FinishProcessing(ctx, campaign.ID, len(invitations), domain.CampaignStatusActive); err != nil {
		return s.failCampaign(ctx, campaign, fmt.Sprintf("campaign activation failed: %v", err))
	}

	s.files.MoveToProcessed(ctx, *campaign.StorageFilePath)
	s.events.PublishCampaignStatus(ctx, campaign.ID, domain.CampaignStatusActive, "")
	log.Info().
		Int("invited", len(invitations)).
		Int("skipped", scanner.Skipped()).
		Msg("roster processed")
	return nil
}

// collectInvitations drains the scanner into invitation documents.
// Campaign invitations always live under the organization scope.
func (s *CampaignService) collectInvitations(scanner *roster.Scanner, c *caller.Caller, campaign *domain.Campaign) ([]*domain.Invitation, error) {
	var out []*domain.Invitation
	for {
		rec, err := scanner.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		inv := &domain.Invitation{
			Scope:           domain.ScopeOrganization,
			Email:           rec.Email(),
			DisplayName:     rec.DisplayName(),
			Roles:           campaign.Roles,
			OrganizationID:  &campaign.OrganizationID,
			OrganizationIDs: domain.StringList{campaign.OrganizationID},
			PropertyID:      &campaign.PropertyID,
			InvitedBy:       c.ID,
			InvitedByRole:   string(roles.PropertyManager),
			CampaignID:      &campaign.ID,
			Extra:           rec.Extra,
		}
		if unit := rec.UnitNumber(); unit != "" {
			if inv.Extra == nil {
				inv.Extra = domain.StringMap{}
			}
			inv.Extra["unitNumber"] = unit
		}
		out = append(out, inv)
	}
	return out, nil
}

// failCampaign records a diagnostic on the campaign, parks the source
// file, and surfaces an internal error to the caller.
func (s *CampaignService) failCampaign(ctx context.Context, campaign *domain.Campaign, detail string) error {
	s.logger.Error().Str("campaign_id", campaign.ID).Str("detail", detail).Msg("campaign processing failed")

	if err := s.campaigns.UpdateStatus(ctx, campaign.ID, domain.CampaignStatusError, &detail); err != nil {
		s.logger.Error().Err(err).Str("campaign_id", campaign.ID).Msg("failed to mark campaign failed")
	}
	if campaign.StorageFilePath != nil {
		s.files.MoveToFailed(ctx, *campaign.StorageFilePath)
	}
	s.events.PublishCampaignStatus(ctx, campaign.ID, domain.CampaignStatusError, detail)

	return errors.Internal("campaign processing failed")
}

func (s *CampaignService) propertyName(ctx context.Context, organizationID, propertyID string) string {
	prop, err := s.directory.GetProperty(ctx, organizationID, propertyID)
	if err != nil {
		s.logger.Warn().Err(err).Str("property_id", propertyID).Msg("property name lookup failed, using id")
		return propertyID
	}
	return prop.Name
}

// GetCampaign fetches one campaign for an authorized caller
func (s *CampaignService) GetCampaign(ctx context.Context, c *caller.Caller, organizationID, propertyID, id string) (*domain.Campaign, error) {
	if c == nil {
		return nil, errors.Unauthenticated("a verified caller identity is required")
	}
	if err := s.authorizeCampaign(c, organizationID); err != nil {
		return nil, err
	}
	return s.campaigns.GetByID(ctx, organizationID, propertyID, id)
}

// ListCampaigns lists a property's campaigns for an authorized caller
func (s *CampaignService) ListCampaigns(ctx context.Context, c *caller.Caller, organizationID, propertyID string) ([]*domain.Campaign, error) {
	if c == nil {
		return nil, errors.Unauthenticated("a verified caller identity is required")
	}
	if err := s.authorizeCampaign(c, organizationID); err != nil {
		return nil, err
	}
	return s.campaigns.ListByProperty(ctx, organizationID, propertyID)
}

// DeactivateCampaign takes an active campaign offline
func (s *CampaignService) DeactivateCampaign(ctx context.Context, c *caller.Caller, organizationID, propertyID, id string) error {
	return s.transition(ctx, c, organizationID, propertyID, id, domain.CampaignStatusActive, domain.CampaignStatusInactive)
}

// ReactivateCampaign brings an inactive campaign back online
func (s *CampaignService) ReactivateCampaign(ctx context.Context, c *caller.Caller, organizationID, propertyID, id string) error {
	return s.transition(ctx, c, organizationID, propertyID, id, domain.CampaignStatusInactive, domain.CampaignStatusActive)
}

func (s *CampaignService) transition(ctx context.Context, c *caller.Caller, organizationID, propertyID, id string, from, to domain.CampaignStatus) error {
	if c == nil {
		return errors.Unauthenticated("a verified caller identity is required")
	}
	if err := s.authorizeCampaign(c, organizationID); err != nil {
		return err
	}

	campaign, err := s.campaigns.GetByID(ctx, organizationID, propertyID, id)
	if err != nil {
		return err
	}
	if campaign.Status != from {
		return errors.FailedPrecondition(fmt.Sprintf("campaign is %s, expected %s", campaign.Status, from))
	}

	if err := s.campaigns.UpdateStatus(ctx, id, to, nil); err != nil {
		return err
	}
	s.events.PublishCampaignStatus(ctx, id, to, "")
	return nil
}

// DeleteCampaign removes a campaign. It must be deactivated first.
func (s *CampaignService) DeleteCampaign(ctx context.Context, c *caller.Caller, organizationID, propertyID, id string) error {
	if c == nil {
		return errors.Unauthenticated("a verified caller identity is required")
	}
	if err := s.authorizeCampaign(c, organizationID); err != nil {
		return err
	}

	campaign, err := s.campaigns.GetByID(ctx, organizationID, propertyID, id)
	if err != nil {
		return err
	}
	if campaign.Status == domain.CampaignStatusActive || campaign.Status == domain.CampaignStatusProcessing {
		return errors.FailedPrecondition("campaign must be deactivated before deletion")
	}

	return s.campaigns.Delete(ctx, id)
}

// RedeemCampaignLink validates a live campaign and mints one fresh
// pending invitation per click; the invitee's email is captured later on
// the landing page. Returns the landing page URL to redirect to.
func (s *CampaignService) RedeemCampaignLink(ctx context.Context, campaignID string) (string, error) {
	campaign, err := s.campaigns.GetActiveByID(ctx, campaignID)
	if err != nil {
		return "", err
	}

	if campaign.IsExpired() {
		if err := s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignStatusExpired, nil); err != nil {
			s.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("failed to expire campaign")
		}
		return "", errors.FailedPrecondition("campaign has expired")
	}

	if campaign.AtCap() {
		if err := s.campaigns.UpdateStatus(ctx, campaignID, domain.CampaignStatusCompleted, nil); err != nil {
			s.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("failed to complete campaign")
		}
		return "", errors.FailedPrecondition("campaign has reached its limit")
	}

	inv := &domain.Invitation{
		Scope:           domain.ScopeOrganization,
		Roles:           campaign.Roles,
		OrganizationID:  &campaign.OrganizationID,
		OrganizationIDs: domain.StringList{campaign.OrganizationID},
		PropertyID:      &campaign.PropertyID,
		InvitedBy:       campaign.CreatedBy,
		InvitedByRole:   string(roles.PropertyManager),
		CampaignID:      &campaign.ID,
	}
	if campaign.ExpiresAt != nil {
		inv.ExpiresAt = *campaign.ExpiresAt
	}

	if err := s.invitations.Create(ctx, inv); err != nil {
		return "", err
	}

	redirect := s.links.InvitationURL(inv.Token)
	redirect += "&" + url.Values{
		"campaign":     {campaign.ID},
		"organization": {campaign.OrganizationID},
	}.Encode()
	return redirect, nil
}

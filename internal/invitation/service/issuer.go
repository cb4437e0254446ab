// Package service implements invitation issuance, campaign management,
// and signup redemption.
package service

import (
	"context"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// IssuerService issues single invitations and revokes them
type IssuerService struct {
	invitations invitationStore
	directory   directoryStore
	mail        mailStore
	events      eventPublisher
	logger      *logger.Logger
}

// NewIssuerService creates a new issuer service
func NewIssuerService(invitations invitationStore, directory directoryStore, mail mailStore, events eventPublisher, log *logger.Logger) *IssuerService {
	return &IssuerService{
		invitations: invitations,
		directory:   directory,
		mail:        mail,
		events:      events,
		logger:      log.WithComponent("issuer"),
	}
}

// CreateInvitationRequest is the input for issuing a single invitation
type CreateInvitationRequest struct {
	InviteeEmail     string   `json:"inviteeEmail" validate:"required,email"`
	InviteeName      string   `json:"inviteeName" validate:"required"`
	RolesToAssign    []string `json:"rolesToAssign" validate:"required,min=1"`
	InvitedByRole    string   `json:"invitedByRole" validate:"required"`
	OrganizationIDs  []string `json:"organizationIds,omitempty"`
	TargetPropertyID string   `json:"targetPropertyId,omitempty"`
}

// CreateInvitationResponse is the result of issuing a single invitation
type CreateInvitationResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	InvitationID string `json:"invitationId"`
}

// CreateInvitation issues one invitation, persists it at its scope, and
// enqueues the matching email. Checks run strictly before any write.
func (s *IssuerService) CreateInvitation(ctx context.Context, c *caller.Caller, req *CreateInvitationRequest) (*CreateInvitationResponse, error) {
	if c == nil {
		return nil, errors.Unauthenticated("a verified caller identity is required")
	}

	roleSet, unknown := roles.ParseAll(req.RolesToAssign)
	if len(unknown) > 0 {
		return nil, errors.InvalidArgument("unknown role in rolesToAssign")
	}
	if len(roleSet) == 0 {
		return nil, errors.InvalidArgument("rolesToAssign must not be empty")
	}

	invitedByRole, ok := roles.Parse(req.InvitedByRole)
	if !ok || !c.HasRole(invitedByRole) {
		return nil, errors.PermissionDenied("caller does not hold the asserted inviter role")
	}

	isOrgManagerInvite := roles.Contains(roleSet, roles.OrganizationManager)
	if !isOrgManagerInvite && len(req.OrganizationIDs) != 1 {
		return nil, errors.InvalidArgument("exactly one organization id is required for this role set")
	}

	if err := s.authorizeInvite(ctx, c, invitedByRole, roleSet, req); err != nil {
		return nil, err
	}

	// Prove the invitation is redeemable before persisting it. The
	// redemption path mints from the same function, so a failure here
	// means the invitation could never be completed.
	var propertyID *string
	if req.TargetPropertyID != "" {
		propertyID = &req.TargetPropertyID
	}
	if _, err := domain.MintClaims(roleSet, req.OrganizationIDs, propertyID); err != nil {
		return nil, err
	}

	inv := &domain.Invitation{
		Email:         req.InviteeEmail,
		DisplayName:   req.InviteeName,
		Roles:         roleSet,
		PropertyID:    propertyID,
		InvitedBy:     c.ID,
		InvitedByRole: string(invitedByRole),
	}
	if isOrgManagerInvite {
		inv.Scope = domain.ScopeGlobal
		inv.OrganizationIDs = req.OrganizationIDs
	} else {
		inv.Scope = domain.ScopeOrganization
		inv.OrganizationID = &req.OrganizationIDs[0]
		inv.OrganizationIDs = req.OrganizationIDs
	}

	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.enqueueInvitationMail(ctx, inv); err != nil {
		return nil, err
	}

	s.events.PublishInvitationCreated(ctx, inv)
	s.logger.Info().
		Str("token", inv.Token).
		Str("invited_by", c.ID).
		Strs("roles", inv.Roles.Strings()).
		Msg("invitation created")

	return &CreateInvitationResponse{
		Success:      true,
		Message:      "invitation created",
		InvitationID: inv.Token,
	}, nil
}

// authorizeInvite enforces who may invite whom:
// admins invite anyone; property managers invite within their own
// organization and must name an existing property for resident invites;
// organization managers invite residents only, into organizations they
// are bound to. Everything else is rejected.
func (s *IssuerService) authorizeInvite(ctx context.Context, c *caller.Caller, invitedByRole roles.Role, roleSet []roles.Role, req *CreateInvitationRequest) error {
	if invitedByRole == roles.Admin {
		return nil
	}

	switch invitedByRole {
	case roles.PropertyManager:
		if roles.Contains(roleSet, roles.OrganizationManager) {
			return errors.PermissionDenied("property managers cannot invite organization managers")
		}
		if !c.ManagesOrganization(req.OrganizationIDs[0]) {
			return errors.PermissionDenied("property managers can only invite within their own organization")
		}
		if roles.Contains(roleSet, roles.Resident) {
			if req.TargetPropertyID == "" {
				return errors.InvalidArgument("targetPropertyId is required when inviting residents")
			}
			if _, err := s.directory.GetProperty(ctx, req.OrganizationIDs[0], req.TargetPropertyID); err != nil {
				return err
			}
		}
		return nil

	case roles.OrganizationManager:
		if !roles.Contains(roleSet, roles.Resident) || roles.ContainsAny(roleSet, roles.OrganizationManager, roles.PropertyManager, roles.Admin) {
			return errors.PermissionDenied("organization managers can only invite residents")
		}
		if !c.ManagesOrganization(req.OrganizationIDs[0]) {
			return errors.PermissionDenied("organization managers can only invite into organizations they manage")
		}
		if req.TargetPropertyID == "" {
			return errors.InvalidArgument("targetPropertyId is required when inviting residents")
		}
		if _, err := s.directory.GetProperty(ctx, req.OrganizationIDs[0], req.TargetPropertyID); err != nil {
			return err
		}
		return nil

	default:
		return errors.PermissionDenied("caller role cannot issue invitations")
	}
}

// enqueueInvitationMail writes exactly one templated mail record for the
// invitation. Name lookups degrade to the raw id; a missing template is
// a hard error because an invitation must never exist without an email
// attempt.
func (s *IssuerService) enqueueInvitationMail(ctx context.Context, inv *domain.Invitation) error {
	template, err := domain.TemplateForRoles(inv.Roles)
	if err != nil {
		return err
	}

	data := domain.StringMap{
		"displayName": inv.DisplayName,
		"token":       inv.Token,
	}

	if inv.OrganizationID != nil {
		data["organizationName"] = s.organizationName(ctx, *inv.OrganizationID)
	}
	if inv.PropertyID != nil && inv.OrganizationID != nil {
		data["propertyName"] = s.propertyName(ctx, *inv.OrganizationID, *inv.PropertyID)
	}

	return s.mail.Enqueue(ctx, nil, &domain.MailMessage{
		Recipient:    inv.Email,
		TemplateName: template,
		TemplateData: data,
	})
}

func (s *IssuerService) organizationName(ctx context.Context, organizationID string) string {
	org, err := s.directory.GetOrganization(ctx, organizationID)
	if err != nil {
		s.logger.Warn().Err(err).Str("organization_id", organizationID).Msg("organization name lookup failed, using id")
		return organizationID
	}
	return org.Name
}

func (s *IssuerService) propertyName(ctx context.Context, organizationID, propertyID string) string {
	prop, err := s.directory.GetProperty(ctx, organizationID, propertyID)
	if err != nil {
		s.logger.Warn().Err(err).Str("property_id", propertyID).Msg("property name lookup failed, using id")
		return propertyID
	}
	return prop.Name
}

// GetPublicInfo returns the landing-page view of an invitation
func (s *IssuerService) GetPublicInfo(ctx context.Context, token, orgHint string) (*domain.InvitationPublicInfo, error) {
	inv, _, err := s.invitations.Resolve(ctx, token, orgHint)
	if err != nil {
		return nil, err
	}
	return inv.ToPublicInfo(), nil
}

// RevokeInvitation withdraws a pending invitation. Only admins and
// callers whose scope covers the invitation's organization may revoke.
func (s *IssuerService) RevokeInvitation(ctx context.Context, c *caller.Caller, token, orgHint string) error {
	if c == nil {
		return errors.Unauthenticated("a verified caller identity is required")
	}

	inv, ref, err := s.invitations.Resolve(ctx, token, orgHint)
	if err != nil {
		return err
	}

	if !c.IsAdmin() {
		if inv.OrganizationID == nil || !c.ManagesOrganization(*inv.OrganizationID) {
			return errors.PermissionDenied("caller cannot revoke this invitation")
		}
	}

	if err := s.invitations.MarkRevoked(ctx, ref); err != nil {
		return err
	}

	s.events.PublishInvitationRevoked(ctx, token)
	s.logger.Info().Str("token", token).Str("revoked_by", c.ID).Msg("invitation revoked")
	return nil
}

package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	identity "github.com/casaflow/casaflow-backend/internal/identity/service"
	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// SignupService redeems invitations into accounts, claims, and
// role-scoped profiles.
type SignupService struct {
	invitations invitationStore
	campaigns   campaignStore
	directory   directoryStore
	accounts    accountProvider
	events      eventPublisher
	tx          transactor
	logger      *logger.Logger
}

// NewSignupService creates a new signup service
func NewSignupService(invitations invitationStore, campaigns campaignStore, directory directoryStore, accounts accountProvider, events eventPublisher, tx transactor, log *logger.Logger) *SignupService {
	return &SignupService{
		invitations: invitations,
		campaigns:   campaigns,
		directory:   directory,
		accounts:    accounts,
		events:      events,
		tx:          tx,
		logger:      log.WithComponent("signup"),
	}
}

// SignupRequest is the input for redeeming an invitation
type SignupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password,omitempty"`
	DisplayName    string `json:"displayName" validate:"required"`
	InvitationID   string `json:"invitationId" validate:"required"`
	OrganizationID string `json:"organizationId,omitempty"`
	AccountID      string `json:"uid,omitempty"`
}

// SignupResponse is the result of a successful redemption
type SignupResponse struct {
	Success   bool   `json:"success"`
	AccountID string `json:"uid"`
	Message   string `json:"message"`
}

// SignUpWithInvitation redeems a pending invitation. All validation runs
// before any mutation; the account is created only once the invitation
// is proven redeemable, and claims and profiles are written only after
// the account exists. The campaign counter update at the end is
// best-effort and never rolls back the signup.
func (s *SignupService) SignUpWithInvitation(ctx context.Context, req *SignupRequest) (*SignupResponse, error) {
	if req.Password == "" && req.AccountID == "" {
		return nil, errors.InvalidArgument("password is required")
	}

	inv, ref, err := s.invitations.Resolve(ctx, req.InvitationID, req.OrganizationID)
	if err != nil {
		return nil, err
	}

	if !inv.IsPending() {
		return nil, errors.FailedPrecondition("invitation is no longer pending")
	}
	if inv.Email != "" && !strings.EqualFold(inv.Email, req.Email) {
		return nil, errors.FailedPrecondition("invitation was issued for a different email")
	}

	// Prove the claims are mintable before creating anything.
	claims, err := domain.MintClaims(inv.Roles, inv.OrganizationIDs, inv.PropertyID)
	if err != nil {
		return nil, err
	}

	if roles.Contains(inv.Roles, roles.Resident) {
		if _, err := s.directory.GetProperty(ctx, claims.OrganizationID, claims.PropertyID); err != nil {
			return nil, err
		}
	}

	account, err := s.accounts.EnsureAccount(ctx, identity.EnsureAccountParams{
		AccountID:   req.AccountID,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, err
	}
	if req.AccountID != "" && inv.Email != "" && !strings.EqualFold(account.Email, inv.Email) {
		return nil, errors.FailedPrecondition("account email does not match the invitation")
	}

	if err := s.accounts.ApplyClaims(ctx, account.ID, claims); err != nil {
		return nil, err
	}

	if err := s.writeProfiles(ctx, inv, account.ID, req.Email, req.DisplayName); err != nil {
		return nil, err
	}

	if err := s.invitations.MarkAccepted(ctx, ref, account.ID); err != nil {
		return nil, err
	}

	// Bookkeeping only from here: the account and profiles stand even
	// if the counter update fails.
	if inv.CampaignID != nil && roles.Contains(inv.Roles, roles.Resident) {
		if err := s.campaigns.IncrementAccepted(ctx, *inv.CampaignID); err != nil {
			s.logger.Error().Err(err).
				Str("campaign_id", *inv.CampaignID).
				Str("account_id", account.ID).
				Msg("campaign counter update failed")
		}
	}

	s.events.PublishInvitationAccepted(ctx, inv, account.ID)
	s.logger.Info().
		Str("token", inv.Token).
		Str("account_id", account.ID).
		Msg("invitation redeemed")

	return &SignupResponse{
		Success:   true,
		AccountID: account.ID,
		Message:   "account created",
	}, nil
}

// writeProfiles creates the role-scoped profile rows. Organization
// managers get one row per bound organization, which may be none yet;
// residents get exactly one row under their property; every other role
// gets one organization row.
func (s *SignupService) writeProfiles(ctx context.Context, inv *domain.Invitation, accountID, email, displayName string) error {
	invitedBy := &inv.InvitedBy
	if inv.InvitedBy == "" {
		invitedBy = nil
	}

	switch {
	case inv.Roles.Contains(roles.OrganizationManager):
		if len(inv.OrganizationIDs) == 0 {
			return nil
		}
		return s.tx.Transaction(ctx, func(tx *sqlx.Tx) error {
			for _, orgID := range inv.OrganizationIDs {
				u := &domain.OrganizationUser{
					OrganizationID: orgID,
					AccountID:      accountID,
					Email:          email,
					DisplayName:    displayName,
					Status:         domain.ProfileStatusActive,
					InvitedBy:      invitedBy,
				}
				if err := s.directory.CreateOrganizationUser(ctx, tx, u); err != nil {
					return err
				}
			}
			return nil
		})

	case inv.Roles.Contains(roles.Resident):
		res := &domain.Resident{
			OrganizationID: inv.OrganizationIDs[0],
			PropertyID:     *inv.PropertyID,
			AccountID:      accountID,
			Email:          email,
			DisplayName:    displayName,
			Status:         domain.ProfileStatusActive,
			InvitedBy:      invitedBy,
		}
		return s.directory.CreateResident(ctx, nil, res)

	default:
		u := &domain.OrganizationUser{
			OrganizationID: inv.OrganizationIDs[0],
			AccountID:      accountID,
			Email:          email,
			DisplayName:    displayName,
			Status:         domain.ProfileStatusActive,
			InvitedBy:      invitedBy,
		}
		return s.directory.CreateOrganizationUser(ctx, nil, u)
	}
}

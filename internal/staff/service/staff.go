// Package service implements the property manager lifecycle: each
// operation authorizes, validates, mutates the identity, then mutates
// the profile.
package service

import (
	"context"

	identitydomain "github.com/casaflow/casaflow-backend/internal/identity/domain"
	identity "github.com/casaflow/casaflow-backend/internal/identity/service"
	invdomain "github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/internal/staff/domain"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

type staffStore interface {
	Create(ctx context.Context, pm *domain.PropertyManager) error
	Get(ctx context.Context, organizationID, accountID string) (*domain.PropertyManager, error)
	List(ctx context.Context, organizationID string) ([]*domain.PropertyManager, error)
	Update(ctx context.Context, organizationID, accountID, displayName, status string) error
	Delete(ctx context.Context, organizationID, accountID string) error
}

type accountProvider interface {
	EnsureAccount(ctx context.Context, params identity.EnsureAccountParams) (*identitydomain.Account, error)
	ApplyClaims(ctx context.Context, accountID string, claims any) error
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	DisableAccount(ctx context.Context, id string) error
}

// StaffService manages property manager accounts and profiles
type StaffService struct {
	staff    staffStore
	accounts accountProvider
	logger   *logger.Logger
}

// NewStaffService creates a new staff service
func NewStaffService(staff staffStore, accounts accountProvider, log *logger.Logger) *StaffService {
	return &StaffService{
		staff:    staff,
		accounts: accounts,
		logger:   log.WithComponent("staff"),
	}
}

// CreatePropertyManagerRequest is the input for provisioning a manager
type CreatePropertyManagerRequest struct {
	OrganizationID string `json:"organizationId" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=8"`
	DisplayName    string `json:"displayName" validate:"required"`
}

// UpdatePropertyManagerRequest is the input for updating a manager
type UpdatePropertyManagerRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
	Status      string `json:"status" validate:"required,oneof=active disabled"`
}

// authorize allows admins and managers of the target organization
func (s *StaffService) authorize(c *caller.Caller, organizationID string) error {
	if c == nil {
		return errors.Unauthenticated("a verified caller identity is required")
	}
	if c.IsAdmin() {
		return nil
	}
	if !c.HasRole(roles.OrganizationManager) || !c.ManagesOrganization(organizationID) {
		return errors.PermissionDenied("caller cannot manage staff for this organization")
	}
	return nil
}

// CreatePropertyManager provisions an account with property manager
// claims and its organization profile.
func (s *StaffService) CreatePropertyManager(ctx context.Context, c *caller.Caller, req *CreatePropertyManagerRequest) (*domain.PropertyManager, error) {
	if err := s.authorize(c, req.OrganizationID); err != nil {
		return nil, err
	}

	claims, err := invdomain.MintClaims([]roles.Role{roles.PropertyManager}, []string{req.OrganizationID}, nil)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.EnsureAccount(ctx, identity.EnsureAccountParams{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		return nil, err
	}

	if err := s.accounts.ApplyClaims(ctx, account.ID, claims); err != nil {
		return nil, err
	}

	pm := &domain.PropertyManager{
		OrganizationID: req.OrganizationID,
		AccountID:      account.ID,
		Email:          req.Email,
		DisplayName:    req.DisplayName,
		Status:         invdomain.ProfileStatusActive,
	}
	if err := s.staff.Create(ctx, pm); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", account.ID).
		Str("organization_id", req.OrganizationID).
		Msg("property manager created")
	return pm, nil
}

// GetPropertyManager fetches one property manager profile
func (s *StaffService) GetPropertyManager(ctx context.Context, c *caller.Caller, organizationID, accountID string) (*domain.PropertyManager, error) {
	if err := s.authorize(c, organizationID); err != nil {
		return nil, err
	}
	return s.staff.Get(ctx, organizationID, accountID)
}

// ListPropertyManagers lists an organization's staff profiles
func (s *StaffService) ListPropertyManagers(ctx context.Context, c *caller.Caller, organizationID string) ([]*domain.PropertyManager, error) {
	if err := s.authorize(c, organizationID); err != nil {
		return nil, err
	}
	return s.staff.List(ctx, organizationID)
}

// UpdatePropertyManager changes the display name and status on both the
// account and the profile.
func (s *StaffService) UpdatePropertyManager(ctx context.Context, c *caller.Caller, organizationID, accountID string, req *UpdatePropertyManagerRequest) error {
	if err := s.authorize(c, organizationID); err != nil {
		return err
	}

	if _, err := s.staff.Get(ctx, organizationID, accountID); err != nil {
		return err
	}

	if err := s.accounts.UpdateDisplayName(ctx, accountID, req.DisplayName); err != nil {
		return err
	}

	return s.staff.Update(ctx, organizationID, accountID, req.DisplayName, req.Status)
}

// DeletePropertyManager disables the account and removes the profile
func (s *StaffService) DeletePropertyManager(ctx context.Context, c *caller.Caller, organizationID, accountID string) error {
	if err := s.authorize(c, organizationID); err != nil {
		return err
	}

	if _, err := s.staff.Get(ctx, organizationID, accountID); err != nil {
		return err
	}

	if err := s.accounts.DisableAccount(ctx, accountID); err != nil {
		return err
	}

	if err := s.staff.Delete(ctx, organizationID, accountID); err != nil {
		return err
	}

	s.logger.Info().
		Str("account_id", accountID).
		Str("organization_id", organizationID).
		Msg("property manager deleted")
	return nil
}

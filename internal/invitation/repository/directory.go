package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/errors"
)

// DirectoryRepository reads organizations and properties and writes the
// role-scoped profile rows created during signup.
type DirectoryRepository struct {
	db *database.DB
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *database.DB) *DirectoryRepository {
	return &DirectoryRepository{db: db}
}

// GetOrganization fetches one organization
func (r *DirectoryRepository) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	var org domain.Organization
	query := `SELECT id, name, created_at FROM organizations WHERE id = $1`

	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("organization")
		}
		return nil, err
	}

	return &org, nil
}

// GetProperty fetches one property within an organization
func (r *DirectoryRepository) GetProperty(ctx context.Context, organizationID, propertyID string) (*domain.Property, error) {
	var prop domain.Property
	query := `
		SELECT id, organization_id, name, created_at
		FROM properties
		WHERE id = $1 AND organization_id = $2
	`

	if err := r.db.GetContext(ctx, &prop, query, propertyID, organizationID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("property")
		}
		return nil, err
	}

	return &prop, nil
}

// CreateOrganizationUser writes the organization-level profile row for
// managers and staff. Pass a transaction as ext or nil for the pool.
func (r *DirectoryRepository) CreateOrganizationUser(ctx context.Context, ext sqlx.ExtContext, u *domain.OrganizationUser) error {
	if ext == nil {
		ext = r.db
	}

	query := `
		INSERT INTO organization_users (organization_id, account_id, email, display_name, status, invited_by)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := ext.ExecContext(ctx, query,
		u.OrganizationID, u.AccountID, u.Email, u.DisplayName, u.Status, u.InvitedBy)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// CreateResident writes the property-level profile row for a resident
func (r *DirectoryRepository) CreateResident(ctx context.Context, ext sqlx.ExtContext, res *domain.Resident) error {
	if ext == nil {
		ext = r.db
	}

	query := `
		INSERT INTO residents (organization_id, property_id, account_id, email, display_name, status, invited_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := ext.ExecContext(ctx, query,
		res.OrganizationID, res.PropertyID, res.AccountID, res.Email, res.DisplayName, res.Status, res.InvitedBy)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetOrganizationUser fetches one organization profile row
func (r *DirectoryRepository) GetOrganizationUser(ctx context.Context, organizationID, accountID string) (*domain.OrganizationUser, error) {
	var u domain.OrganizationUser
	query := `
		SELECT organization_id, account_id, email, display_name, status, invited_by, created_at
		FROM organization_users
		WHERE organization_id = $1 AND account_id = $2
	`

	if err := r.db.GetContext(ctx, &u, query, organizationID, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("organization user")
		}
		return nil, err
	}

	return &u, nil
}

// UpdateOrganizationUser updates the mutable profile fields
func (r *DirectoryRepository) UpdateOrganizationUser(ctx context.Context, organizationID, accountID, displayName, status string) error {
	query := `
		UPDATE organization_users
		SET display_name = $3, status = $4
		WHERE organization_id = $1 AND account_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, organizationID, accountID, displayName, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("organization user")
	}

	return nil
}

// DeleteOrganizationUser removes one organization profile row
func (r *DirectoryRepository) DeleteOrganizationUser(ctx context.Context, organizationID, accountID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM organization_users WHERE organization_id = $1 AND account_id = $2`,
		organizationID, accountID)
	return err
}

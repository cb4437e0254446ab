package repository

import (
	"context"
	"database/sql"

	"github.com/casaflow/casaflow-backend/internal/staff/domain"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/errors"
)

const staffColumns = `organization_id, account_id, email, display_name, status, created_at`

// StaffRepository reads and writes property manager profiles. Profiles
// share the organization_users table with other organization-level
// roles; membership in this view is decided by the account's claims, so
// writes here are always paired with identity mutations by the service.
type StaffRepository struct {
	db *database.DB
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(db *database.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

// Create inserts a property manager profile
func (r *StaffRepository) Create(ctx context.Context, pm *domain.PropertyManager) error {
	query := `
		INSERT INTO organization_users (organization_id, account_id, email, display_name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		pm.OrganizationID, pm.AccountID, pm.Email, pm.DisplayName, pm.Status).
		Scan(&pm.CreatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Get fetches one property manager profile
func (r *StaffRepository) Get(ctx context.Context, organizationID, accountID string) (*domain.PropertyManager, error) {
	var pm domain.PropertyManager
	query := `
		SELECT ` + staffColumns + `
		FROM organization_users
		WHERE organization_id = $1 AND account_id = $2
	`

	if err := r.db.GetContext(ctx, &pm, query, organizationID, accountID); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("property manager")
		}
		return nil, err
	}

	return &pm, nil
}

// List returns an organization's profiles ordered by creation
func (r *StaffRepository) List(ctx context.Context, organizationID string) ([]*domain.PropertyManager, error) {
	var managers []*domain.PropertyManager
	query := `
		SELECT ` + staffColumns + `
		FROM organization_users
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	if err := r.db.SelectContext(ctx, &managers, query, organizationID); err != nil {
		return nil, err
	}

	return managers, nil
}

// Update changes the display name and status of a profile
func (r *StaffRepository) Update(ctx context.Context, organizationID, accountID, displayName, status string) error {
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
		return errors.NotFound("property manager")
	}

	return nil
}

// Delete removes a profile
func (r *StaffRepository) Delete(ctx context.Context, organizationID, accountID string) error {
	query := `DELETE FROM organization_users WHERE organization_id = $1 AND account_id = $2`

	result, err := r.db.ExecContext(ctx, query, organizationID, accountID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("property manager")
	}

	return nil
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/casaflow/casaflow-backend/internal/identity/domain"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/errors"
)

const accountColumns = `id, email, password_hash, display_name, claims, disabled, created_at, updated_at`

// AccountRepository persists login accounts
type AccountRepository struct {
	db *database.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. When acc.ID is empty a fresh UUID is
// assigned, which lets callers pre-pin an external identifier.
func (r *AccountRepository) Create(ctx context.Context, acc *domain.Account) error {
	if acc.Email == "" {
		return errors.InvalidArgument("email is required")
	}
	if acc.ID == "" {
		acc.ID = uuid.New().String()
	}

	query := `
		INSERT INTO accounts (id, email, password_hash, display_name, claims, disabled)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		acc.ID, acc.Email, acc.PasswordHash, acc.DisplayName, acc.Claims, acc.Disabled).
		Scan(&acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID fetches one account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	var acc domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	if err := r.db.GetContext(ctx, &acc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("account")
		}
		return nil, err
	}

	return &acc, nil
}

// GetByEmail fetches one account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	var acc domain.Account
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE lower(email) = lower($1)`

	if err := r.db.GetContext(ctx, &acc, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("account")
		}
		return nil, err
	}

	return &acc, nil
}

// SetClaims replaces the claims document mirrored onto the account
func (r *AccountRepository) SetClaims(ctx context.Context, id string, claims any) error {
	payload, err := json.Marshal(claims)
	if err != nil {
		return errors.Internal("failed to encode claims")
	}

	query := `UPDATE accounts SET claims = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, payload)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("account")
	}

	return nil
}

// UpdateDisplayName changes the account display name
func (r *AccountRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	query := `UPDATE accounts SET display_name = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, displayName)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("account")
	}

	return nil
}

// SetDisabled toggles login for the account
func (r *AccountRepository) SetDisabled(ctx context.Context, id string, disabled bool) error {
	query := `UPDATE accounts SET disabled = $2, updated_at = now() WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, disabled)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("account")
	}

	return nil
}

// Delete removes the account
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM accounts WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("account")
	}

	return nil
}

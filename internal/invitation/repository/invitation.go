package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/errors"
)

// invitationColumns is the select list shared by all invitation reads
const invitationColumns = `
	token, scope, email, display_name, roles, organization_id,
	organization_ids, property_id, status, invited_by, invited_by_role,
	campaign_id, extra, expires_at, accepted_by, accepted_at, created_at
`

// InvitationRepository handles invitation persistence
type InvitationRepository struct {
	db *database.DB
}

// NewInvitationRepository creates a new invitation repository
func NewInvitationRepository(db *database.DB) *InvitationRepository {
	return &InvitationRepository{db: db}
}

// GenerateToken generates a cryptographically secure, URL-safe token.
// The token doubles as the invitation's storage key.
func GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// Create persists a brand-new invitation. The token is minted here when
// the caller has not chosen one. Invitations without an email or a role
// set are rejected before touching the store.
func (r *InvitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	return r.CreateTx(ctx, r.db, inv)
}

// CreateTx is Create against an explicit execer, so campaign batches can
// write invitations inside one transaction.
func (r *InvitationRepository) CreateTx(ctx context.Context, ext sqlx.ExtContext, inv *domain.Invitation) error {
	// Campaign-link invitations capture the email later, on the landing
	// page; every other invitation must carry one.
	if inv.Email == "" && inv.CampaignID == nil {
		return errors.InvalidArgument("invitation requires an email")
	}
	if len(inv.Roles) == 0 {
		return errors.InvalidArgument("invitation requires roles to assign")
	}
	if inv.Scope == "" {
		inv.Scope = domain.ScopeOrganization
	}
	if inv.Scope == domain.ScopeOrganization && (inv.OrganizationID == nil || *inv.OrganizationID == "") {
		return errors.InvalidArgument("organization-scoped invitation requires an organization id")
	}
	if inv.Status == "" {
		inv.Status = domain.InvitationStatusPending
	}

	if inv.Token == "" {
		token, err := GenerateToken()
		if err != nil {
			return errors.Internal("failed to generate token")
		}
		inv.Token = token
	}
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = time.Now().Add(domain.DefaultInvitationExpiry)
	}

	query := `
		INSERT INTO invitations (
			token, scope, email, display_name, roles, organization_id,
			organization_ids, property_id, status, invited_by,
			invited_by_role, campaign_id, extra, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at
	`

	err := ext.QueryRowxContext(ctx, query,
		inv.Token,
		inv.Scope,
		inv.Email,
		inv.DisplayName,
		inv.Roles,
		inv.OrganizationID,
		inv.OrganizationIDs,
		inv.PropertyID,
		inv.Status,
		inv.InvitedBy,
		inv.InvitedByRole,
		inv.CampaignID,
		inv.Extra,
		inv.ExpiresAt,
	).Scan(&inv.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// Resolve looks an invitation up by token, probing the hinted
// organization scope first and falling back to the global scope. The
// returned Ref pins the location so every subsequent write targets the
// same row.
func (r *InvitationRepository) Resolve(ctx context.Context, token, orgHint string) (*domain.Invitation, domain.Ref, error) {
	if orgHint != "" {
		inv, err := r.get(ctx,
			`SELECT `+invitationColumns+` FROM invitations WHERE token = $1 AND scope = $2 AND organization_id = $3`,
			token, domain.ScopeOrganization, orgHint)
		if err == nil {
			return inv, inv.Ref(), nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return nil, domain.Ref{}, err
		}
	}

	inv, err := r.get(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1 AND scope = $2`,
		token, domain.ScopeGlobal)
	if err != nil {
		return nil, domain.Ref{}, err
	}
	return inv, inv.Ref(), nil
}

// GetByToken fetches an invitation by token regardless of scope.
// Used by the public landing page, which holds only the token.
func (r *InvitationRepository) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return r.get(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token)
}

func (r *InvitationRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.Invitation, error) {
	var inv domain.Invitation
	if err := r.db.GetContext(ctx, &inv, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("invitation")
		}
		return nil, err
	}
	return &inv, nil
}

// MarkAccepted transitions a pending invitation to accepted, recording
// the redeemer. The status guard is the optimistic check against double
// redemption.
func (r *InvitationRepository) MarkAccepted(ctx context.Context, ref domain.Ref, accountID string) error {
	query := `
		UPDATE invitations
		SET status = 'accepted', accepted_at = NOW(), accepted_by = $3
		WHERE token = $1 AND scope = $2 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, ref.Token, ref.Scope, accountID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.FailedPrecondition("invitation is no longer pending")
	}

	return nil
}

// UpdateStatus applies a partial status update at the resolved location.
// Pass a transaction as ext to run inside one, or nil for the pool.
func (r *InvitationRepository) UpdateStatus(ctx context.Context, ext sqlx.ExtContext, ref domain.Ref, status domain.InvitationStatus) error {
	if ext == nil {
		ext = r.db
	}

	query := `UPDATE invitations SET status = $3 WHERE token = $1 AND scope = $2`

	result, err := ext.ExecContext(ctx, query, ref.Token, ref.Scope, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("invitation")
	}

	return nil
}

// MarkRevoked revokes a pending invitation
func (r *InvitationRepository) MarkRevoked(ctx context.Context, ref domain.Ref) error {
	query := `
		UPDATE invitations
		SET status = 'revoked'
		WHERE token = $1 AND scope = $2 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, ref.Token, ref.Scope)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.FailedPrecondition("can only revoke pending invitations")
	}

	return nil
}

// MarkExpired sweeps pending invitations past their expiry
func (r *InvitationRepository) MarkExpired(ctx context.Context) (int64, error) {
	query := `
		UPDATE invitations
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at < NOW()
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

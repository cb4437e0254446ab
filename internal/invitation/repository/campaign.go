package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/database"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

const campaignColumns = `
	id, organization_id, property_id, name, type, roles, max_uses,
	expires_at, status, total_accepted, total_invited_from_csv,
	storage_file_path, source_file_name, access_url, status_detail,
	created_by, created_at
`

// CampaignRepository handles campaign persistence, including the
// transactional redemption counter.
type CampaignRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *database.DB, log *logger.Logger) *CampaignRepository {
	return &CampaignRepository{db: db, logger: log}
}

// Create persists a new campaign
func (r *CampaignRepository) Create(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	query := `
		INSERT INTO campaigns (
			id, organization_id, property_id, name, type, roles, max_uses,
			expires_at, status, storage_file_path, source_file_name,
			access_url, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.OrganizationID,
		c.PropertyID,
		c.Name,
		c.Type,
		c.Roles,
		c.MaxUses,
		c.ExpiresAt,
		c.Status,
		c.StorageFilePath,
		c.SourceFileName,
		c.AccessURL,
		c.CreatedBy,
	).Scan(&c.CreatedAt)

	if err != nil {
		if appErr := database.MapPQError(err); appErr != nil {
			return appErr
		}
		return err
	}

	return nil
}

// GetByID fetches a campaign within its organization and property
func (r *CampaignRepository) GetByID(ctx context.Context, organizationID, propertyID, id string) (*domain.Campaign, error) {
	return r.get(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND organization_id = $2 AND property_id = $3`,
		id, organizationID, propertyID)
}

// GetActiveByID fetches an active campaign by id alone, across all
// organizations and properties. This is the lookup behind the public
// signup link, which carries only the campaign id.
func (r *CampaignRepository) GetActiveByID(ctx context.Context, id string) (*domain.Campaign, error) {
	return r.get(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 AND status = 'active'`,
		id)
}

func (r *CampaignRepository) get(ctx context.Context, query string, args ...interface{}) (*domain.Campaign, error) {
	var c domain.Campaign
	if err := r.db.GetContext(ctx, &c, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("campaign")
		}
		return nil, err
	}
	return &c, nil
}

// ListByProperty lists campaigns for one property, newest first
func (r *CampaignRepository) ListByProperty(ctx context.Context, organizationID, propertyID string) ([]*domain.Campaign, error) {
	var campaigns []*domain.Campaign
	query := `
		SELECT ` + campaignColumns + `
		FROM campaigns
		WHERE organization_id = $1 AND property_id = $2
		ORDER BY created_at DESC
	`
	if err := r.db.SelectContext(ctx, &campaigns, query, organizationID, propertyID); err != nil {
		return nil, err
	}
	return campaigns, nil
}

// UpdateStatus applies a status transition with an optional diagnostic
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus, detail *string) error {
	query := `UPDATE campaigns SET status = $2, status_detail = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, status, detail)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("campaign")
	}

	return nil
}

// SetAccessURL stores the shareable signup link of a public campaign
func (r *CampaignRepository) SetAccessURL(ctx context.Context, id, accessURL string) error {
	query := `UPDATE campaigns SET access_url = $2 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, accessURL)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("campaign")
	}

	return nil
}

// FinishProcessing records the CSV outcome: how many rows became
// invitations and the resulting status.
func (r *CampaignRepository) FinishProcessing(ctx context.Context, id string, invited int, status domain.CampaignStatus) error {
	query := `UPDATE campaigns SET total_invited_from_csv = $2, status = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, invited, status)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return errors.NotFound("campaign")
	}

	return nil
}

// Delete removes a campaign. Callers must enforce the inactive-only
// precondition first.
func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}

// IncrementAccepted bumps the redemption counter inside a serializable
// transaction and applies the status precedence rule: an expired
// campaign is never downgraded; expiry beats completion; completion
// applies once max uses is reached. Only fields that change are written.
//
// This transaction is the sole concurrency-control point of the core:
// overlapping signups against the same campaign serialize here.
//
// A missing campaign is logged and swallowed. The surrounding signup has
// already committed its account; bookkeeping must not roll it back.
func (r *CampaignRepository) IncrementAccepted(ctx context.Context, campaignID string) error {
	err := r.db.Serializable(ctx, func(tx *sqlx.Tx) error {
		var c domain.Campaign
		query := `
			SELECT id, max_uses, expires_at, status, total_accepted
			FROM campaigns WHERE id = $1
		`
		if err := tx.GetContext(ctx, &c, query, campaignID); err != nil {
			if err == sql.ErrNoRows {
				return errors.NotFound("campaign")
			}
			return err
		}

		c.TotalAccepted++
		next := c.NextStatus()

		if next != c.Status {
			_, err := tx.ExecContext(ctx,
				`UPDATE campaigns SET total_accepted = $2, status = $3 WHERE id = $1`,
				campaignID, c.TotalAccepted, next)
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE campaigns SET total_accepted = $2 WHERE id = $1`,
			campaignID, c.TotalAccepted)
		return err
	})

	if errors.Is(err, errors.ErrNotFound) {
		r.logger.Warn().
			Str("campaign_id", campaignID).
			Msg("campaign missing during counter update")
		return nil
	}

	return err
}

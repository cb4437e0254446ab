package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// FixtureFactory builds uniquely-named test entities
type FixtureFactory struct {
	counter atomic.Int64
}

// NewFixtureFactory creates a new fixture factory
func NewFixtureFactory() *FixtureFactory {
	return &FixtureFactory{}
}

func (f *FixtureFactory) next() int64 {
	return f.counter.Add(1)
}

// OrganizationFixture is a seeded organization
type OrganizationFixture struct {
	ID   string
	Name string
}

// PropertyFixture is a seeded property
type PropertyFixture struct {
	ID             string
	OrganizationID string
	Name           string
}

// CampaignFixture is a seeded campaign
type CampaignFixture struct {
	ID             string
	OrganizationID string
	PropertyID     string
}

// SeedOrganization inserts a fresh organization
func (f *FixtureFactory) SeedOrganization(ctx context.Context, db *sqlx.DB) (*OrganizationFixture, error) {
	n := f.next()
	org := &OrganizationFixture{
		ID:   fmt.Sprintf("org-%d", n),
		Name: fmt.Sprintf("Organization %d", n),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO organizations (id, name) VALUES ($1, $2)`,
		org.ID, org.Name)
	if err != nil {
		return nil, err
	}
	return org, nil
}

// SeedProperty inserts a fresh property under an organization
func (f *FixtureFactory) SeedProperty(ctx context.Context, db *sqlx.DB, organizationID string) (*PropertyFixture, error) {
	n := f.next()
	prop := &PropertyFixture{
		ID:             fmt.Sprintf("prop-%d", n),
		OrganizationID: organizationID,
		Name:           fmt.Sprintf("Property %d", n),
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO properties (id, organization_id, name) VALUES ($1, $2, $3)`,
		prop.ID, prop.OrganizationID, prop.Name)
	if err != nil {
		return nil, err
	}
	return prop, nil
}

// SeedCampaign inserts an active resident campaign
func (f *FixtureFactory) SeedCampaign(ctx context.Context, db *sqlx.DB, organizationID, propertyID string, maxUses *int, expiresAt *time.Time) (*CampaignFixture, error) {
	c := &CampaignFixture{
		ID:             uuid.New().String(),
		OrganizationID: organizationID,
		PropertyID:     propertyID,
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO campaigns (id, organization_id, property_id, name, type, roles, max_uses, expires_at, status, created_by)
		VALUES ($1, $2, $3, $4, 'public_link', '["resident"]', $5, $6, 'active', 'fixture')
	`, c.ID, c.OrganizationID, c.PropertyID, fmt.Sprintf("Campaign %d", f.next()), maxUses, expiresAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SeedInvitation inserts a pending organization-scoped invitation
func (f *FixtureFactory) SeedInvitation(ctx context.Context, db *sqlx.DB, organizationID, propertyID, email string, campaignID *string) (string, error) {
	token := uuid.New().String()

	_, err := db.ExecContext(ctx, `
		INSERT INTO invitations (token, scope, email, roles, organization_id, organization_ids, property_id, status, invited_by, invited_by_role, campaign_id, expires_at)
		VALUES ($1, 'organization', $2, '["resident"]', $3, $4, $5, 'pending', 'fixture', 'property_manager', $6, NOW() + INTERVAL '7 days')
	`, token, email, organizationID, fmt.Sprintf(`["%s"]`, organizationID), propertyID, campaignID)
	if err != nil {
		return "", err
	}
	return token, nil
}

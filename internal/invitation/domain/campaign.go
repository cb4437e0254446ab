package domain

import (
	"time"
)

// CampaignStatus represents the status of a campaign
type CampaignStatus string

const (
	CampaignStatusProcessing CampaignStatus = "processing"
	CampaignStatusActive     CampaignStatus = "active"
	CampaignStatusInactive   CampaignStatus = "inactive"
	CampaignStatusCompleted  CampaignStatus = "completed"
	CampaignStatusExpired    CampaignStatus = "expired"
	CampaignStatusError      CampaignStatus = "error"
)

// CampaignType represents how a campaign sources its invitations
type CampaignType string

const (
	CampaignTypeCSVImport  CampaignType = "csv_import"
	CampaignTypePublicLink CampaignType = "public_link"
)

// Campaign represents a reusable, bounded invitation source scoped to one
// organization and property.
type Campaign struct {
	ID                  string         `json:"id" db:"id"`
	OrganizationID      string         `json:"organization_id" db:"organization_id"`
	PropertyID          string         `json:"property_id" db:"property_id"`
	Name                string         `json:"name" db:"name"`
	Type                CampaignType   `json:"type" db:"type"`
	Roles               RoleList       `json:"roles" db:"roles"`
	MaxUses             *int           `json:"max_uses,omitempty" db:"max_uses"`
	ExpiresAt           *time.Time     `json:"expires_at,omitempty" db:"expires_at"`
	Status              CampaignStatus `json:"status" db:"status"`
	TotalAccepted       int            `json:"total_accepted" db:"total_accepted"`
	TotalInvitedFromCSV int            `json:"total_invited_from_csv" db:"total_invited_from_csv"`
	StorageFilePath     *string        `json:"storage_file_path,omitempty" db:"storage_file_path"`
	SourceFileName      *string        `json:"source_file_name,omitempty" db:"source_file_name"`
	AccessURL           *string        `json:"access_url,omitempty" db:"access_url"`
	StatusDetail        *string        `json:"status_detail,omitempty" db:"status_detail"`
	CreatedBy           string         `json:"created_by" db:"created_by"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
}

// IsExpired checks whether the campaign's expiry instant has passed
func (c *Campaign) IsExpired() bool {
	return c.ExpiresAt != nil && time.Now().After(*c.ExpiresAt)
}

// AtCap checks whether the accepted count has reached max uses
func (c *Campaign) AtCap() bool {
	return c.MaxUses != nil && c.TotalAccepted >= *c.MaxUses
}

// NextStatus applies the redemption-time status precedence rule:
// an expired campaign is never downgraded; expiry wins over completion;
// completion applies once the cap is reached; otherwise the status is
// unchanged.
func (c *Campaign) NextStatus() CampaignStatus {
	if c.Status == CampaignStatusExpired {
		return CampaignStatusExpired
	}
	if c.IsExpired() {
		return CampaignStatusExpired
	}
	if c.AtCap() {
		return CampaignStatusCompleted
	}
	return c.Status
}

package domain

import "time"

// Organization is a managed tenant of the platform
type Organization struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Property is a building or complex managed by an organization
type Property struct {
	ID             string    `json:"id" db:"id"`
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ProfileStatus values for role-scoped profiles
const (
	ProfileStatusActive   = "active"
	ProfileStatusDisabled = "disabled"
)

// OrganizationUser is the profile row for organization managers and
// property managers within one organization.
type OrganizationUser struct {
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	AccountID      string    `json:"account_id" db:"account_id"`
	Email          string    `json:"email" db:"email"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Status         string    `json:"status" db:"status"`
	InvitedBy      *string   `json:"invited_by,omitempty" db:"invited_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Resident is the profile row for a resident of one property.
type Resident struct {
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	PropertyID     string    `json:"property_id" db:"property_id"`
	AccountID      string    `json:"account_id" db:"account_id"`
	Email          string    `json:"email" db:"email"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Status         string    `json:"status" db:"status"`
	InvitedBy      *string   `json:"invited_by,omitempty" db:"invited_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

package domain

import (
	"fmt"
	"time"
)

// InvitationStatus represents the status of an invitation
type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusExpired  InvitationStatus = "expired"
	InvitationStatusRevoked  InvitationStatus = "revoked"
)

// Invitation storage scopes. Organization-manager invitations may have no
// organization yet, so they live in the global scope; every other
// invitation is stored under its target organization.
const (
	ScopeOrganization = "organization"
	ScopeGlobal       = "global"
)

// DefaultInvitationExpiry is how long an invitation stays redeemable.
const DefaultInvitationExpiry = 7 * 24 * time.Hour

// Ref locates an invitation at its resolved storage scope. It is returned
// by lookup alongside the document so later writes target the same
// location without re-deriving it.
type Ref struct {
	Scope          string
	OrganizationID string
	Token          string
}

// String returns the logical document path of the invitation
func (r Ref) String() string {
	if r.Scope == ScopeGlobal {
		return fmt.Sprintf("globalInvitations/%s", r.Token)
	}
	return fmt.Sprintf("organizations/%s/invitations/%s", r.OrganizationID, r.Token)
}

// Invitation represents a single offer of account access
type Invitation struct {
	Token           string           `json:"-" db:"token"`
	Scope           string           `json:"-" db:"scope"`
	Email           string           `json:"email" db:"email"`
	DisplayName     string           `json:"display_name" db:"display_name"`
	Roles           RoleList         `json:"roles" db:"roles"`
	OrganizationID  *string          `json:"organization_id,omitempty" db:"organization_id"`
	OrganizationIDs StringList       `json:"organization_ids,omitempty" db:"organization_ids"`
	PropertyID      *string          `json:"property_id,omitempty" db:"property_id"`
	Status          InvitationStatus `json:"status" db:"status"`
	InvitedBy       string           `json:"invited_by" db:"invited_by"`
	InvitedByRole   string           `json:"invited_by_role" db:"invited_by_role"`
	CampaignID      *string          `json:"campaign_id,omitempty" db:"campaign_id"`
	Extra           StringMap        `json:"extra,omitempty" db:"extra"`
	ExpiresAt       time.Time        `json:"expires_at" db:"expires_at"`
	AcceptedBy      *string          `json:"accepted_by,omitempty" db:"accepted_by"`
	AcceptedAt      *time.Time       `json:"accepted_at,omitempty" db:"accepted_at"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
}

// Ref returns the resolved storage location of the invitation
func (i *Invitation) Ref() Ref {
	orgID := ""
	if i.OrganizationID != nil {
		orgID = *i.OrganizationID
	}
	return Ref{Scope: i.Scope, OrganizationID: orgID, Token: i.Token}
}

// IsExpired checks if the invitation has expired
func (i *Invitation) IsExpired() bool {
	return time.Now().After(i.ExpiresAt)
}

// IsPending checks if the invitation is still redeemable
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationStatusPending && !i.IsExpired()
}

// InvitationPublicInfo is the minimal info shown on the signup landing page
type InvitationPublicInfo struct {
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	ExpiresAt time.Time `json:"expires_at"`
	IsValid   bool      `json:"is_valid"`
}

// ToPublicInfo returns minimal info for the signup landing page
func (i *Invitation) ToPublicInfo() *InvitationPublicInfo {
	return &InvitationPublicInfo{
		Email:     i.Email,
		Roles:     i.Roles.Strings(),
		ExpiresAt: i.ExpiresAt,
		IsValid:   i.IsPending(),
	}
}

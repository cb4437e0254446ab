// Package caller provides the typed identity of the user invoking an
// operation, extracted once from the verified bearer token at the HTTP
// boundary and passed by value into every authorization check.
//
// Services must never read role or scope claims from ambient state; the
// Caller is the only carrier.
package caller

import (
	"context"
	"fmt"

	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// Caller is the verified identity and claim scope of the request origin.
type Caller struct {
	// ID is the account ID of the caller
	ID string `json:"id"`

	// Email is the caller's email address
	Email string `json:"email"`

	// DisplayName is the caller's display name
	DisplayName string `json:"display_name"`

	// Roles is the caller's role set
	Roles []roles.Role `json:"roles"`

	// OrganizationID is the single-organization scope (property managers,
	// residents, and other single-scope roles)
	OrganizationID string `json:"organization_id,omitempty"`

	// OrganizationIDs is the multi-organization scope (organization
	// managers only)
	OrganizationIDs []string `json:"organization_ids,omitempty"`

	// PropertyID is the property scope (residents only)
	PropertyID string `json:"property_id,omitempty"`
}

// HasRole reports whether the caller carries the given role.
func (c *Caller) HasRole(role roles.Role) bool {
	if c == nil {
		return false
	}
	return roles.Contains(c.Roles, role)
}

// IsAdmin reports whether the caller is a platform administrator.
func (c *Caller) IsAdmin() bool {
	return c.HasRole(roles.Admin)
}

// ManagesOrganization reports whether the caller's scope covers the given
// organization, either through the single-organization claim or the
// organization-manager list.
func (c *Caller) ManagesOrganization(organizationID string) bool {
	if c == nil || organizationID == "" {
		return false
	}
	if c.OrganizationID == organizationID {
		return true
	}
	for _, id := range c.OrganizationIDs {
		if id == organizationID {
			return true
		}
	}
	return false
}

// String returns a representation of the caller for logging
func (c *Caller) String() string {
	if c == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", c.ID, c.Email)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const callerContextKey contextKey = "caller"

// FromContext retrieves the Caller from the context.
// Returns nil if no caller is present (public endpoints).
func FromContext(ctx context.Context) *Caller {
	if ctx == nil {
		return nil
	}
	c, ok := ctx.Value(callerContextKey).(*Caller)
	if !ok {
		return nil
	}
	return c
}

// WithCaller returns a new context with the Caller attached.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, callerContextKey, c)
}

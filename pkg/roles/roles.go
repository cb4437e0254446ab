// Package roles defines the platform role model and helpers for working
// with role sets carried on tokens and invitations.
//
// Roles, from widest to narrowest scope:
//   - "admin" - platform administrator, unscoped
//   - "organization_manager" - manages one or more organizations
//   - "property_manager" - staff bound to a single organization
//   - "resident" - bound to a single organization and property
package roles

import "strings"

// Role is a platform role name
type Role string

const (
	Admin               Role = "admin"
	OrganizationManager Role = "organization_manager"
	PropertyManager     Role = "property_manager"
	Resident            Role = "resident"
)

// known is the set of roles the platform understands
var known = map[Role]bool{
	Admin:               true,
	OrganizationManager: true,
	PropertyManager:     true,
	Resident:            true,
}

// IsValid reports whether r is a known platform role.
func (r Role) IsValid() bool {
	return known[r]
}

// Parse converts a raw string into a Role, case-insensitively.
// Returns the role and whether it is known.
func Parse(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, known[r]
}

// ParseAll converts raw strings into roles. Unknown entries are reported
// in the second return value; the first contains only known roles in
// input order, de-duplicated.
func ParseAll(raw []string) ([]Role, []string) {
	var parsed []Role
	var unknown []string
	seen := map[Role]bool{}

	for _, s := range raw {
		r, ok := Parse(s)
		if !ok {
			unknown = append(unknown, s)
			continue
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		parsed = append(parsed, r)
	}

	return parsed, unknown
}

// Contains reports whether the role set includes the given role.
func Contains(set []Role, role Role) bool {
	for _, r := range set {
		if r == role {
			return true
		}
	}
	return false
}

// ContainsAny reports whether the role set includes any of the given roles.
func ContainsAny(set []Role, candidates ...Role) bool {
	for _, c := range candidates {
		if Contains(set, c) {
			return true
		}
	}
	return false
}

// Strings converts a role set to its string form.
func Strings(set []Role) []string {
	out := make([]string, len(set))
	for i, r := range set {
		out[i] = string(r)
	}
	return out
}

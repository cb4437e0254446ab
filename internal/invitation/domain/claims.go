package domain

import (
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// AccessClaims is the role/scope bundle attached to an identity token and
// mirrored into the account record for query-ability.
type AccessClaims struct {
	Roles           []string `json:"roles"`
	OrganizationID  string   `json:"organizationId,omitempty"`
	OrganizationIDs []string `json:"organizationIds,omitempty"`
	PropertyID      string   `json:"propertyId,omitempty"`
}

// MintClaims derives the access claims for a role set and target scope.
//
// This is the single source of truth for the derivation: the issuing path
// calls it to prove an invitation is constructible before persisting, and
// the redemption path calls it to mint the actual token claims. The two
// must never diverge.
//
// Rules, in priority order:
//  1. organization_manager: multi-organization scope, possibly empty,
//     no property claim.
//  2. resident: exactly one organization and a property.
//  3. any other role set: exactly one organization.
func MintClaims(rolesToAssign []roles.Role, organizationIDs []string, propertyID *string) (*AccessClaims, error) {
	if len(rolesToAssign) == 0 {
		return nil, errors.InvalidArgument("no roles to assign")
	}

	if roles.Contains(rolesToAssign, roles.OrganizationManager) {
		orgIDs := organizationIDs
		if orgIDs == nil {
			orgIDs = []string{}
		}
		return &AccessClaims{
			Roles:           []string{string(roles.OrganizationManager)},
			OrganizationIDs: orgIDs,
		}, nil
	}

	if roles.Contains(rolesToAssign, roles.Resident) {
		if len(organizationIDs) != 1 || propertyID == nil || *propertyID == "" {
			return nil, errors.FailedPrecondition("invitation missing required scope")
		}
		return &AccessClaims{
			Roles:          roles.Strings(rolesToAssign),
			OrganizationID: organizationIDs[0],
			PropertyID:     *propertyID,
		}, nil
	}

	if len(organizationIDs) != 1 {
		return nil, errors.FailedPrecondition("invitation missing required scope")
	}
	return &AccessClaims{
		Roles:          roles.Strings(rolesToAssign),
		OrganizationID: organizationIDs[0],
	}, nil
}

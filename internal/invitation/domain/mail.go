package domain

import (
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// Mail template names consumed by the external send pipeline
const (
	TemplateOrganizationManagerInvitation = "organizationManagerInvitation"
	TemplatePropertyManagerInvitation     = "propertyManagerInvitation"
	TemplateResidentInvitation            = "residentInvitation"
)

// MailMessage is an enqueue record describing one templated message.
// Delivery is handled by an external pipeline that consumes the mail
// collection.
type MailMessage struct {
	ID           string    `json:"id" db:"id"`
	Recipient    string    `json:"to" db:"recipient"`
	TemplateName string    `json:"template_name" db:"template_name"`
	TemplateData StringMap `json:"template_data" db:"template_data"`
}

// TemplateForRoles chooses the invitation email template for a role set.
// An undeterminable template is a hard error: an invitation must never be
// persisted without a corresponding email attempt.
func TemplateForRoles(set []roles.Role) (string, error) {
	switch {
	case roles.Contains(set, roles.OrganizationManager):
		return TemplateOrganizationManagerInvitation, nil
	case roles.Contains(set, roles.PropertyManager):
		return TemplatePropertyManagerInvitation, nil
	case roles.Contains(set, roles.Resident):
		return TemplateResidentInvitation, nil
	default:
		return "", errors.Internal("no email template for role set")
	}
}

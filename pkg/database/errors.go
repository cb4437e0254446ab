package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/casaflow/casaflow-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		return errors.InvalidArgument("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "invitation_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, accepted, expired, revoked",
		})

	case strings.Contains(constraint, "campaign_status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: processing, active, inactive, completed, expired, error",
		})

	case strings.Contains(constraint, "campaign_type_valid"):
		return errors.Validation(map[string]string{
			"type": "must be one of: csv_import, public_link",
		})

	case strings.Contains(constraint, "invitation_scope_valid"):
		return errors.Validation(map[string]string{
			"scope": "organization-scoped invitations require an organization id",
		})

	default:
		return errors.InvalidArgument("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "accounts_email"):
		return "an account with this email already exists"
	case strings.Contains(constraint, "residents_pkey"):
		return "this account is already a resident of the property"
	case strings.Contains(constraint, "organization_users_pkey"):
		return "this account already belongs to the organization"
	default:
		return "a record with these values already exists"
	}
}

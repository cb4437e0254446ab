// Package domain defines the staff views over organization profiles.
package domain

import "time"

// PropertyManager is the staff view of one property manager profile
type PropertyManager struct {
	OrganizationID string    `json:"organization_id" db:"organization_id"`
	AccountID      string    `json:"account_id" db:"account_id"`
	Email          string    `json:"email" db:"email"`
	DisplayName    string    `json:"display_name" db:"display_name"`
	Status         string    `json:"status" db:"status"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

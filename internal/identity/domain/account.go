// Package domain defines the account entity backing authentication.
package domain

import (
	"encoding/json"
	"time"
)

// Account is a login identity. Access claims minted during signup are
// mirrored onto the record so role and scope can be queried without
// decoding a token.
type Account struct {
	ID           string          `db:"id" json:"id"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	DisplayName  string          `db:"display_name" json:"display_name"`
	Claims       json.RawMessage `db:"claims" json:"claims,omitempty"`
	Disabled     bool            `db:"disabled" json:"disabled"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

package testutil

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema is the full DDL for the casaflow core tables. Test databases
// are created from this; production schemas are managed by the
// deployment pipeline from the same definitions.
const Schema = `
	CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		claims JSONB,
		disabled BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT accounts_email UNIQUE (email)
	);

	CREATE TABLE IF NOT EXISTS campaigns (
		id UUID PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		property_id TEXT NOT NULL REFERENCES properties(id),
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		roles JSONB NOT NULL,
		max_uses INTEGER,
		expires_at TIMESTAMPTZ,
		status TEXT NOT NULL DEFAULT 'processing',
		total_accepted INTEGER NOT NULL DEFAULT 0,
		total_invited_from_csv INTEGER NOT NULL DEFAULT 0,
		storage_file_path TEXT,
		source_file_name TEXT,
		access_url TEXT,
		status_detail TEXT,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT campaign_type_valid CHECK (type IN ('csv_import', 'public_link')),
		CONSTRAINT campaign_status_valid CHECK (status IN ('processing', 'active', 'inactive', 'completed', 'expired', 'error'))
	);

	CREATE TABLE IF NOT EXISTS invitations (
		token TEXT PRIMARY KEY,
		scope TEXT NOT NULL DEFAULT 'organization',
		email TEXT NOT NULL DEFAULT '',
		display_name TEXT NOT NULL DEFAULT '',
		roles JSONB NOT NULL,
		organization_id TEXT REFERENCES organizations(id),
		organization_ids JSONB,
		property_id TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		invited_by TEXT NOT NULL DEFAULT '',
		invited_by_role TEXT NOT NULL DEFAULT '',
		campaign_id UUID REFERENCES campaigns(id) ON DELETE SET NULL,
		extra JSONB,
		expires_at TIMESTAMPTZ NOT NULL,
		accepted_by TEXT,
		accepted_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT invitation_scope_valid CHECK (scope IN ('organization', 'global')),
		CONSTRAINT invitation_status_valid CHECK (status IN ('pending', 'accepted', 'expired', 'revoked')),
		CONSTRAINT invitation_org_scope CHECK (scope = 'global' OR organization_id IS NOT NULL)
	);

	CREATE INDEX IF NOT EXISTS invitations_campaign_idx ON invitations (campaign_id) WHERE campaign_id IS NOT NULL;
	CREATE INDEX IF NOT EXISTS invitations_org_idx ON invitations (organization_id) WHERE organization_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS organization_users (
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		account_id UUID NOT NULL REFERENCES accounts(id),
		email TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		invited_by TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT organization_users_pkey PRIMARY KEY (organization_id, account_id)
	);

	CREATE TABLE IF NOT EXISTS residents (
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		property_id TEXT NOT NULL REFERENCES properties(id),
		account_id UUID NOT NULL REFERENCES accounts(id),
		email TEXT NOT NULL,
		display_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		invited_by TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT residents_pkey PRIMARY KEY (organization_id, property_id, account_id)
	);

	CREATE TABLE IF NOT EXISTS mail (
		id UUID PRIMARY KEY,
		recipient TEXT NOT NULL,
		template_name TEXT NOT NULL,
		template_data JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// ApplySchema creates the core tables on a test database
func ApplySchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

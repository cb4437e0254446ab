package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casaflow/casaflow-backend/internal/identity/token"
	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

func newManager(secret string, expiry time.Duration) *token.Manager {
	return token.NewManager(&config.JWTConfig{
		Secret:       secret,
		AccessExpiry: expiry,
		Issuer:       "casaflow-test",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	mgr := newManager("test-secret-key", time.Hour)

	access := &domain.AccessClaims{
		Roles:          []string{"resident"},
		OrganizationID: "org1",
		PropertyID:     "propA",
	}
	signed, expiresAt, err := mgr.GenerateAccessToken("acct-1", "alice@example.com", "Alice Chen", access)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	c, err := mgr.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "acct-1", c.ID)
	assert.Equal(t, "alice@example.com", c.Email)
	assert.Equal(t, "Alice Chen", c.DisplayName)
	assert.Equal(t, []roles.Role{roles.Resident}, c.Roles)
	assert.Equal(t, "org1", c.OrganizationID)
	assert.Equal(t, "propA", c.PropertyID)
}

func TestAccessTokenOrganizationManagerScope(t *testing.T) {
	mgr := newManager("test-secret-key", time.Hour)

	access := &domain.AccessClaims{
		Roles:           []string{"organization_manager"},
		OrganizationIDs: []string{"org1", "org2"},
	}
	signed, _, err := mgr.GenerateAccessToken("acct-2", "om@example.com", "Olivia Park", access)
	require.NoError(t, err)

	c, err := mgr.VerifyAccessToken(signed)
	require.NoError(t, err)
	assert.Equal(t, []string{"org1", "org2"}, c.OrganizationIDs)
	assert.Empty(t, c.OrganizationID)
}

func TestVerifyAccessTokenRejections(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		signed, _, err := newManager("secret-a", time.Hour).
			GenerateAccessToken("acct-1", "a@x.com", "A", &domain.AccessClaims{Roles: []string{"resident"}, OrganizationID: "org1", PropertyID: "p"})
		require.NoError(t, err)

		_, err = newManager("secret-b", time.Hour).VerifyAccessToken(signed)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
	})

	t.Run("expired token", func(t *testing.T) {
		mgr := newManager("test-secret-key", -time.Minute)
		signed, _, err := mgr.GenerateAccessToken("acct-1", "a@x.com", "A", &domain.AccessClaims{Roles: []string{"resident"}, OrganizationID: "org1", PropertyID: "p"})
		require.NoError(t, err)

		_, err = mgr.VerifyAccessToken(signed)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTokenExpired))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := newManager("test-secret-key", time.Hour).VerifyAccessToken("not.a.jwt")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrTokenInvalid))
	})
}

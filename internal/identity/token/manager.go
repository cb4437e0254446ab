// Package token issues and verifies the access tokens carrying the
// role and scope claims minted at signup.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/caller"
	"github.com/casaflow/casaflow-backend/pkg/config"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/roles"
)

// Claims is the JWT claim set for an access token
type Claims struct {
	jwt.RegisteredClaims
	Email           string   `json:"email"`
	DisplayName     string   `json:"name"`
	Roles           []string `json:"roles"`
	OrganizationID  string   `json:"organizationId,omitempty"`
	OrganizationIDs []string `json:"organizationIds,omitempty"`
	PropertyID      string   `json:"propertyId,omitempty"`
}

// Manager handles JWT operations
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// GenerateAccessToken signs an access token for the account carrying
// the given access claims.
func (m *Manager) GenerateAccessToken(accountID, email, displayName string, access *domain.AccessClaims) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(m.config.AccessExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   accountID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		Email:           email,
		DisplayName:     displayName,
		Roles:           access.Roles,
		OrganizationID:  access.OrganizationID,
		OrganizationIDs: access.OrganizationIDs,
		PropertyID:      access.PropertyID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken validates a token and returns the caller identity
// it proves. Unknown role strings are dropped rather than rejected so
// tokens minted by newer deployments still verify.
func (m *Manager) VerifyAccessToken(tokenString string) (*caller.Caller, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.TokenInvalid()
	}

	parsed, _ := roles.ParseAll(claims.Roles)

	return &caller.Caller{
		ID:              claims.Subject,
		Email:           claims.Email,
		DisplayName:     claims.DisplayName,
		Roles:           parsed,
		OrganizationID:  claims.OrganizationID,
		OrganizationIDs: claims.OrganizationIDs,
		PropertyID:      claims.PropertyID,
	}, nil
}

// GetTokenExpiry returns the access token expiry duration
func (m *Manager) GetTokenExpiry() time.Duration {
	return m.config.AccessExpiry
}

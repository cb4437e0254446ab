// Package service provisions login accounts for signup and staff
// management flows.
package service

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/casaflow/casaflow-backend/internal/identity/domain"
	"github.com/casaflow/casaflow-backend/pkg/errors"
	"github.com/casaflow/casaflow-backend/pkg/logger"
)

// accountStore is the persistence surface the provider needs
type accountStore interface {
	Create(ctx context.Context, acc *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetClaims(ctx context.Context, id string, claims any) error
	UpdateDisplayName(ctx context.Context, id, displayName string) error
	SetDisabled(ctx context.Context, id string, disabled bool) error
	Delete(ctx context.Context, id string) error
}

// eventPublisher pushes account lifecycle events to the broker
type eventPublisher interface {
	PublishAccountProvisioned(ctx context.Context, acc *domain.Account)
	PublishAccountDisabled(ctx context.Context, accountID string)
}

// Provider manages account lifecycle on top of the account store
type Provider struct {
	accounts accountStore
	events   eventPublisher
	logger   *logger.Logger
}

// NewProvider creates a new account provider
func NewProvider(accounts accountStore, events eventPublisher, log *logger.Logger) *Provider {
	return &Provider{
		accounts: accounts,
		events:   events,
		logger:   log.WithComponent("identity"),
	}
}

// EnsureAccountParams describes the identity being provisioned. Either
// AccountID references an existing account, or Password is set and a
// new account is created.
type EnsureAccountParams struct {
	AccountID   string
	Email       string
	Password    string
	DisplayName string
}

// EnsureAccount resolves an existing account by ID or creates a fresh
// one with a hashed password.
func (p *Provider) EnsureAccount(ctx context.Context, params EnsureAccountParams) (*domain.Account, error) {
	if params.AccountID != "" {
		acc, err := p.accounts.GetByID(ctx, params.AccountID)
		if err != nil {
			return nil, err
		}
		if acc.Disabled {
			return nil, errors.FailedPrecondition("account is disabled")
		}
		return acc, nil
	}

	if params.Password == "" {
		return nil, errors.InvalidArgument("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal("failed to hash password")
	}

	acc := &domain.Account{
		Email:        params.Email,
		PasswordHash: string(hash),
		DisplayName:  params.DisplayName,
	}
	if err := p.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	p.logger.Info().Str("account_id", acc.ID).Msg("account created")
	p.events.PublishAccountProvisioned(ctx, acc)
	return acc, nil
}

// ApplyClaims mirrors the minted access claims onto the account record
func (p *Provider) ApplyClaims(ctx context.Context, accountID string, claims any) error {
	return p.accounts.SetClaims(ctx, accountID, claims)
}

// GetAccount fetches one account by ID
func (p *Provider) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return p.accounts.GetByID(ctx, id)
}

// GetAccountByEmail fetches one account by email
func (p *Provider) GetAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return p.accounts.GetByEmail(ctx, email)
}

// UpdateDisplayName changes the display name on the account
func (p *Provider) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	return p.accounts.UpdateDisplayName(ctx, id, displayName)
}

// DisableAccount blocks future logins without deleting the record
func (p *Provider) DisableAccount(ctx context.Context, id string) error {
	if err := p.accounts.SetDisabled(ctx, id, true); err != nil {
		return err
	}
	p.logger.Info().Str("account_id", id).Msg("account disabled")
	p.events.PublishAccountDisabled(ctx, id)
	return nil
}

// DeleteAccount removes the account entirely
func (p *Provider) DeleteAccount(ctx context.Context, id string) error {
	if err := p.accounts.Delete(ctx, id); err != nil {
		return err
	}
	p.logger.Info().Str("account_id", id).Msg("account deleted")
	return nil
}

package service

import (
	"context"

	"github.com/jmoiron/sqlx"

	identitydomain "github.com/casaflow/casaflow-backend/internal/identity/domain"
	identity "github.com/casaflow/casaflow-backend/internal/identity/service"
	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
)

// Collaborator surfaces the services depend on. Declared here so unit
// tests can substitute in-memory fakes for the Postgres, MinIO, and
// RabbitMQ implementations.

type invitationStore interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	CreateTx(ctx context.Context, ext sqlx.ExtContext, inv *domain.Invitation) error
	Resolve(ctx context.Context, token, orgHint string) (*domain.Invitation, domain.Ref, error)
	GetByToken(ctx context.Context, token string) (*domain.Invitation, error)
	MarkAccepted(ctx context.Context, ref domain.Ref, accountID string) error
	MarkRevoked(ctx context.Context, ref domain.Ref) error
}

type campaignStore interface {
	Create(ctx context.Context, c *domain.Campaign) error
	GetByID(ctx context.Context, organizationID, propertyID, id string) (*domain.Campaign, error)
	GetActiveByID(ctx context.Context, id string) (*domain.Campaign, error)
	ListByProperty(ctx context.Context, organizationID, propertyID string) ([]*domain.Campaign, error)
	UpdateStatus(ctx context.Context, id string, status domain.CampaignStatus, detail *string) error
	SetAccessURL(ctx context.Context, id, accessURL string) error
	FinishProcessing(ctx context.Context, id string, invited int, status domain.CampaignStatus) error
	Delete(ctx context.Context, id string) error
	IncrementAccepted(ctx context.Context, campaignID string) error
}

type directoryStore interface {
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	GetProperty(ctx context.Context, organizationID, propertyID string) (*domain.Property, error)
	CreateOrganizationUser(ctx context.Context, ext sqlx.ExtContext, u *domain.OrganizationUser) error
	CreateResident(ctx context.Context, ext sqlx.ExtContext, res *domain.Resident) error
}

type mailStore interface {
	Enqueue(ctx context.Context, ext sqlx.ExtContext, msg *domain.MailMessage) error
}

type rosterStore interface {
	Download(ctx context.Context, objectPath string) ([]byte, error)
	MoveToProcessed(ctx context.Context, objectPath string)
	MoveToFailed(ctx context.Context, objectPath string)
}

type eventPublisher interface {
	PublishInvitationCreated(ctx context.Context, inv *domain.Invitation)
	PublishInvitationAccepted(ctx context.Context, inv *domain.Invitation, accountID string)
	PublishInvitationRevoked(ctx context.Context, token string)
	PublishCampaignCreated(ctx context.Context, c *domain.Campaign)
	PublishCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus, detail string)
}

type accountProvider interface {
	EnsureAccount(ctx context.Context, params identity.EnsureAccountParams) (*identitydomain.Account, error)
	ApplyClaims(ctx context.Context, accountID string, claims any) error
}

// transactor batches multiple writes into one transaction. The sqlx.Tx
// handed to fn is passed through to the stores' Tx-aware methods.
type transactor interface {
	Transaction(ctx context.Context, fn func(*sqlx.Tx) error) error
}

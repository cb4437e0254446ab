// Package events publishes account lifecycle events. Publishing is
// fire-and-log: a broker outage never fails the operation that
// triggered the event.
package events

import (
	"context"

	"github.com/casaflow/casaflow-backend/internal/identity/domain"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/messaging"
)

// AccountEventPublisher publishes account provisioning events
type AccountEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewAccountEventPublisher creates a new account event publisher. The
// source names the service publishing, since both binaries provision
// accounts.
func NewAccountEventPublisher(rmq *messaging.RabbitMQ, source string, log *logger.Logger) (*AccountEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAccountEvents, source, log)
	if err != nil {
		return nil, err
	}

	return &AccountEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishAccountProvisioned publishes an account provisioned event
func (p *AccountEventPublisher) PublishAccountProvisioned(ctx context.Context, acc *domain.Account) {
	data := messaging.AccountProvisionedEvent{
		AccountID:   acc.ID,
		Email:       acc.Email,
		DisplayName: acc.DisplayName,
	}

	if err := p.publisher.Publish(ctx, messaging.EventAccountProvisioned, data); err != nil {
		p.logger.Error().Err(err).Str("account_id", acc.ID).Msg("failed to publish account provisioned event")
	}
}

// PublishAccountDisabled publishes an account disabled event
func (p *AccountEventPublisher) PublishAccountDisabled(ctx context.Context, accountID string) {
	data := map[string]string{"account_id": accountID}

	if err := p.publisher.Publish(ctx, messaging.EventAccountDisabled, data); err != nil {
		p.logger.Error().Err(err).Str("account_id", accountID).Msg("failed to publish account disabled event")
	}
}

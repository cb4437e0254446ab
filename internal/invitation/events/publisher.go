// Package events publishes invitation lifecycle events. Publishing is
// fire-and-log: a broker outage never fails the operation that
// triggered the event.
package events

import (
	"context"

	"github.com/casaflow/casaflow-backend/internal/invitation/domain"
	"github.com/casaflow/casaflow-backend/pkg/logger"
	"github.com/casaflow/casaflow-backend/pkg/messaging"
)

// InvitationEventPublisher publishes invitation and campaign events
type InvitationEventPublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewInvitationEventPublisher creates a new invitation event publisher
func NewInvitationEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*InvitationEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeInvitationEvents, "invitation-service", log)
	if err != nil {
		return nil, err
	}

	return &InvitationEventPublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishInvitationCreated publishes an invitation created event
func (p *InvitationEventPublisher) PublishInvitationCreated(ctx context.Context, inv *domain.Invitation) {
	data := messaging.InvitationCreatedEvent{
		Token:           inv.Token,
		Email:           inv.Email,
		Roles:           inv.Roles.Strings(),
		OrganizationIDs: inv.OrganizationIDs,
		InvitedBy:       inv.InvitedBy,
	}
	if inv.OrganizationID != nil {
		data.OrganizationID = *inv.OrganizationID
	}
	if inv.PropertyID != nil {
		data.PropertyID = *inv.PropertyID
	}
	if inv.CampaignID != nil {
		data.CampaignID = *inv.CampaignID
	}

	if err := p.publisher.Publish(ctx, messaging.EventInvitationCreated, data); err != nil {
		p.logger.Error().Err(err).Str("token", inv.Token).Msg("failed to publish invitation created event")
	}
}

// PublishInvitationAccepted publishes an invitation accepted event
func (p *InvitationEventPublisher) PublishInvitationAccepted(ctx context.Context, inv *domain.Invitation, accountID string) {
	data := messaging.InvitationAcceptedEvent{
		Token:     inv.Token,
		AccountID: accountID,
		Email:     inv.Email,
		Roles:     inv.Roles.Strings(),
	}
	if inv.CampaignID != nil {
		data.CampaignID = *inv.CampaignID
	}

	if err := p.publisher.Publish(ctx, messaging.EventInvitationAccepted, data); err != nil {
		p.logger.Error().Err(err).Str("token", inv.Token).Msg("failed to publish invitation accepted event")
	}
}

// PublishInvitationRevoked publishes an invitation revoked event
func (p *InvitationEventPublisher) PublishInvitationRevoked(ctx context.Context, token string) {
	data := map[string]string{"token": token}

	if err := p.publisher.Publish(ctx, messaging.EventInvitationRevoked, data); err != nil {
		p.logger.Error().Err(err).Str("token", token).Msg("failed to publish invitation revoked event")
	}
}

// PublishCampaignCreated publishes a campaign created event
func (p *InvitationEventPublisher) PublishCampaignCreated(ctx context.Context, c *domain.Campaign) {
	data := messaging.CampaignCreatedEvent{
		CampaignID:     c.ID,
		OrganizationID: c.OrganizationID,
		PropertyID:     c.PropertyID,
		Type:           string(c.Type),
		CreatedBy:      c.CreatedBy,
	}

	if err := p.publisher.Publish(ctx, messaging.EventCampaignCreated, data); err != nil {
		p.logger.Error().Err(err).Str("campaign_id", c.ID).Msg("failed to publish campaign created event")
	}
}

// PublishCampaignStatus publishes a campaign status transition event.
// The routing key depends on the status reached.
func (p *InvitationEventPublisher) PublishCampaignStatus(ctx context.Context, campaignID string, status domain.CampaignStatus, detail string) {
	eventType := messaging.EventCampaignActivated
	switch status {
	case domain.CampaignStatusCompleted:
		eventType = messaging.EventCampaignCompleted
	case domain.CampaignStatusError:
		eventType = messaging.EventCampaignFailed
	}

	data := messaging.CampaignStatusEvent{
		CampaignID: campaignID,
		Status:     string(status),
		Detail:     detail,
	}

	if err := p.publisher.Publish(ctx, eventType, data); err != nil {
		p.logger.Error().Err(err).Str("campaign_id", campaignID).Msg("failed to publish campaign status event")
	}
}

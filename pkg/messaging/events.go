package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Invitation events
	EventInvitationCreated  = "invitation.created"
	EventInvitationAccepted = "invitation.accepted"
	EventInvitationRevoked  = "invitation.revoked"

	// Campaign events
	EventCampaignCreated   = "campaign.created"
	EventCampaignActivated = "campaign.activated"
	EventCampaignCompleted = "campaign.completed"
	EventCampaignFailed    = "campaign.failed"

	// Account events
	EventAccountProvisioned = "account.provisioned"
	EventAccountDisabled    = "account.disabled"
)

// Exchange names
const (
	ExchangeInvitationEvents = "invitation.events"
	ExchangeAccountEvents    = "account.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// InvitationCreatedEvent is published when an invitation is issued
type InvitationCreatedEvent struct {
	Token           string   `json:"token"`
	Email           string   `json:"email"`
	Roles           []string `json:"roles"`
	OrganizationID  string   `json:"organization_id,omitempty"`
	OrganizationIDs []string `json:"organization_ids,omitempty"`
	PropertyID      string   `json:"property_id,omitempty"`
	CampaignID      string   `json:"campaign_id,omitempty"`
	InvitedBy       string   `json:"invited_by"`
}

// InvitationAcceptedEvent is published when a signup completes
type InvitationAcceptedEvent struct {
	Token      string   `json:"token"`
	AccountID  string   `json:"account_id"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	CampaignID string   `json:"campaign_id,omitempty"`
}

// CampaignCreatedEvent is published when a campaign is created
type CampaignCreatedEvent struct {
	CampaignID     string `json:"campaign_id"`
	OrganizationID string `json:"organization_id"`
	PropertyID     string `json:"property_id"`
	Type           string `json:"type"`
	CreatedBy      string `json:"created_by"`
}

// CampaignStatusEvent is published on campaign status transitions
type CampaignStatusEvent struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
}

// AccountProvisionedEvent is published when a signup or staff flow
// creates an account. Role context travels on the invitation events.
type AccountProvisionedEvent struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

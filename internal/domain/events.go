package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события леджера
type EventType string

const (
	EventSubscriptionCreated   EventType = "subscription.created"
	EventSubscriptionRenewed   EventType = "subscription.renewed"
	EventSubscriptionCancelled EventType = "subscription.cancelled"
	EventTierUpdated           EventType = "tier.updated"
	EventProcessorUpdated      EventType = "processor.updated"
	EventPaymentReceived       EventType = "payment.received"
	EventFundsWithdrawn        EventType = "funds.withdrawn"
	EventCredentialMinted      EventType = "credential.minted"
	EventCredentialBurned      EventType = "credential.burned"
)

// Event представляет событие, испускаемое контрактом при успешном вызове.
// События - единственный внешний аудиторский след леджера.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Account   Address   `json:"account,omitempty"`
	Tier      TierID    `json:"tier,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Expiry    uint64    `json:"expiry,omitempty"`
	TokenID   uint64    `json:"token_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent создает новое событие с заполненным ID и временем
func NewEvent(eventType EventType, ts time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: ts,
	}
}

package logistics

import (
	"time"
)

// MessageType classifies a provider message
type MessageType string

const (
	MessageTypeInboundReceipt      MessageType = "INBOUND_RECEIPT"
	MessageTypeOrderStatusChange   MessageType = "ORDER_STATUS_CHANGE"
	MessageTypeShipOrder           MessageType = "SHIP_ORDER"
	MessageTypeInboundStatusChange MessageType = "INBOUND_STATUS_CHANGE"
	MessageTypeSnapshot            MessageType = "SNAPSHOT"
)

// IsValid checks if the message type is known
func (t MessageType) IsValid() bool {
	switch t {
	case MessageTypeInboundReceipt, MessageTypeOrderStatusChange, MessageTypeShipOrder,
		MessageTypeInboundStatusChange, MessageTypeSnapshot:
		return true
	}
	return false
}

// LogisticsEvent is a raw provider payload as received. It is never modified
// after it is stored.
type LogisticsEvent struct {
	ID          int64
	Provider    Provider
	MessageType MessageType
	Body        []byte
	// DedupeKey is the transport delivery id, empty when the transport has
	// none. Payloads without one are all stored: a repeated status is a new
	// fact, not a redelivery.
	DedupeKey string
	// SourceRef names the origin of the payload (queue, file name)
	SourceRef string
	// OccurredAt is set when the transport carries the payload time, as for
	// snapshot files whose time is encoded in the file name
	OccurredAt *time.Time
	ReceivedAt time.Time
}

// NewLogisticsEvent creates an event keyed by the transport delivery id
func NewLogisticsEvent(provider Provider, messageType MessageType, body []byte, deliveryID string) *LogisticsEvent {
	return &LogisticsEvent{
		Provider:    provider,
		MessageType: messageType,
		Body:        body,
		DedupeKey:   deliveryID,
		ReceivedAt:  time.Now().UTC(),
	}
}

// HasDeliveryID reports whether the event can be deduplicated
func (e *LogisticsEvent) HasDeliveryID() bool {
	return e.DedupeKey != ""
}

// EffectiveTime returns OccurredAt when set, otherwise ReceivedAt
func (e *LogisticsEvent) EffectiveTime() time.Time {
	if e.OccurredAt != nil {
		return *e.OccurredAt
	}
	return e.ReceivedAt
}

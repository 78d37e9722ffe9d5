package logistics

import "time"

// Message is a decoded provider message
type Message interface {
	Type() MessageType
}

// OrderRef identifies an order referenced by a provider. Providers send the
// order number. Older Orian outbounds used the mapped numeric id, kept in
// LegacyID as a fallback.
type OrderRef struct {
	OrderNumber string
	LegacyID    int64
}

// OrderStatusChange reports a new provider status for an outbound order
type OrderStatusChange struct {
	Order  OrderRef
	Status string
	At     time.Time
}

// Type implements Message
func (OrderStatusChange) Type() MessageType { return MessageTypeOrderStatusChange }

// ShipNotice reports that an outbound order shipped. Status may be empty
// when the provider only sends the shipping number.
type ShipNotice struct {
	Order          OrderRef
	Status         string
	At             time.Time
	ShippingNumber string
}

// Type implements Message
func (ShipNotice) Type() MessageType { return MessageTypeShipOrder }

// InboundStatusChange reports a new provider status for a purchase order
type InboundStatusChange struct {
	PurchaseOrderID   int64
	LogisticsCenterID string
	Status            string
	At                time.Time
}

// Type implements Message
func (InboundStatusChange) Type() MessageType { return MessageTypeInboundStatusChange }

// InboundReceiptLine is one received product line
type InboundReceiptLine struct {
	LineNumber int
	// PurchaseOrderID is set when the provider names the purchase order per line
	PurchaseOrderID int64
	SKU             string
	Quantity        int
}

// InboundReceipt reports goods received against purchase orders
type InboundReceipt struct {
	Code string
	// LogisticsCenterID is set when the provider names the purchase order by
	// its own identifier instead of per line
	LogisticsCenterID string
	Status            string
	StartedAt         time.Time
	ClosedAt          *time.Time
	Lines             []InboundReceiptLine
}

// Type implements Message
func (InboundReceipt) Type() MessageType { return MessageTypeInboundReceipt }

// StockSnapshot is a full stock report
type StockSnapshot struct {
	TakenAt time.Time
	Lines   []SnapshotLine
}

// Type implements Message
func (StockSnapshot) Type() MessageType { return MessageTypeSnapshot }

// MessageDecoder turns stored events of one provider into messages
type MessageDecoder interface {
	Provider() Provider

	// Classify maps a provider message name to a MessageType
	Classify(wireType string) (MessageType, bool)

	// Decode parses the event body. Missing required fields yield
	// ErrMalformedMessage and unsupported types ErrUnknownMessageType.
	Decode(event *LogisticsEvent) (Message, error)
}

package logistics

import "time"

// Receipt is a stored inbound receipt
type Receipt struct {
	ID        int64
	Provider  Provider
	Code      string
	Status    string
	StartedAt time.Time
	ClosedAt  *time.Time
	EventID   int64
	Lines     []ReceiptLine
}

// ReceiptLine is a stored received quantity for a purchase order line
type ReceiptLine struct {
	ID                      int64
	ReceiptID               int64
	LineNumber              int
	PurchaseOrderLineItemID int64
	SKU                     string
	QuantityReceived        int
	EventID                 int64
}

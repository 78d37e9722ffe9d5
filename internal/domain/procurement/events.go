package procurement

import "github.com/giftcampaign/backend/internal/domain/shared"

// Aggregate type constant
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants
const (
	EventTypeCreated        = "PurchaseOrderCreated"
	EventTypeSentToSupplier = "PurchaseOrderSentToSupplier"
	EventTypeApproved       = "PurchaseOrderApproved"
	EventTypeCancelled      = "PurchaseOrderCancelled"
)

// CreatedEvent is raised when a purchase order is created
type CreatedEvent struct {
	shared.BaseDomainEvent
	SupplierID int64 `json:"supplier_id"`
	LineCount  int   `json:"line_count"`
}

// NewCreatedEvent creates a new CreatedEvent
func NewCreatedEvent(po *PurchaseOrder) *CreatedEvent {
	return &CreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreated, AggregateTypePurchaseOrder, po.ID),
		SupplierID:      po.SupplierID,
		LineCount:       len(po.LineItems),
	}
}

// SentToSupplierEvent is raised when the order is sent to the supplier
type SentToSupplierEvent struct {
	shared.BaseDomainEvent
	SupplierID int64 `json:"supplier_id"`
}

// NewSentToSupplierEvent creates a new SentToSupplierEvent
func NewSentToSupplierEvent(po *PurchaseOrder) *SentToSupplierEvent {
	return &SentToSupplierEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSentToSupplier, AggregateTypePurchaseOrder, po.ID),
		SupplierID:      po.SupplierID,
	}
}

// ApprovedEvent is raised once the provider acknowledged the inbound shipment
type ApprovedEvent struct {
	shared.BaseDomainEvent
	Provider          string `json:"provider"`
	LogisticsCenterID string `json:"logistics_center_id"`
}

// NewApprovedEvent creates a new ApprovedEvent
func NewApprovedEvent(po *PurchaseOrder) *ApprovedEvent {
	return &ApprovedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeApproved, AggregateTypePurchaseOrder, po.ID),
		Provider:          po.LogisticsProvider,
		LogisticsCenterID: po.LogisticsCenterID,
	}
}

// CancelledEvent is raised when a purchase order is cancelled
type CancelledEvent struct {
	shared.BaseDomainEvent
}

// NewCancelledEvent creates a new CancelledEvent
func NewCancelledEvent(po *PurchaseOrder) *CancelledEvent {
	return &CancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCancelled, AggregateTypePurchaseOrder, po.ID),
	}
}

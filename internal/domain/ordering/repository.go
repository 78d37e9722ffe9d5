package ordering

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CandidateQuery selects unattached line items for allocation.
// Zero-valued optional fields do not filter.
type CandidateQuery struct {
	ProductID      int64
	VoucherValue   *decimal.Decimal
	CampaignID     int64
	OrganizationID int64
	Variations     map[string]string
}

// OrderRepository reads orders and writes their logistics fields
type OrderRepository interface {
	// FindByID loads an order with its employee group and line items
	FindByID(ctx context.Context, id int64) (*Order, error)

	// FindByOrderNumber loads an order by the number sent to providers
	FindByOrderNumber(ctx context.Context, orderNumber string) (*Order, error)

	// SaveLogistics persists status and logistics fields of an order
	SaveLogistics(ctx context.Context, order *Order) error

	// SetLogisticsStatus writes the projected provider status, stamping the
	// change time when the value differs from the stored one
	SetLogisticsStatus(ctx context.Context, orderID int64, status string, at time.Time) error

	// SetShippingNumber stores the carrier shipping number
	SetShippingNumber(ctx context.Context, orderID int64, shippingNumber string) error
}

// LineItemRepository manages allocation links of order line items
type LineItemRepository interface {
	// FindCandidates returns unattached line items in stable allocation order.
	// Implementations lock the returned rows for the enclosing transaction.
	FindCandidates(ctx context.Context, q CandidateQuery) ([]OrderLineItem, error)

	// FindAttached returns the line items attached to a purchase order line in stable order
	FindAttached(ctx context.Context, purchaseOrderLineItemID int64) ([]OrderLineItem, error)

	// Attach links unattached line items to a purchase order line.
	// It fails with a concurrency conflict if any item was attached meanwhile.
	Attach(ctx context.Context, ids []int64, purchaseOrderLineItemID int64) error

	// Detach clears the link of line items attached to the given purchase order line
	Detach(ctx context.Context, ids []int64, purchaseOrderLineItemID int64) error
}

package procurement

import (
	"context"

	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
)

// ListFilter narrows purchase order listings
type ListFilter struct {
	shared.Filter
	Status     Status
	SupplierID int64
	Range      *IDRange
}

// PurchaseOrderRepository defines persistence operations for purchase orders
type PurchaseOrderRepository interface {
	// FindByID loads a purchase order with its supplier and line products
	FindByID(ctx context.Context, id int64) (*PurchaseOrder, error)

	// FindByIDs loads several purchase orders keyed by id
	FindByIDs(ctx context.Context, ids []int64) (map[int64]*PurchaseOrder, error)

	// FindAll lists purchase orders without line products
	FindAll(ctx context.Context, filter ListFilter) ([]PurchaseOrder, int64, error)

	// ListIDs returns every purchase order id ascending
	ListIDs(ctx context.Context) ([]int64, error)

	// Create inserts the order and its lines, assigning ids
	Create(ctx context.Context, po *PurchaseOrder) error

	// UpdateLineQuantity stores a new ordered quantity for a line
	UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error

	// UpdateStatus changes the status when the stored version matches,
	// returning shared.ErrConcurrencyConflict otherwise
	UpdateStatus(ctx context.Context, po *PurchaseOrder, expectedVersion int) error

	// ApplyApproval persists MarkApproved: status, acknowledgement fields and
	// line quantities sent, only while the stored row is still approvable at
	// expectedVersion
	ApplyApproval(ctx context.Context, po *PurchaseOrder, expectedVersion int) error

	// SetLogisticsStatus writes the projected provider status
	SetLogisticsStatus(ctx context.Context, id int64, status string) error

	// SetLogisticsCenterID stores the provider's identifier for the order
	SetLogisticsCenterID(ctx context.Context, id int64, logisticsCenterID string) error

	// FindLineByProductSKU resolves the line of a purchase order carrying sku
	FindLineByProductSKU(ctx context.Context, purchaseOrderID int64, sku string) (*LineItem, error)

	// FindByLogisticsCenterID loads the purchase order a provider knows by
	// its own identifier
	FindByLogisticsCenterID(ctx context.Context, provider, logisticsCenterID string) (*PurchaseOrder, error)
}

// ProductSupply aggregates purchase order quantities of one product
type ProductSupply struct {
	ProductID int64
	// SentToSupplier is ordered on purchase orders awaiting approval
	SentToSupplier int
	// SentToLogistics is announced to the warehouse
	SentToLogistics int
	// Received is the quantity the warehouse reported as received
	Received int
}

// SummaryRepository reads the inputs of the order summary
type SummaryRepository interface {
	// OpenDemand returns line items of orders awaiting shipment with their
	// products and bundle constituents loaded. A zero campaignID reads all
	// campaigns.
	OpenDemand(ctx context.Context, campaignID int64) ([]ordering.OrderLineItem, error)

	// SupplyByProduct aggregates purchase order lines per product
	SupplyByProduct(ctx context.Context, productIDs []int64) (map[int64]ProductSupply, error)
}

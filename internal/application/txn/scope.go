// Package txn defines the unit of work application services use to run
// several repository calls atomically.
package txn

import (
	"context"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
)

// Repositories gives access to repositories bound to one transaction.
type Repositories interface {
	Products() catalog.ProductRepository
	Orders() ordering.OrderRepository
	LineItems() ordering.LineItemRepository
	PurchaseOrders() procurement.PurchaseOrderRepository
	Events() logistics.EventRepository
	Statuses() logistics.StatusRepository
	Snapshots() logistics.SnapshotRepository
	Receipts() logistics.ReceiptRepository
	// Tasks enqueues tasks that become visible only if the transaction commits
	Tasks() shared.TaskQueue
}

// TransactionScope runs fn in a transaction, rolling back when it returns an error.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

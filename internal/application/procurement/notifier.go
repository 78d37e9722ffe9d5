package procurement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RoutingKeySentToSupplier is the routing key of supplier notifications
const RoutingKeySentToSupplier = "purchase_order.sent_to_supplier"

// Publisher sends a message to the broker
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// NopPublisher drops messages. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(ctx context.Context, routingKey string, _ []byte) error {
	logger.L(ctx).Debug("no broker configured, message dropped", zap.String("routing_key", routingKey))
	return nil
}

// SupplierOrderMessage is the purchase order as mailed to the supplier
type SupplierOrderMessage struct {
	PurchaseOrderID int64                      `json:"purchase_order_id"`
	SupplierID      int64                      `json:"supplier_id"`
	SupplierName    string                     `json:"supplier_name"`
	SupplierEmail   string                     `json:"supplier_email"`
	Notes           string                     `json:"notes"`
	Lines           []SupplierOrderMessageLine `json:"lines"`
	TotalCost       decimal.Decimal            `json:"total_cost"`
	SentAt          time.Time                  `json:"sent_at"`
}

// SupplierOrderMessageLine is one ordered product
type SupplierOrderMessageLine struct {
	SKU          string            `json:"sku"`
	Reference    string            `json:"reference"`
	Name         string            `json:"name"`
	Quantity     int               `json:"quantity"`
	CostPrice    decimal.Decimal   `json:"cost_price"`
	VoucherValue *decimal.Decimal  `json:"voucher_value,omitempty"`
	Variations   map[string]string `json:"variations,omitempty"`
}

// SupplierNotifier publishes purchase orders for the mailing collaborator
type SupplierNotifier struct {
	scope     txn.TransactionScope
	publisher Publisher
	now       func() time.Time
}

// NewSupplierNotifier creates a notifier. A nil publisher drops messages.
func NewSupplierNotifier(scope txn.TransactionScope, publisher Publisher) *SupplierNotifier {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &SupplierNotifier{scope: scope, publisher: publisher, now: time.Now}
}

// HandleTask runs TaskNotifySupplier
func (n *SupplierNotifier) HandleTask(ctx context.Context, task *shared.Task) error {
	var args NotifySupplierArgs
	if err := task.DecodeArgs(&args); err != nil {
		return err
	}
	return n.Notify(ctx, args.PurchaseOrderID)
}

// Notify publishes the order unless it was cancelled meanwhile
func (n *SupplierNotifier) Notify(ctx context.Context, purchaseOrderID int64) error {
	var po *procurement.PurchaseOrder
	if err := n.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByID(ctx, purchaseOrderID)
		return err
	}); err != nil {
		return fmt.Errorf("load purchase order %d: %w", purchaseOrderID, err)
	}
	if po.Status == procurement.StatusCancelled {
		logger.L(ctx).Info("purchase order cancelled, supplier not notified", zap.Int64("purchase_order_id", po.ID))
		return nil
	}

	body, err := json.Marshal(n.message(po))
	if err != nil {
		return err
	}
	if err := n.publisher.Publish(ctx, RoutingKeySentToSupplier, body); err != nil {
		return fmt.Errorf("publish purchase order %d: %w", po.ID, err)
	}
	logger.L(ctx).Info("supplier notification published",
		zap.Int64("purchase_order_id", po.ID),
		zap.Int64("supplier_id", po.SupplierID),
	)
	return nil
}

func (n *SupplierNotifier) message(po *procurement.PurchaseOrder) SupplierOrderMessage {
	msg := SupplierOrderMessage{
		PurchaseOrderID: po.ID,
		SupplierID:      po.SupplierID,
		Notes:           po.Notes,
		TotalCost:       po.TotalCost(),
		SentAt:          n.now().UTC(),
		Lines:           make([]SupplierOrderMessageLine, 0, len(po.LineItems)),
	}
	if po.Supplier != nil {
		msg.SupplierName = po.Supplier.Name
		msg.SupplierEmail = po.Supplier.Email
	}
	for _, li := range po.LineItems {
		line := SupplierOrderMessageLine{
			Quantity:     li.Quantity,
			VoucherValue: li.VoucherValue,
			Variations:   li.Variations,
		}
		if li.Product != nil {
			line.SKU = li.Product.SKU
			line.Reference = li.Product.Reference
			line.Name = li.Product.DisplayName()
			line.CostPrice = li.Product.CostPrice
		}
		msg.Lines = append(msg.Lines, line)
	}
	return msg
}

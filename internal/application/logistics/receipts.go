package logistics

import (
	"context"
	"fmt"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ReceiptRecorder stores inbound receipts against purchase order lines.
// Purchase order statuses come only from the provider's inbound status messages.
type ReceiptRecorder struct {
	scope txn.TransactionScope
}

// NewReceiptRecorder creates a recorder
func NewReceiptRecorder(scope txn.TransactionScope) *ReceiptRecorder {
	return &ReceiptRecorder{scope: scope}
}

// Record upserts the receipt and its lines. Every lookup happens before any
// write, so an unknown purchase order or SKU leaves nothing behind.
func (r *ReceiptRecorder) Record(ctx context.Context, provider logistics.Provider, msg logistics.InboundReceipt, eventID int64) error {
	return r.scope.Execute(ctx, func(repos txn.Repositories) error {
		var poIDs []int64
		seen := make(map[int64]struct{})
		addPO := func(id int64) {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				poIDs = append(poIDs, id)
			}
		}

		var receiptPO int64
		if msg.LogisticsCenterID != "" {
			po, err := repos.PurchaseOrders().FindByLogisticsCenterID(ctx, string(provider), msg.LogisticsCenterID)
			if err != nil {
				return fmt.Errorf("purchase order %q: %w", msg.LogisticsCenterID, err)
			}
			receiptPO = po.ID
			addPO(po.ID)
		}

		receipt := &logistics.Receipt{
			Provider:  provider,
			Code:      msg.Code,
			Status:    msg.Status,
			StartedAt: msg.StartedAt,
			ClosedAt:  msg.ClosedAt,
			EventID:   eventID,
		}
		for _, l := range msg.Lines {
			poID := l.PurchaseOrderID
			if poID == 0 {
				poID = receiptPO
			}
			if poID == 0 {
				return fmt.Errorf("%w: receipt %s line %d names no purchase order", logistics.ErrMalformedMessage, msg.Code, l.LineNumber)
			}
			line, err := repos.PurchaseOrders().FindLineByProductSKU(ctx, poID, l.SKU)
			if err != nil {
				return fmt.Errorf("receipt %s line %d (purchase order %d, sku %s): %w", msg.Code, l.LineNumber, poID, l.SKU, err)
			}
			addPO(poID)
			receipt.Lines = append(receipt.Lines, logistics.ReceiptLine{
				LineNumber:              l.LineNumber,
				PurchaseOrderLineItemID: line.ID,
				SKU:                     l.SKU,
				QuantityReceived:        l.Quantity,
				EventID:                 eventID,
			})
		}

		if err := repos.Receipts().Upsert(ctx, receipt); err != nil {
			return fmt.Errorf("store receipt %s: %w", msg.Code, err)
		}

		logger.L(ctx).Info("receipt recorded",
			zap.String("receipt", msg.Code),
			zap.Int("lines", len(receipt.Lines)),
			zap.Int64s("purchase_order_ids", poIDs),
		)
		return nil
	})
}

package procurement

import (
	"context"
	"fmt"
	"time"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ApprovalExecutor announces a purchase order to the active warehouse and
// marks it approved once the provider acknowledged it
type ApprovalExecutor struct {
	scope     txn.TransactionScope
	providers *applogistics.Providers
	ledger    *applogistics.StatusLedger
	now       func() time.Time
}

// NewApprovalExecutor creates an executor
func NewApprovalExecutor(scope txn.TransactionScope, providers *applogistics.Providers, ledger *applogistics.StatusLedger) *ApprovalExecutor {
	return &ApprovalExecutor{
		scope:     scope,
		providers: providers,
		ledger:    ledger,
		now:       time.Now,
	}
}

// HandleTask runs TaskApprove
func (e *ApprovalExecutor) HandleTask(ctx context.Context, task *shared.Task) error {
	var args ApproveArgs
	if err := task.DecodeArgs(&args); err != nil {
		return err
	}
	return e.Approve(ctx, args.PurchaseOrderID)
}

// Approve syncs the supplier and every product, submits the inbound shipment
// and applies the acknowledgement. Any failure leaves the order untouched and
// is returned so the whole sequence is retried.
func (e *ApprovalExecutor) Approve(ctx context.Context, purchaseOrderID int64) error {
	var po *procurement.PurchaseOrder
	if err := e.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByID(ctx, purchaseOrderID)
		return err
	}); err != nil {
		return fmt.Errorf("load purchase order %d: %w", purchaseOrderID, err)
	}

	log := logger.L(ctx).With(zap.Int64("purchase_order_id", po.ID))
	switch po.Status {
	case procurement.StatusApproved:
		log.Info("purchase order already approved, nothing to do")
		return nil
	case procurement.StatusCancelled:
		log.Warn("purchase order cancelled before approval ran, skipping")
		return nil
	}
	if err := po.ValidateForApproval(); err != nil {
		return err
	}
	if po.Supplier == nil {
		return fmt.Errorf("purchase order %d: supplier %d: %w", po.ID, po.SupplierID, shared.ErrNotFound)
	}

	adapter, err := e.providers.Active()
	if err != nil {
		return err
	}
	expected := po.Version

	if err := adapter.SyncSupplier(ctx, po.Supplier); err != nil {
		return fmt.Errorf("sync supplier %d: %w", po.SupplierID, err)
	}
	for _, product := range po.DistinctProducts() {
		if err := adapter.SyncProduct(ctx, product); err != nil {
			return fmt.Errorf("sync product %s: %w", product.SKU, err)
		}
	}
	now := e.now()
	ack, err := adapter.SubmitInbound(ctx, logistics.BuildInboundShipment(po), now)
	if err != nil {
		return fmt.Errorf("submit inbound: %w", err)
	}

	provider := adapter.Provider()
	if err := po.MarkApproved(procurement.Approval{
		Provider:          string(provider),
		LogisticsCenterID: ack.LogisticsCenterID,
		LogisticsStatus:   ack.Status,
		SentAt:            now,
	}); err != nil {
		return err
	}
	if err := e.scope.Execute(ctx, func(repos txn.Repositories) error {
		if err := repos.PurchaseOrders().ApplyApproval(ctx, po, expected); err != nil {
			return err
		}
		if ack.Status == "" {
			return nil
		}
		return e.ledger.RecordStatusTx(ctx, repos, logistics.StatusRecord{
			EntityKind: logistics.EntityPurchaseOrder,
			EntityID:   po.ID,
			Provider:   provider,
			Status:     ack.Status,
			StatusAt:   now,
		})
	}); err != nil {
		return fmt.Errorf("apply approval: %w", err)
	}

	log.Info("purchase order approved",
		zap.String("provider", string(provider)),
		zap.String("logistics_center_id", ack.LogisticsCenterID),
		zap.String("logistics_status", ack.Status),
	)
	return nil
}

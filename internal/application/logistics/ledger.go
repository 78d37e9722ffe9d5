package logistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// StatusLedger appends provider statuses to the status history and projects
// the latest one onto the order or purchase order. Recording the same status
// twice changes nothing, and a record older than the latest never changes
// the visible status.
type StatusLedger struct {
	scope txn.TransactionScope
}

// NewStatusLedger creates a ledger
func NewStatusLedger(scope txn.TransactionScope) *StatusLedger {
	return &StatusLedger{scope: scope}
}

// RecordStatus appends a status and recomputes the projection in one transaction
func (l *StatusLedger) RecordStatus(ctx context.Context, record logistics.StatusRecord) error {
	return l.scope.Execute(ctx, func(repos txn.Repositories) error {
		return recordStatus(ctx, repos, record)
	})
}

// RecordStatusTx records within a transaction the caller already holds
func (l *StatusLedger) RecordStatusTx(ctx context.Context, repos txn.Repositories, record logistics.StatusRecord) error {
	return recordStatus(ctx, repos, record)
}

// RecordOrderStatus resolves the order a provider refers to and records its status
func (l *StatusLedger) RecordOrderStatus(ctx context.Context, provider logistics.Provider, change logistics.OrderStatusChange, eventID int64) error {
	return l.scope.Execute(ctx, func(repos txn.Repositories) error {
		order, err := resolveOrder(ctx, repos, change.Order)
		if err != nil {
			return err
		}
		return recordStatus(ctx, repos, logistics.StatusRecord{
			EntityKind: logistics.EntityOrder,
			EntityID:   order.ID,
			Provider:   provider,
			Status:     change.Status,
			StatusAt:   change.At,
			EventID:    eventID,
		})
	})
}

// RecordShipment records the shipping status and number of an order
func (l *StatusLedger) RecordShipment(ctx context.Context, provider logistics.Provider, notice logistics.ShipNotice, eventID int64) error {
	return l.scope.Execute(ctx, func(repos txn.Repositories) error {
		order, err := resolveOrder(ctx, repos, notice.Order)
		if err != nil {
			return err
		}
		if notice.ShippingNumber != "" {
			if err := repos.Orders().SetShippingNumber(ctx, order.ID, notice.ShippingNumber); err != nil {
				return err
			}
		}
		if notice.Status == "" {
			return nil
		}
		return recordStatus(ctx, repos, logistics.StatusRecord{
			EntityKind: logistics.EntityOrder,
			EntityID:   order.ID,
			Provider:   provider,
			Status:     notice.Status,
			StatusAt:   notice.At,
			EventID:    eventID,
		})
	})
}

// RecordInboundStatus records a purchase order status. The provider's own
// identifier, when sent, is stored on the purchase order.
func (l *StatusLedger) RecordInboundStatus(ctx context.Context, provider logistics.Provider, change logistics.InboundStatusChange, eventID int64) error {
	return l.scope.Execute(ctx, func(repos txn.Repositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, change.PurchaseOrderID)
		if err != nil {
			return fmt.Errorf("purchase order %d: %w", change.PurchaseOrderID, err)
		}
		if change.LogisticsCenterID != "" && change.LogisticsCenterID != po.LogisticsCenterID {
			if err := repos.PurchaseOrders().SetLogisticsCenterID(ctx, po.ID, change.LogisticsCenterID); err != nil {
				return err
			}
		}
		return recordStatus(ctx, repos, logistics.StatusRecord{
			EntityKind: logistics.EntityPurchaseOrder,
			EntityID:   po.ID,
			Provider:   provider,
			Status:     change.Status,
			StatusAt:   change.At,
			EventID:    eventID,
		})
	})
}

// recordStatus inserts the record and writes the latest status onto the entity
func recordStatus(ctx context.Context, repos txn.Repositories, record logistics.StatusRecord) error {
	created, err := repos.Statuses().Insert(ctx, &record)
	if err != nil {
		return fmt.Errorf("insert status record: %w", err)
	}
	latest, err := repos.Statuses().Latest(ctx, record.EntityKind, record.EntityID)
	if err != nil {
		return fmt.Errorf("load latest status: %w", err)
	}

	switch record.EntityKind {
	case logistics.EntityOrder:
		err = repos.Orders().SetLogisticsStatus(ctx, record.EntityID, latest.Status, latest.StatusAt)
	case logistics.EntityPurchaseOrder:
		err = repos.PurchaseOrders().SetLogisticsStatus(ctx, record.EntityID, latest.Status)
	default:
		err = fmt.Errorf("unknown status entity kind %q", record.EntityKind)
	}
	if err != nil {
		return err
	}

	logger.L(ctx).Debug("status recorded",
		zap.String("entity_kind", string(record.EntityKind)),
		zap.Int64("entity_id", record.EntityID),
		zap.String("status", record.Status),
		zap.Time("status_at", record.StatusAt),
		zap.Bool("created", created),
		zap.String("projected", latest.Status),
	)
	return nil
}

// resolveOrder finds an order by number, falling back to the numeric id older
// outbounds were sent with
func resolveOrder(ctx context.Context, repos txn.Repositories, ref logistics.OrderRef) (*ordering.Order, error) {
	order, err := repos.Orders().FindByOrderNumber(ctx, ref.OrderNumber)
	if err == nil {
		return order, nil
	}
	if !errors.Is(err, shared.ErrNotFound) || ref.LegacyID == 0 {
		return nil, fmt.Errorf("order %q: %w", ref.OrderNumber, err)
	}
	order, err = repos.Orders().FindByID(ctx, ref.LegacyID)
	if err != nil {
		return nil, fmt.Errorf("order %q (id %d): %w", ref.OrderNumber, ref.LegacyID, err)
	}
	return order, nil
}

// statusAt is used for records without a provider time
func statusAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

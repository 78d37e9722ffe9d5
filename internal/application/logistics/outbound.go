package logistics

import (
	"context"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// OutboundService sends customer orders to the active warehouse
type OutboundService struct {
	scope     txn.TransactionScope
	providers *Providers
	now       func() time.Time
	logger    *zap.Logger
}

// NewOutboundService creates an outbound service
func NewOutboundService(scope txn.TransactionScope, providers *Providers, log *zap.Logger) *OutboundService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OutboundService{
		scope:     scope,
		providers: providers,
		now:       time.Now,
		logger:    log.Named("outbound"),
	}
}

// RequestSend validates that the order can be sent and enqueues TaskSendOrder
func (s *OutboundService) RequestSend(ctx context.Context, orderID int64) (*shared.Task, error) {
	var task *shared.Task
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !order.CanSendToLogistics() {
			return shared.Errorf(shared.ErrInvalidState, "Order %s is %s and cannot be sent to the logistics center", order.OrderNumber, order.Status)
		}
		task, err = repos.Tasks().Enqueue(ctx, TaskSendOrder, SendOrderArgs{OrderID: orderID})
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// HandleTask runs TaskSendOrder
func (s *OutboundService) HandleTask(ctx context.Context, task *shared.Task) error {
	var args SendOrderArgs
	if err := task.DecodeArgs(&args); err != nil {
		return err
	}
	return s.Send(ctx, args.OrderID)
}

// Send submits the order as an outbound shipment. Orders no longer pending and
// orders with nothing shipped from the warehouse are skipped.
func (s *OutboundService) Send(ctx context.Context, orderID int64) error {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return err
	}
	log := logger.L(ctx).With(zap.Int64("order_id", order.ID), zap.String("order_number", order.OrderNumber))

	if !order.CanSendToLogistics() {
		log.Info("order not pending, skipping outbound", zap.String("status", string(order.Status)))
		return nil
	}
	shipment, ok := logistics.BuildOutboundShipment(order)
	if !ok {
		log.Info("order has no warehouse products, skipping outbound")
		return nil
	}

	adapter, err := s.providers.Active()
	if err != nil {
		return err
	}
	if cs, ok := adapter.(logistics.CustomerSyncer); ok {
		if err := cs.SyncCustomer(ctx); err != nil {
			return fmt.Errorf("sync customer: %w", err)
		}
	}
	ack, err := adapter.SubmitOutbound(ctx, shipment, s.now())
	if err != nil {
		return fmt.Errorf("submit outbound for order %s: %w", order.OrderNumber, err)
	}

	order.MarkSentToLogistics(string(adapter.Provider()), ack.LogisticsCenterID)
	if err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		return repos.Orders().SaveLogistics(ctx, order)
	}); err != nil {
		return fmt.Errorf("save order %s: %w", order.OrderNumber, err)
	}

	log.Info("order sent to logistics center",
		zap.String("provider", string(adapter.Provider())),
		zap.String("logistics_center_id", order.LogisticsCenterID),
		zap.Int("lines", len(shipment.Lines)),
	)
	return nil
}

func (s *OutboundService) loadOrder(ctx context.Context, orderID int64) (*ordering.Order, error) {
	var order *ordering.Order
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		order, err = repos.Orders().FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load order %d: %w", orderID, err)
	}
	return order, nil
}

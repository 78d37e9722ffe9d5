package procurement

import (
	"context"
	"fmt"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/giftcampaign/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PurchaseOrderService handles purchase order administration. Provider and
// supplier side effects run as tasks enqueued in the same transaction.
type PurchaseOrderService struct {
	scope txn.TransactionScope
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope txn.TransactionScope) *PurchaseOrderService {
	return &PurchaseOrderService{scope: scope}
}

// Create creates a pending purchase order and allocates every line. Any
// allocation failure rolls the whole creation back.
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "create",
		telemetry.WithAttribute(telemetry.SpanAttrLineCount, len(req.Lines)))
	defer span.End()

	var po *procurement.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		ids := make([]int64, len(req.Lines))
		for i, l := range req.Lines {
			ids[i] = l.ProductID
		}
		products, err := repos.Products().FindByIDs(ctx, ids)
		if err != nil {
			return err
		}

		lines := make([]procurement.LineItem, 0, len(req.Lines))
		for _, l := range req.Lines {
			product, ok := products[l.ProductID]
			if !ok {
				return shared.Errorf(shared.ErrNotFound, "Product %d not found", l.ProductID)
			}
			if product.SupplierID != req.SupplierID {
				return shared.Errorf(shared.ErrInvalidInput, "Product %s is not supplied by supplier %d", product.SKU, req.SupplierID)
			}
			line, err := procurement.NewLineItem(product, l.Quantity, l.VoucherValue, l.Variations)
			if err != nil {
				return err
			}
			lines = append(lines, *line)
		}

		po, err = procurement.NewPurchaseOrder(req.SupplierID, req.Notes, lines)
		if err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Create(ctx, po); err != nil {
			return err
		}
		for i := range po.LineItems {
			if err := allocate(ctx, repos, &po.LineItems[i], req.CampaignID, req.OrganizationID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrPurchaseOrderID, po.ID)
	telemetry.SetOK(span)

	logDomainEvents(ctx, po)
	logger.L(ctx).Info("purchase order created",
		zap.Int64("purchase_order_id", po.ID),
		zap.Int64("supplier_id", po.SupplierID),
		zap.Int("lines", len(po.LineItems)),
	)
	return s.Get(ctx, po.ID)
}

// UpdateLine changes the quantity of a line and reallocates its order line items
func (s *PurchaseOrderService) UpdateLine(ctx context.Context, purchaseOrderID, lineID int64, req UpdatePurchaseOrderLineRequest) (*PurchaseOrderResponse, error) {
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, purchaseOrderID)
		if err != nil {
			return err
		}
		expected := po.Version
		line, err := po.UpdateLineQuantity(lineID, req.Quantity)
		if err != nil {
			return err
		}
		if err := reallocate(ctx, repos, line); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().UpdateLineQuantity(ctx, line.ID, line.Quantity); err != nil {
			return err
		}
		return repos.PurchaseOrders().UpdateStatus(ctx, po, expected)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, purchaseOrderID)
}

// Get retrieves a purchase order by ID
func (s *PurchaseOrderService) Get(ctx context.Context, id int64) (*PurchaseOrderResponse, error) {
	var resp PurchaseOrderResponse
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		resp = ToPurchaseOrderResponse(po)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ranges computes the purchase order id buckets offered as list filters
func (s *PurchaseOrderService) Ranges(ctx context.Context) ([]procurement.IDRange, error) {
	var ranges []procurement.IDRange
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		ids, err := repos.PurchaseOrders().ListIDs(ctx)
		if err != nil {
			return err
		}
		ranges = procurement.RangeBuckets(ids)
		return nil
	})
	return ranges, err
}

// List retrieves purchase orders. The range buckets of the request context
// are returned alongside the page.
func (s *PurchaseOrderService) List(ctx context.Context, filter PurchaseOrderListFilter) (*PurchaseOrderListResponse, error) {
	f := procurement.ListFilter{
		Filter:     shared.DefaultFilter(),
		Status:     procurement.Status(filter.Status),
		SupplierID: filter.SupplierID,
	}
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	if filter.Range != "" {
		r, err := procurement.ParseIDRange(filter.Range)
		if err != nil {
			return nil, err
		}
		f.Range = &r
	}

	var (
		orders []procurement.PurchaseOrder
		total  int64
	)
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		orders, total, err = repos.PurchaseOrders().FindAll(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := &PurchaseOrderListResponse{
		Items: make([]PurchaseOrderResponse, len(orders)),
		Total: total,
	}
	for i := range orders {
		resp.Items[i] = ToPurchaseOrderResponse(&orders[i])
	}
	for _, r := range procurement.PORangesFromContext(ctx) {
		resp.Ranges = append(resp.Ranges, r.String())
	}
	return resp, nil
}

// SendToSupplier moves a pending order to SENT_TO_SUPPLIER and queues the
// supplier notification
func (s *PurchaseOrderService) SendToSupplier(ctx context.Context, id int64) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, id, "sent to supplier", func(repos txn.Repositories, po *procurement.PurchaseOrder) error {
		if err := po.SendToSupplier(); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().UpdateStatus(ctx, po, po.Version); err != nil {
			return err
		}
		_, err := repos.Tasks().Enqueue(ctx, TaskNotifySupplier, NotifySupplierArgs{PurchaseOrderID: po.ID})
		return err
	})
}

// Cancel cancels a pending or sent order. Allocated order line items stay attached.
func (s *PurchaseOrderService) Cancel(ctx context.Context, id int64) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, id, "cancelled", func(repos txn.Repositories, po *procurement.PurchaseOrder) error {
		if err := po.Cancel(); err != nil {
			return err
		}
		return repos.PurchaseOrders().UpdateStatus(ctx, po, po.Version)
	})
}

// SendAgain queues the supplier notification once more
func (s *PurchaseOrderService) SendAgain(ctx context.Context, id int64) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, id, "queued for resending", func(repos txn.Repositories, po *procurement.PurchaseOrder) error {
		if po.Status == procurement.StatusCancelled {
			return shared.Errorf(shared.ErrInvalidState, "Purchase order %d is cancelled", po.ID)
		}
		_, err := repos.Tasks().Enqueue(ctx, TaskNotifySupplier, NotifySupplierArgs{PurchaseOrderID: po.ID})
		return err
	})
}

// RequestApproval validates an order sent to its supplier and queues the
// provider approval
func (s *PurchaseOrderService) RequestApproval(ctx context.Context, id int64) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, id, "queued for approval", func(repos txn.Repositories, po *procurement.PurchaseOrder) error {
		if po.Status == procurement.StatusPending {
			return shared.Errorf(shared.ErrInvalidState,
				"Purchase order %d has not been sent to its supplier, use quick approve", po.ID)
		}
		return s.enqueueApproval(ctx, repos, po)
	})
}

// QuickApprove queues the provider approval of a pending or sent order
func (s *PurchaseOrderService) QuickApprove(ctx context.Context, id int64) (*PurchaseOrderResponse, error) {
	return s.transition(ctx, id, "queued for quick approval", func(repos txn.Repositories, po *procurement.PurchaseOrder) error {
		return s.enqueueApproval(ctx, repos, po)
	})
}

func (s *PurchaseOrderService) enqueueApproval(ctx context.Context, repos txn.Repositories, po *procurement.PurchaseOrder) error {
	if err := po.ValidateForApproval(); err != nil {
		return err
	}
	_, err := repos.Tasks().Enqueue(ctx, TaskApprove, ApproveArgs{PurchaseOrderID: po.ID})
	return err
}

// transition loads the order and runs fn in one transaction
func (s *PurchaseOrderService) transition(ctx context.Context, id int64, action string, fn func(repos txn.Repositories, po *procurement.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	var (
		resp PurchaseOrderResponse
		po   *procurement.PurchaseOrder
	)
	err := s.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(repos, po); err != nil {
			return err
		}
		resp = ToPurchaseOrderResponse(po)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purchase order %d: %w", id, err)
	}
	logDomainEvents(ctx, po)
	logger.L(ctx).Info("purchase order "+action,
		zap.Int64("purchase_order_id", id),
		zap.String("status", resp.Status),
	)
	return &resp, nil
}

// logDomainEvents logs the events raised by po once its transaction committed
func logDomainEvents(ctx context.Context, po *procurement.PurchaseOrder) {
	for _, e := range po.GetDomainEvents() {
		logger.L(ctx).Debug("domain event",
			zap.String("event_type", e.EventType()),
			zap.String("event_id", e.EventID().String()),
			zap.String("aggregate_type", e.AggregateType()),
			zap.Int64("aggregate_id", e.AggregateID()),
		)
	}
	po.ClearDomainEvents()
}

package persistence

import (
	"context"

	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSummaryRepository implements procurement.SummaryRepository using GORM
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository creates a new GormSummaryRepository
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	return &GormSummaryRepository{db: db}
}

// OpenDemand returns line items of PENDING and SENT_TO_LOGISTIC_CENTER
// orders in allocation order
func (r *GormSummaryRepository) OpenDemand(ctx context.Context, campaignID int64) ([]ordering.OrderLineItem, error) {
	query := r.db.WithContext(ctx).
		Table("order_line_items AS li").
		Select("li.*").
		Joins("JOIN orders o ON o.id = li.order_id").
		Where("o.status IN ?", ordering.AllocatableStatuses)
	if campaignID != 0 {
		query = query.Where("o.campaign_id = ?", campaignID)
	}

	var rows []models.OrderLineItemModel
	if err := query.
		Preload("Product.BundleItems.Product").
		Order(allocationOrder).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return lineItemsToDomain(rows), nil
}

// SupplyByProduct aggregates purchase order lines per product. Cancelled
// purchase orders are ignored.
func (r *GormSummaryRepository) SupplyByProduct(ctx context.Context, productIDs []int64) (map[int64]procurement.ProductSupply, error) {
	out := make(map[int64]procurement.ProductSupply, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	type supplyRow struct {
		ProductID       int64
		SentToSupplier  int
		SentToLogistics int
	}
	var supply []supplyRow
	if err := r.db.WithContext(ctx).
		Table("purchase_order_line_items AS pol").
		Select(`pol.product_id AS product_id,
			COALESCE(SUM(CASE WHEN po.status = ? THEN pol.quantity ELSE 0 END), 0) AS sent_to_supplier,
			COALESCE(SUM(pol.quantity_sent_to_logistics_center), 0) AS sent_to_logistics`,
			procurement.StatusSentToSupplier).
		Joins("JOIN purchase_orders po ON po.id = pol.purchase_order_id").
		Where("pol.product_id IN ? AND po.status <> ?", productIDs, procurement.StatusCancelled).
		Group("pol.product_id").
		Scan(&supply).Error; err != nil {
		return nil, err
	}
	for _, s := range supply {
		out[s.ProductID] = procurement.ProductSupply{
			ProductID:       s.ProductID,
			SentToSupplier:  s.SentToSupplier,
			SentToLogistics: s.SentToLogistics,
		}
	}

	type receivedRow struct {
		ProductID int64
		Received  int
	}
	var received []receivedRow
	if err := r.db.WithContext(ctx).
		Table("inbound_receipt_lines AS rl").
		Select("pol.product_id AS product_id, COALESCE(SUM(rl.quantity_received), 0) AS received").
		Joins("JOIN purchase_order_line_items pol ON pol.id = rl.purchase_order_line_item_id").
		Where("pol.product_id IN ?", productIDs).
		Group("pol.product_id").
		Scan(&received).Error; err != nil {
		return nil, err
	}
	for _, rr := range received {
		s := out[rr.ProductID]
		s.ProductID = rr.ProductID
		s.Received = rr.Received
		out[rr.ProductID] = s
	}
	return out, nil
}

var _ procurement.SummaryRepository = (*GormSummaryRepository)(nil)

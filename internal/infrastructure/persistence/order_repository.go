package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ordering.OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) findOne(ctx context.Context, query string, arg any) (*ordering.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("EmployeeGroup.Organization").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("LineItems.Product.BundleItems.Product").
		Where(query, arg).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if err := r.loadPurchaseOrderStatuses(ctx, &model); err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// loadPurchaseOrderStatuses fills the status of the purchase order each
// attached line item belongs to
func (r *GormOrderRepository) loadPurchaseOrderStatuses(ctx context.Context, model *models.OrderModel) error {
	type row struct {
		LineID int64
		Status string
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Table("order_line_items AS li").
		Select("li.id AS line_id, po.status AS status").
		Joins("JOIN purchase_order_line_items pol ON pol.id = li.purchase_order_line_item_id").
		Joins("JOIN purchase_orders po ON po.id = pol.purchase_order_id").
		Where("li.order_id = ?", model.ID).
		Scan(&rows).Error; err != nil {
		return err
	}
	statuses := make(map[int64]string, len(rows))
	for _, rw := range rows {
		statuses[rw.LineID] = rw.Status
	}
	for i := range model.LineItems {
		model.LineItems[i].PurchaseOrderStatus = statuses[model.LineItems[i].ID]
	}
	return nil
}

// FindByID loads an order with its employee group and line items
func (r *GormOrderRepository) FindByID(ctx context.Context, id int64) (*ordering.Order, error) {
	return r.findOne(ctx, "id = ?", id)
}

// FindByOrderNumber loads an order by the number sent to providers
func (r *GormOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*ordering.Order, error) {
	return r.findOne(ctx, "order_number = ?", orderNumber)
}

// SaveLogistics persists status and logistics fields of an order
func (r *GormOrderRepository) SaveLogistics(ctx context.Context, order *ordering.Order) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"status":              order.Status,
			"logistics_provider":  order.LogisticsProvider,
			"logistics_center_id": order.LogisticsCenterID,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SetLogisticsStatus writes the projected provider status. The change time is
// only stamped when the stored status differs.
func (r *GormOrderRepository) SetLogisticsStatus(ctx context.Context, orderID int64, status string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND (logistics_center_status IS NULL OR logistics_center_status <> ?)", orderID, status).
		Updates(map[string]any{
			"logistics_center_status":            status,
			"logistics_center_status_changed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.ensureExists(ctx, orderID)
}

// SetShippingNumber stores the carrier shipping number
func (r *GormOrderRepository) SetShippingNumber(ctx context.Context, orderID int64, shippingNumber string) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Update("logistics_center_shipping_number", shippingNumber)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	return r.ensureExists(ctx, orderID)
}

func (r *GormOrderRepository) ensureExists(ctx context.Context, orderID int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// GormLineItemRepository implements ordering.LineItemRepository using GORM
type GormLineItemRepository struct {
	db *gorm.DB
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{db: db}
}

// allocationOrder is the stable order candidates are consumed in
const allocationOrder = "o.created_at ASC, li.id ASC"

func (r *GormLineItemRepository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("order_line_items AS li").
		Select("li.*").
		Joins("JOIN orders o ON o.id = li.order_id")
}

// FindCandidates returns unattached line items of allocatable orders matching
// q. On Postgres the rows stay locked until the enclosing transaction ends.
func (r *GormLineItemRepository) FindCandidates(ctx context.Context, q ordering.CandidateQuery) ([]ordering.OrderLineItem, error) {
	query := r.joined(ctx).
		Where("li.purchase_order_line_item_id IS NULL").
		Where("li.product_id = ?", q.ProductID).
		Where("o.status IN ?", ordering.AllocatableStatuses)
	// A line without a voucher value never draws from valued denominations.
	if q.VoucherValue != nil {
		query = query.Where("li.voucher_value = ?", *q.VoucherValue)
	} else {
		query = query.Where("li.voucher_value IS NULL")
	}
	if q.CampaignID != 0 {
		query = query.Where("o.campaign_id = ?", q.CampaignID)
	}
	if q.OrganizationID != 0 {
		query = query.Where("o.organization_id = ?", q.OrganizationID)
	}
	if len(q.Variations) > 0 {
		query = query.Where("li.variations = ?", models.EncodeVariations(q.Variations))
	}
	if isPostgres(r.db) {
		query = query.Clauses(clause.Locking{Strength: "UPDATE", Table: clause.Table{Name: "li"}})
	}

	var rows []models.OrderLineItemModel
	if err := query.Order(allocationOrder).Find(&rows).Error; err != nil {
		return nil, err
	}
	return lineItemsToDomain(rows), nil
}

// FindAttached returns the line items attached to a purchase order line
func (r *GormLineItemRepository) FindAttached(ctx context.Context, purchaseOrderLineItemID int64) ([]ordering.OrderLineItem, error) {
	var rows []models.OrderLineItemModel
	if err := r.joined(ctx).
		Where("li.purchase_order_line_item_id = ?", purchaseOrderLineItemID).
		Order(allocationOrder).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return lineItemsToDomain(rows), nil
}

// Attach links line items to a purchase order line. Only unattached rows are
// touched; any row attached meanwhile makes the count fall short.
func (r *GormLineItemRepository) Attach(ctx context.Context, ids []int64, purchaseOrderLineItemID int64) error {
	if len(ids) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderLineItemModel{}).
		Where("id IN ? AND purchase_order_line_item_id IS NULL", ids).
		Update("purchase_order_line_item_id", purchaseOrderLineItemID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return shared.Errorf(shared.ErrConcurrencyConflict,
			"%d of %d line items were allocated concurrently", int64(len(ids))-result.RowsAffected, len(ids))
	}
	return nil
}

// Detach clears the link of line items attached to the given purchase order line
func (r *GormLineItemRepository) Detach(ctx context.Context, ids []int64, purchaseOrderLineItemID int64) error {
	if len(ids) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.OrderLineItemModel{}).
		Where("id IN ? AND purchase_order_line_item_id = ?", ids, purchaseOrderLineItemID).
		Update("purchase_order_line_item_id", nil)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected != int64(len(ids)) {
		return shared.Errorf(shared.ErrConcurrencyConflict,
			"%d of %d line items were detached concurrently", int64(len(ids))-result.RowsAffected, len(ids))
	}
	return nil
}

func lineItemsToDomain(rows []models.OrderLineItemModel) []ordering.OrderLineItem {
	out := make([]ordering.OrderLineItem, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var (
	_ ordering.OrderRepository    = (*GormOrderRepository)(nil)
	_ ordering.LineItemRepository = (*GormLineItemRepository)(nil)
)

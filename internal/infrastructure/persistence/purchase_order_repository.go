package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// PurchaseOrderSortFields contains allowed sort fields for purchase orders
var PurchaseOrderSortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"updated_at":  true,
	"status":      true,
	"supplier_id": true,
}

// GormPurchaseOrderRepository implements procurement.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func (r *GormPurchaseOrderRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("LineItems.Product.BundleItems.Product")
}

// FindByID loads a purchase order with its supplier and line products
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id int64) (*procurement.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.withDetails(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads several purchase orders keyed by id
func (r *GormPurchaseOrderRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*procurement.PurchaseOrder, error) {
	out := make(map[int64]*procurement.PurchaseOrder, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.PurchaseOrderModel
	if err := r.withDetails(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

// FindAll lists purchase orders with their lines but without line products,
// oldest first unless the filter sorts otherwise
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter procurement.ListFilter) ([]procurement.PurchaseOrder, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}
	if filter.Range != nil {
		query = query.Where("id BETWEEN ? AND ?", filter.Range.Min, filter.Range.Max)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order(orderClause(filter.Filter, PurchaseOrderSortFields, "id", "ASC"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.PurchaseOrderModel
	if err := query.
		Preload("Supplier").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]procurement.PurchaseOrder, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// ListIDs returns every purchase order id ascending
func (r *GormPurchaseOrderRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// Create inserts the order and its lines, writing the assigned ids back
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, po *procurement.PurchaseOrder) error {
	model := models.PurchaseOrderModelFromDomain(po)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	po.ID = model.ID
	po.CreatedAt = model.CreatedAt
	po.UpdatedAt = model.UpdatedAt
	for i := range po.LineItems {
		po.LineItems[i].ID = model.LineItems[i].ID
		po.LineItems[i].PurchaseOrderID = model.ID
	}
	return nil
}

// UpdateLineQuantity stores a new ordered quantity for a line
func (r *GormPurchaseOrderRepository) UpdateLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderLineItemModel{}).
		Where("id = ?", lineID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateStatus changes the status when the stored version still matches
func (r *GormPurchaseOrderRepository) UpdateStatus(ctx context.Context, po *procurement.PurchaseOrder, expectedVersion int) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ? AND version = ?", po.ID, expectedVersion).
		Updates(map[string]any{
			"status":     po.Status,
			"version":    expectedVersion + 1,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.Errorf(shared.ErrConcurrencyConflict,
			"Purchase order %d was modified by another process", po.ID)
	}
	po.Version = expectedVersion + 1
	po.UpdatedAt = now
	return nil
}

// ApplyApproval persists an approval in one statement guarded by status and
// version, then marks every line as fully sent to logistics
func (r *GormPurchaseOrderRepository) ApplyApproval(ctx context.Context, po *procurement.PurchaseOrder, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND status IN ? AND version = ?", po.ID, procurement.ApprovableStatuses, expectedVersion).
			Updates(map[string]any{
				"status":                      procurement.StatusApproved,
				"sent_to_logistics_center_at": po.SentToLogisticsAt,
				"logistics_center_id":         po.LogisticsCenterID,
				"logistics_center_status":     po.LogisticsStatus,
				"logistics_provider":          po.LogisticsProvider,
				"version":                     gorm.Expr("version + 1"),
				"updated_at":                  time.Now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.Errorf(shared.ErrConcurrencyConflict,
				"Purchase order %d changed while it was being approved", po.ID)
		}
		if err := tx.Model(&models.PurchaseOrderLineItemModel{}).
			Where("purchase_order_id = ?", po.ID).
			Update("quantity_sent_to_logistics_center", gorm.Expr("quantity")).Error; err != nil {
			return err
		}
		po.Version = expectedVersion + 1
		return nil
	})
}

// SetLogisticsStatus writes the projected provider status
func (r *GormPurchaseOrderRepository) SetLogisticsStatus(ctx context.Context, id int64, status string) error {
	return r.updateColumn(ctx, id, "logistics_center_status", status)
}

// SetLogisticsCenterID stores the provider's identifier for the order
func (r *GormPurchaseOrderRepository) SetLogisticsCenterID(ctx context.Context, id int64, logisticsCenterID string) error {
	return r.updateColumn(ctx, id, "logistics_center_id", logisticsCenterID)
}

func (r *GormPurchaseOrderRepository) updateColumn(ctx context.Context, id int64, column, value string) error {
	result := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Where("id = ?", id).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return shared.ErrNotFound
		}
	}
	return nil
}

// FindLineByProductSKU resolves the line of a purchase order carrying sku
func (r *GormPurchaseOrderRepository) FindLineByProductSKU(ctx context.Context, purchaseOrderID int64, sku string) (*procurement.LineItem, error) {
	var model models.PurchaseOrderLineItemModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN products p ON p.id = purchase_order_line_items.product_id").
		Where("purchase_order_line_items.purchase_order_id = ? AND p.sku = ?", purchaseOrderID, sku).
		Order("purchase_order_line_items.id ASC").
		Preload("Product").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	li := model.ToDomain()
	return &li, nil
}

// FindByLogisticsCenterID loads the purchase order a provider knows by its
// own identifier
func (r *GormPurchaseOrderRepository) FindByLogisticsCenterID(ctx context.Context, provider, logisticsCenterID string) (*procurement.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.withDetails(ctx).
		Where("logistics_provider = ? AND logistics_center_id = ?", provider, logisticsCenterID).
		Order("id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ procurement.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)

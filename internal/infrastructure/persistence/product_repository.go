package persistence

import (
	"context"
	"errors"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID loads a product with its bundle constituents
func (r *GormProductRepository) FindByID(ctx context.Context, id int64) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).
		Preload("BundleItems.Product").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads products keyed by id. Missing ids are absent from the map.
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Product, error) {
	out := make(map[int64]*catalog.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Preload("BundleItems.Product").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

// FindBySKUs loads products keyed by sku
func (r *GormProductRepository) FindBySKUs(ctx context.Context, skus []string) (map[string]*catalog.Product, error) {
	out := make(map[string]*catalog.Product, len(skus))
	if len(skus) == 0 {
		return out, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Where("sku IN ?", skus).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if _, seen := out[rows[i].SKU]; !seen {
			out[rows[i].SKU] = rows[i].ToDomain()
		}
	}
	return out, nil
}

// ReassignLatestStockLines points every product at its line in the given
// snapshot. Products whose sku is absent from the snapshot get NULL.
func (r *GormProductRepository) ReassignLatestStockLines(ctx context.Context, snapshotID int64) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
UPDATE products SET latest_stock_line_id = (
	SELECT l.id FROM stock_snapshot_lines l
	WHERE l.snapshot_id = ? AND l.sku = products.sku
)`, snapshotID)
	return result.RowsAffected, result.Error
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)

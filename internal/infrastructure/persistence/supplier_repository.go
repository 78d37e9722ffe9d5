package persistence

import (
	"context"
	"errors"

	"github.com/giftcampaign/backend/internal/domain/catalog"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSupplierRepository implements catalog.SupplierRepository using GORM
type GormSupplierRepository struct {
	db *gorm.DB
}

// NewGormSupplierRepository creates a new GormSupplierRepository
func NewGormSupplierRepository(db *gorm.DB) *GormSupplierRepository {
	return &GormSupplierRepository{db: db}
}

// FindByID finds a supplier by its ID
func (r *GormSupplierRepository) FindByID(ctx context.Context, id int64) (*catalog.Supplier, error) {
	var model models.SupplierModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs loads suppliers keyed by id
func (r *GormSupplierRepository) FindByIDs(ctx context.Context, ids []int64) (map[int64]*catalog.Supplier, error) {
	out := make(map[int64]*catalog.Supplier, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.SupplierModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ID] = rows[i].ToDomain()
	}
	return out, nil
}

var _ catalog.SupplierRepository = (*GormSupplierRepository)(nil)

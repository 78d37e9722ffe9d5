package persistence

import (
	"context"
	"errors"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormLogisticsEventRepository implements logistics.EventRepository using GORM
type GormLogisticsEventRepository struct {
	db *gorm.DB
}

// NewGormLogisticsEventRepository creates a new GormLogisticsEventRepository
func NewGormLogisticsEventRepository(db *gorm.DB) *GormLogisticsEventRepository {
	return &GormLogisticsEventRepository{db: db}
}

// Create stores a raw provider payload. A second payload with the same
// provider and delivery id fails with shared.ErrAlreadyExists; payloads
// without a delivery id never conflict.
func (r *GormLogisticsEventRepository) Create(ctx context.Context, event *logistics.LogisticsEvent) error {
	model := models.LogisticsEventModelFromDomain(event)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.Errorf(shared.ErrAlreadyExists, "event %s from %s already stored", event.DedupeKey, event.Provider)
		}
		return err
	}
	event.ID = model.ID
	return nil
}

// FindByID loads a stored event
func (r *GormLogisticsEventRepository) FindByID(ctx context.Context, id int64) (*logistics.LogisticsEvent, error) {
	var model models.LogisticsEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByDedupeKey reports whether an event with the key was stored
func (r *GormLogisticsEventRepository) ExistsByDedupeKey(ctx context.Context, provider logistics.Provider, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LogisticsEventModel{}).
		Where("provider = ? AND dedupe_key = ?", provider, key).
		Count(&count).Error
	return count > 0, err
}

var _ logistics.EventRepository = (*GormLogisticsEventRepository)(nil)

package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStatusRepository implements logistics.StatusRepository using GORM
type GormStatusRepository struct {
	db *gorm.DB
}

// NewGormStatusRepository creates a new GormStatusRepository
func NewGormStatusRepository(db *gorm.DB) *GormStatusRepository {
	return &GormStatusRepository{db: db}
}

// Insert stores the record with ON CONFLICT DO NOTHING on the unique key.
// It reports whether a new row was created.
func (r *GormStatusRepository) Insert(ctx context.Context, record *logistics.StatusRecord) (bool, error) {
	record.StatusAt = record.StatusAt.UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	model := models.StatusRecordModelFromDomain(record)
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	record.ID = model.ID
	return true, nil
}

// Latest returns the record with the greatest status time, ties going to the
// most recently inserted row
func (r *GormStatusRepository) Latest(ctx context.Context, kind logistics.EntityKind, entityID int64) (*logistics.StatusRecord, error) {
	var model models.StatusRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Order("status_at DESC, id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	rec := model.ToDomain()
	return &rec, nil
}

// FindByEntity lists the history of an entity, oldest first
func (r *GormStatusRepository) FindByEntity(ctx context.Context, kind logistics.EntityKind, entityID int64) ([]logistics.StatusRecord, error) {
	var rows []models.StatusRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_kind = ? AND entity_id = ?", kind, entityID).
		Order("status_at ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]logistics.StatusRecord, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

var _ logistics.StatusRepository = (*GormStatusRepository)(nil)

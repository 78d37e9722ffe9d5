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

// GormSnapshotRepository implements logistics.SnapshotRepository using GORM
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GormSnapshotRepository
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Upsert stores the snapshot keyed by (provider, time) and one line per SKU.
// Lines already stored for a SKU get the new quantity. The caller is
// expected to have merged duplicate SKUs.
func (r *GormSnapshotRepository) Upsert(ctx context.Context, snapshot *logistics.Snapshot) error {
	takenAt := snapshot.TakenAt.UTC()
	processedAt := time.Now().UTC()
	db := r.db.WithContext(ctx)

	header := &models.StockSnapshotModel{
		Provider:    snapshot.Provider,
		SnapshotAt:  takenAt,
		SourceRef:   snapshot.SourceRef,
		ProcessedAt: processedAt,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "snapshot_at"}},
		DoUpdates: clause.AssignmentColumns([]string{"source_ref", "processed_at"}),
	}).Omit("Lines").Create(header).Error; err != nil {
		return err
	}

	var stored models.StockSnapshotModel
	if err := db.Where("provider = ? AND snapshot_at = ?", snapshot.Provider, takenAt).
		First(&stored).Error; err != nil {
		return err
	}

	if len(snapshot.Lines) > 0 {
		lines := make([]models.StockSnapshotLineModel, len(snapshot.Lines))
		for i, l := range snapshot.Lines {
			lines[i] = models.StockSnapshotLineModel{SnapshotID: stored.ID, SKU: l.SKU, Quantity: l.Quantity}
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "snapshot_id"}, {Name: "sku"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
		}).Create(&lines).Error; err != nil {
			return err
		}
	}

	var lineRows []models.StockSnapshotLineModel
	if err := db.Where("snapshot_id = ?", stored.ID).Order("id ASC").Find(&lineRows).Error; err != nil {
		return err
	}
	stored.Lines = lineRows
	*snapshot = *stored.ToDomain()
	return nil
}

// FindLatest returns the most recent snapshot of any provider
func (r *GormSnapshotRepository) FindLatest(ctx context.Context) (*logistics.Snapshot, error) {
	var model models.StockSnapshotModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("snapshot_at DESC, id DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// LatestQuantities maps each SKU to its line in the latest snapshot. An empty
// map and zero time are returned when no snapshot exists.
func (r *GormSnapshotRepository) LatestQuantities(ctx context.Context) (map[string]logistics.SnapshotLine, time.Time, error) {
	latest, err := r.FindLatest(ctx)
	if errors.Is(err, shared.ErrNotFound) {
		return map[string]logistics.SnapshotLine{}, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	out := make(map[string]logistics.SnapshotLine, len(latest.Lines))
	for _, l := range latest.Lines {
		out[l.SKU] = l
	}
	return out, latest.TakenAt, nil
}

var _ logistics.SnapshotRepository = (*GormSnapshotRepository)(nil)

package taskqueue

import (
	"context"
	"errors"
	"time"

	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository implements shared.TaskRepository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM-based task repository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// WithTx returns a repository bound to the given transaction
func (r *GormTaskRepository) WithTx(tx *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: tx}
}

// Save persists one or more tasks
func (r *GormTaskRepository) Save(ctx context.Context, tasks ...*shared.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	rows := make([]*models.TaskModel, len(tasks))
	for i, t := range tasks {
		rows[i] = models.TaskModelFromDomain(t)
	}
	return r.db.WithContext(ctx).Create(rows).Error
}

// FindPending retrieves pending tasks, oldest first
func (r *GormTaskRepository) FindPending(ctx context.Context, limit int) ([]*shared.Task, error) {
	var rows []models.TaskModel
	err := r.db.WithContext(ctx).
		Where("status = ?", shared.TaskStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return toDomain(rows), err
}

// FindRetryable retrieves failed tasks due for another attempt
func (r *GormTaskRepository) FindRetryable(ctx context.Context, before time.Time, limit int) ([]*shared.Task, error) {
	var rows []models.TaskModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_run_at <= ?", shared.TaskStatusFailed, before).
		Order("next_run_at ASC").
		Limit(limit).
		Find(&rows).Error
	return toDomain(rows), err
}

// MarkProcessing atomically claims tasks and returns the ones claimed.
// Rows locked by another worker are skipped on Postgres.
func (r *GormTaskRepository) MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*shared.Task, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var claimed []*shared.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("id IN ? AND status IN ?", ids, []shared.TaskStatus{
			shared.TaskStatusPending,
			shared.TaskStatusFailed,
		})
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}

		var rows []models.TaskModel
		if err := query.Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}

		taskIDs := make([]uuid.UUID, len(rows))
		for i := range rows {
			taskIDs[i] = rows[i].ID
		}

		now := time.Now()
		if err := tx.Model(&models.TaskModel{}).
			Where("id IN ?", taskIDs).
			Updates(map[string]any{
				"status":     shared.TaskStatusProcessing,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		claimed = toDomain(rows)
		for _, t := range claimed {
			t.Status = shared.TaskStatusProcessing
			t.UpdatedAt = now
		}
		return nil
	})
	return claimed, err
}

// Update writes back a task after an attempt
func (r *GormTaskRepository) Update(ctx context.Context, task *shared.Task) error {
	task.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.TaskModelFromDomain(task)).Error
}

// DeleteOlderThan deletes done tasks processed before the given time
func (r *GormTaskRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("status = ? AND processed_at < ?", shared.TaskStatusDone, before).
		Delete(&models.TaskModel{})
	return result.RowsAffected, result.Error
}

// FindDead retrieves dead tasks, most recently failed first
func (r *GormTaskRepository) FindDead(ctx context.Context, page, pageSize int) ([]*shared.Task, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Where("status = ?", shared.TaskStatusDead).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	var rows []models.TaskModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", shared.TaskStatusDead).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return toDomain(rows), total, nil
}

// FindByID retrieves a single task
func (r *GormTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*shared.Task, error) {
	var row models.TaskModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// CountByStatus returns task counts per status
func (r *GormTaskRepository) CountByStatus(ctx context.Context) (map[shared.TaskStatus]int64, error) {
	type statusCount struct {
		Status shared.TaskStatus
		Count  int64
	}

	var results []statusCount
	if err := r.db.WithContext(ctx).
		Model(&models.TaskModel{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&results).Error; err != nil {
		return nil, err
	}

	counts := make(map[shared.TaskStatus]int64, len(results))
	for _, c := range results {
		counts[c.Status] = c.Count
	}
	return counts, nil
}

func toDomain(rows []models.TaskModel) []*shared.Task {
	out := make([]*shared.Task, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out
}

var _ shared.TaskRepository = (*GormTaskRepository)(nil)

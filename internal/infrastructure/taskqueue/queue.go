// Package taskqueue is the database-backed background task queue. Tasks are
// rows in the tasks table, claimed by Processor workers with
// FOR UPDATE SKIP LOCKED and retried with exponential backoff until dead.
package taskqueue

import (
	"context"

	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Queue enqueues tasks into the task table
type Queue struct {
	repo       *GormTaskRepository
	maxRetries int
	logger     *zap.Logger
}

// NewQueue creates a queue writing through db
func NewQueue(db *gorm.DB, maxRetries int, log *zap.Logger) *Queue {
	if maxRetries < 0 {
		maxRetries = shared.DefaultTaskMaxRetries
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{repo: NewGormTaskRepository(db), maxRetries: maxRetries, logger: log}
}

// Enqueue stores a pending task
func (q *Queue) Enqueue(ctx context.Context, name string, args any) (*shared.Task, error) {
	return q.enqueue(ctx, q.repo, name, args)
}

// EnqueueTx stores a pending task inside tx, so it only becomes visible to
// workers when tx commits
func (q *Queue) EnqueueTx(ctx context.Context, tx *gorm.DB, name string, args any) (*shared.Task, error) {
	return q.enqueue(ctx, q.repo.WithTx(tx), name, args)
}

// ForTx returns a TaskQueue bound to tx
func (q *Queue) ForTx(tx *gorm.DB) shared.TaskQueue {
	return &Queue{repo: q.repo.WithTx(tx), maxRetries: q.maxRetries, logger: q.logger}
}

func (q *Queue) enqueue(ctx context.Context, repo *GormTaskRepository, name string, args any) (*shared.Task, error) {
	task, err := shared.NewTask(name, args)
	if err != nil {
		return nil, err
	}
	task.MaxRetries = q.maxRetries
	if err := repo.Save(ctx, task); err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("task enqueued",
		zap.String("task", name),
		zap.String("enqueued_task_id", task.ID.String()),
	)
	return task, nil
}

// Dead lists dead tasks, most recently failed first
func (q *Queue) Dead(ctx context.Context, page, pageSize int) ([]*shared.Task, int64, error) {
	return q.repo.FindDead(ctx, page, pageSize)
}

// Retry puts a dead task back into the pending state
func (q *Queue) Retry(ctx context.Context, id uuid.UUID) (*shared.Task, error) {
	task, err := q.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := task.ResetForRetry(); err != nil {
		return nil, shared.Errorf(shared.ErrInvalidState, "Task %s is %s, only dead tasks can be retried", id, task.Status)
	}
	if err := q.repo.Update(ctx, task); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("dead task re-queued", zap.String("task", task.Name), zap.String("retried_task_id", id.String()))
	return task, nil
}

// Stats returns task counts per status
func (q *Queue) Stats(ctx context.Context) (map[shared.TaskStatus]int64, error) {
	return q.repo.CountByStatus(ctx)
}

var _ shared.TaskQueue = (*Queue)(nil)

package shared

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a queued background task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusProcessing TaskStatus = "PROCESSING"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusFailed     TaskStatus = "FAILED"
	TaskStatusDead       TaskStatus = "DEAD"
)

// Default retry policy: two retries after the first attempt, 30s countdown
// doubled on each retry.
const (
	DefaultTaskMaxRetries = 2
	DefaultRetryCountdown = 30 * time.Second
)

// Task is a unit of background work stored in the task table.
// Delivery is at-least-once; handlers must be idempotent.
type Task struct {
	ID          uuid.UUID
	Name        string
	Args        []byte
	Status      TaskStatus
	RetryCount  int
	MaxRetries  int
	LastError   string
	NextRunAt   *time.Time
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewTask creates a pending task with JSON encoded arguments
func NewTask(name string, args any) (*Task, error) {
	if name == "" {
		return nil, errors.New("task name is required")
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encode args for task %s: %w", name, err)
	}
	now := time.Now()
	return &Task{
		ID:         uuid.New(),
		Name:       name,
		Args:       payload,
		Status:     TaskStatusPending,
		MaxRetries: DefaultTaskMaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// DecodeArgs unmarshals the task arguments into v
func (t *Task) DecodeArgs(v any) error {
	if err := json.Unmarshal(t.Args, v); err != nil {
		return fmt.Errorf("decode args for task %s: %w", t.Name, err)
	}
	return nil
}

// CanRetry returns true if the task can be retried
func (t *Task) CanRetry() bool {
	return t.Status == TaskStatusFailed && t.RetryCount <= t.MaxRetries
}

// MarkProcessing marks the task as claimed by a worker
func (t *Task) MarkProcessing() error {
	if t.Status != TaskStatusPending && t.Status != TaskStatusFailed {
		return errors.New("can only mark pending or failed tasks as processing")
	}
	t.Status = TaskStatusProcessing
	t.UpdatedAt = time.Now()
	return nil
}

// MarkDone marks the task as successfully executed
func (t *Task) MarkDone() {
	now := time.Now()
	t.Status = TaskStatusDone
	t.ProcessedAt = &now
	t.UpdatedAt = now
}

// MarkFailed records a failed attempt and schedules the next one.
// The task becomes dead once its retries are used up.
func (t *Task) MarkFailed(errMsg string, countdown time.Duration) {
	t.RetryCount++
	t.LastError = errMsg
	t.UpdatedAt = time.Now()

	if t.RetryCount > t.MaxRetries {
		t.Status = TaskStatusDead
		t.NextRunAt = nil
		return
	}

	t.Status = TaskStatusFailed
	if countdown <= 0 {
		countdown = DefaultRetryCountdown
	}
	// 30s, 60s, 120s, ...
	backoff := countdown * time.Duration(1<<uint(t.RetryCount-1))
	next := time.Now().Add(backoff)
	t.NextRunAt = &next
}

// ResetForRetry puts a dead task back into the queue
func (t *Task) ResetForRetry() error {
	if t.Status != TaskStatusDead {
		return errors.New("can only retry dead tasks")
	}
	t.Status = TaskStatusPending
	t.RetryCount = 0
	t.LastError = ""
	t.NextRunAt = nil
	t.UpdatedAt = time.Now()
	return nil
}

// IsDead returns true if the task exhausted its retries
func (t *Task) IsDead() bool {
	return t.Status == TaskStatusDead
}

// TaskQueue enqueues background tasks
type TaskQueue interface {
	Enqueue(ctx context.Context, name string, args any) (*Task, error)
}

// TaskRepository defines persistence for queued tasks
type TaskRepository interface {
	// Save persists one or more tasks
	Save(ctx context.Context, tasks ...*Task) error
	// FindPending retrieves pending tasks up to the specified limit
	FindPending(ctx context.Context, limit int) ([]*Task, error)
	// FindRetryable retrieves failed tasks whose next run time has passed
	FindRetryable(ctx context.Context, before time.Time, limit int) ([]*Task, error)
	// FindDead retrieves dead tasks with pagination
	FindDead(ctx context.Context, page, pageSize int) ([]*Task, int64, error)
	// FindByID retrieves a single task
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	// MarkProcessing atomically claims tasks and returns the ones claimed
	MarkProcessing(ctx context.Context, ids []uuid.UUID) ([]*Task, error)
	// Update updates an existing task
	Update(ctx context.Context, task *Task) error
	// DeleteOlderThan deletes finished tasks processed before the given time
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	// CountByStatus returns task counts per status
	CountByStatus(ctx context.Context) (map[TaskStatus]int64, error)
}

// Package scheduler enqueues recurring background tasks on fixed intervals.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/config"
)

// TaskLookup finds a previously enqueued task
type TaskLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*shared.Task, error)
}

// Job enqueues TaskName every Interval
type Job struct {
	TaskName string
	Interval time.Duration
	Args     any
}

// Jobs returns the recurring jobs enabled by configuration
func Jobs(cfg config.SchedulerConfig) []Job {
	var jobs []Job
	if cfg.SnapshotSyncInterval > 0 {
		jobs = append(jobs, Job{TaskName: applogistics.TaskSyncSnapshots, Interval: cfg.SnapshotSyncInterval})
	}
	return jobs
}

// CheckInterval is how often the trigger looks for due jobs
const CheckInterval = 15 * time.Second

// Trigger enqueues each job when its interval has passed. A job is skipped
// while the task it enqueued last is still pending, running or waiting for a
// retry, so slow runs do not pile up.
type Trigger struct {
	jobs           []Job
	queue          shared.TaskQueue
	lookup         TaskLookup
	enqueueTimeout time.Duration
	checkInterval  time.Duration
	now            func() time.Time
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	stateMu  sync.Mutex
	lastRun  map[string]time.Time
	lastTask map[string]uuid.UUID
}

// NewTrigger validates jobs and creates a trigger
func NewTrigger(jobs []Job, queue shared.TaskQueue, lookup TaskLookup, enqueueTimeout time.Duration, logger *zap.Logger) (*Trigger, error) {
	seen := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		if j.TaskName == "" || j.Interval <= 0 {
			return nil, fmt.Errorf("%w: job %q every %s", ErrInvalidConfig, j.TaskName, j.Interval)
		}
		if seen[j.TaskName] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, j.TaskName)
		}
		seen[j.TaskName] = true
	}
	if enqueueTimeout <= 0 {
		enqueueTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		jobs:           jobs,
		queue:          queue,
		lookup:         lookup,
		enqueueTimeout: enqueueTimeout,
		checkInterval:  CheckInterval,
		now:            time.Now,
		logger:         logger.Named("scheduler"),
		lastRun:        make(map[string]time.Time),
		lastTask:       make(map[string]uuid.UUID),
	}, nil
}

// Start starts the trigger loop. Every job is due immediately.
func (t *Trigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Scheduler started", zap.Int("jobs", len(t.jobs)), zap.Duration("check_interval", t.checkInterval))
	return nil
}

// Stop stops the trigger loop
func (t *Trigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Trigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	t.Tick(ctx)

	ticker := time.NewTicker(t.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Tick enqueues every due job and returns how many were enqueued
func (t *Trigger) Tick(ctx context.Context) int {
	enqueued := 0
	now := t.now()
	for _, job := range t.jobs {
		if !t.due(job, now) {
			continue
		}
		busy, err := t.previousBusy(ctx, job.TaskName)
		if err != nil {
			t.logger.Warn("Failed to check previous run", zap.String("task", job.TaskName), zap.Error(err))
		}
		if busy {
			t.logger.Debug("Previous run still active, skipping", zap.String("task", job.TaskName))
			continue
		}
		if err := t.enqueue(ctx, job, now); err != nil {
			t.logger.Error("Failed to enqueue scheduled task", zap.String("task", job.TaskName), zap.Error(err))
			continue
		}
		enqueued++
	}
	return enqueued
}

func (t *Trigger) due(job Job, now time.Time) bool {
	t.stateMu.Lock()
	defer t.stateMu.Unlock()
	last, ok := t.lastRun[job.TaskName]
	return !ok || !now.Before(last.Add(job.Interval))
}

func (t *Trigger) previousBusy(ctx context.Context, name string) (bool, error) {
	t.stateMu.Lock()
	id, ok := t.lastTask[name]
	t.stateMu.Unlock()
	if !ok || t.lookup == nil {
		return false, nil
	}
	task, err := t.lookup.FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch task.Status {
	case shared.TaskStatusPending, shared.TaskStatusProcessing, shared.TaskStatusFailed:
		return true, nil
	}
	return false, nil
}

func (t *Trigger) enqueue(ctx context.Context, job Job, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, t.enqueueTimeout)
	defer cancel()

	args := job.Args
	if args == nil {
		args = struct{}{}
	}
	task, err := t.queue.Enqueue(ctx, job.TaskName, args)
	if err != nil {
		return err
	}

	t.stateMu.Lock()
	t.lastRun[job.TaskName] = now
	t.lastTask[job.TaskName] = task.ID
	t.stateMu.Unlock()

	t.logger.Info("Scheduled task enqueued", zap.String("task", job.TaskName), zap.String("task_id", task.ID.String()))
	return nil
}

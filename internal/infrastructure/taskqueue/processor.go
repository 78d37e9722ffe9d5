package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/giftcampaign/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProcessorConfig holds configuration for the task processor
type ProcessorConfig struct {
	BatchSize        int
	PollInterval     time.Duration
	RetryCountdown   time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	CleanupInterval  time.Duration
}

// DefaultProcessorConfig returns default configuration
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		BatchSize:        50,
		PollInterval:     2 * time.Second,
		RetryCountdown:   shared.DefaultRetryCountdown,
		CleanupEnabled:   true,
		CleanupRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

// Metrics receives the outcome of every attempt
type Metrics interface {
	TaskFinished(ctx context.Context, name string, status shared.TaskStatus, duration time.Duration)
}

// Processor polls the task table and runs registered handlers
type Processor struct {
	repo     shared.TaskRepository
	registry *Registry
	config   ProcessorConfig
	metrics  Metrics
	logger   *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a new task processor
func NewProcessor(repo shared.TaskRepository, registry *Registry, config ProcessorConfig, log *zap.Logger) *Processor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultProcessorConfig().BatchSize
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultProcessorConfig().PollInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		repo:     repo,
		registry: registry,
		config:   config,
		logger:   log.Named("taskqueue"),
	}
}

// WithMetrics sets the metrics sink
func (p *Processor) WithMetrics(m Metrics) *Processor {
	p.metrics = m
	return p
}

// Start starts the background processing
func (p *Processor) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.processLoop(ctx)

	if p.config.CleanupEnabled && p.config.CleanupInterval > 0 {
		p.wg.Add(1)
		go p.cleanupLoop(ctx)
	}

	p.logger.Info("task processor started",
		zap.Int("batch_size", p.config.BatchSize),
		zap.Duration("poll_interval", p.config.PollInterval),
		zap.Strings("tasks", p.registry.Names()),
	)
	return nil
}

// Stop gracefully stops the processor
func (p *Processor) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("task processor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Processor) processLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce claims and runs one batch of pending and due retryable tasks.
// It returns the number of tasks attempted.
func (p *Processor) RunOnce(ctx context.Context) int {
	attempted := 0

	pending, err := p.repo.FindPending(ctx, p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find pending tasks", zap.Error(err))
		return attempted
	}
	attempted += p.processTasks(ctx, pending)

	retryable, err := p.repo.FindRetryable(ctx, time.Now(), p.config.BatchSize)
	if err != nil {
		p.logger.Error("failed to find retryable tasks", zap.Error(err))
		return attempted
	}
	attempted += p.processTasks(ctx, retryable)
	return attempted
}

func (p *Processor) processTasks(ctx context.Context, tasks []*shared.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	ids := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	claimed, err := p.repo.MarkProcessing(ctx, ids)
	if err != nil {
		p.logger.Error("failed to claim tasks", zap.Error(err))
		return 0
	}
	for _, task := range claimed {
		p.processTask(ctx, task)
	}
	return len(claimed)
}

func (p *Processor) processTask(ctx context.Context, task *shared.Task) {
	ctx = logger.WithTaskID(ctx, task.ID.String())
	ctx = logger.WithContext(ctx, p.logger.With(zap.String("task", task.Name)))
	ctx, span := telemetry.StartSpan(ctx, "task "+task.Name,
		telemetry.WithAttribute("task.id", task.ID.String()),
		telemetry.WithAttribute("task.retry_count", task.RetryCount),
	)
	defer span.End()

	start := time.Now()
	err := p.run(ctx, task)
	if err != nil {
		telemetry.RecordError(span, err)
		task.MarkFailed(err.Error(), p.config.RetryCountdown)
		if task.IsDead() {
			p.logger.Warn("task moved to dead letter",
				zap.String("task", task.Name),
				zap.String("task_id", task.ID.String()),
				zap.Int("retry_count", task.RetryCount),
				zap.String("last_error", task.LastError),
			)
		} else {
			p.logger.Error("task failed",
				zap.String("task", task.Name),
				zap.String("task_id", task.ID.String()),
				zap.Int("retry_count", task.RetryCount),
				zap.Timep("next_run_at", task.NextRunAt),
				zap.Error(err),
			)
		}
	} else {
		telemetry.SetOK(span)
		task.MarkDone()
		p.logger.Debug("task done",
			zap.String("task", task.Name),
			zap.String("task_id", task.ID.String()),
		)
	}

	if p.metrics != nil {
		p.metrics.TaskFinished(ctx, task.Name, task.Status, time.Since(start))
	}
	// The outcome is stored even when the run context was cancelled.
	if updateErr := p.repo.Update(context.WithoutCancel(ctx), task); updateErr != nil {
		p.logger.Error("failed to update task",
			zap.String("task_id", task.ID.String()),
			zap.Error(updateErr),
		)
	}
}

func (p *Processor) run(ctx context.Context, task *shared.Task) (err error) {
	handler, err := p.registry.Handler(task.Name)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	return handler(ctx, task)
}

func (p *Processor) cleanupLoop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cleanup(ctx)
		}
	}
}

func (p *Processor) cleanup(ctx context.Context) {
	cutoff := time.Now().Add(-p.config.CleanupRetention)
	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		p.logger.Error("failed to clean up finished tasks", zap.Error(err))
		return
	}
	if deleted > 0 {
		p.logger.Info("cleaned up finished tasks",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff),
		)
	}
}

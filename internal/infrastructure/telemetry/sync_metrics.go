package telemetry

import (
	"context"
	"time"

	"github.com/giftcampaign/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
)

// SyncMetrics records background task outcomes and logistics provider calls
type SyncMetrics struct {
	tasksFinished  *Counter
	taskDuration   *Histogram
	providerCalls  *Counter
	providerTiming *Histogram
	eventsIngested *Counter
}

// NewSyncMetrics creates the instruments on meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	tasksFinished, err := NewCounter(meter, "task_runs_total", "Background task attempts by final status", "{run}")
	if err != nil {
		return nil, err
	}
	taskDuration, err := NewHistogram(meter, HistogramOpts{
		Name:        "task_run_duration_seconds",
		Description: "Background task run time",
		Unit:        "s",
		Boundaries:  TaskDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	providerCalls, err := NewCounter(meter, "logistics_provider_calls_total", "Outbound logistics provider requests", "{call}")
	if err != nil {
		return nil, err
	}
	providerTiming, err := NewHistogram(meter, HistogramOpts{
		Name:        "logistics_provider_call_duration_seconds",
		Description: "Outbound logistics provider request latency",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	eventsIngested, err := NewCounter(meter, "logistics_events_ingested_total", "Inbound logistics events stored", "{event}")
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		tasksFinished:  tasksFinished,
		taskDuration:   taskDuration,
		providerCalls:  providerCalls,
		providerTiming: providerTiming,
		eventsIngested: eventsIngested,
	}, nil
}

// TaskFinished records one task attempt
func (m *SyncMetrics) TaskFinished(ctx context.Context, name string, status shared.TaskStatus, duration time.Duration) {
	m.tasksFinished.Inc(ctx, AttrTaskName.String(name), AttrTaskStatus.String(string(status)))
	m.taskDuration.RecordDuration(ctx, duration, AttrTaskName.String(name))
}

// ProviderCall records one outbound request to a logistics provider
func (m *SyncMetrics) ProviderCall(ctx context.Context, provider, operation string, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.providerCalls.Inc(ctx, AttrProvider.String(provider), AttrOperation.String(operation), AttrOutcome.String(outcome))
	m.providerTiming.RecordDuration(ctx, duration, AttrProvider.String(provider), AttrOperation.String(operation))
}

// EventIngested records a stored inbound event
func (m *SyncMetrics) EventIngested(ctx context.Context, provider, eventType string) {
	m.eventsIngested.Inc(ctx, AttrProvider.String(provider), AttrEventType.String(eventType))
}

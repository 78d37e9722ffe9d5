// Package bootstrap builds the components shared by the server and consumer
// binaries from configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/cache"
	"github.com/giftcampaign/backend/internal/infrastructure/config"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/orian"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/pickandpack"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence"
	"github.com/giftcampaign/backend/internal/infrastructure/taskqueue"
	"github.com/giftcampaign/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Logger creates the process logger tagged with service
func Logger(cfg *config.Config, service string) (*zap.Logger, error) {
	logCfg := logger.ConfigForEnvironment(cfg.App.Env, cfg.Log.Level)
	if cfg.Log.Format != "" {
		logCfg.Format = cfg.Log.Format
	}
	if cfg.Log.Output != "" {
		logCfg.Output = cfg.Log.Output
	}
	return logger.New(logCfg, service)
}

// Telemetry holds the trace and metric providers of a process
type Telemetry struct {
	Tracer  *telemetry.TracerProvider
	Meter   *telemetry.MeterProvider
	Metrics *telemetry.SyncMetrics
}

// NewTelemetry starts the OpenTelemetry providers. Disabled providers are
// no-ops, so callers never check for nil.
func NewTelemetry(ctx context.Context, cfg config.TelemetryConfig, log *zap.Logger) (*Telemetry, error) {
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Enabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		SamplingRatio:     cfg.SamplingRatio,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("tracer provider: %w", err)
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.MetricsEnabled,
		CollectorEndpoint: cfg.CollectorEndpoint,
		ExportInterval:    cfg.MetricsInterval,
		ServiceName:       cfg.ServiceName,
		Insecure:          cfg.Insecure,
	}, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("meter provider: %w", err)
	}

	metrics, err := telemetry.NewSyncMetrics(mp.Meter("gift-backend/logistics"))
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("sync metrics: %w", err)
	}
	return &Telemetry{Tracer: tp, Meter: mp, Metrics: metrics}, nil
}

// Shutdown flushes and stops both providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(t.Tracer.Shutdown(ctx), t.Meter.Shutdown(ctx))
}

// Database opens the Postgres connection logging through zap and, when
// enabled, tracing queries with otelgorm
func Database(cfg *config.Config, log *zap.Logger) (*persistence.Database, error) {
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithFullSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		return nil, err
	}

	tracing := telemetry.DefaultDBTracingConfig()
	tracing.Enabled = cfg.Telemetry.DBTraceEnabled
	tracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		tracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.NewDBTracingPlugin(tracing, log).RegisterOtelGorm(db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("register db tracing: %w", err)
	}
	return db, nil
}

// Providers registers both decoders and an adapter for every provider whose
// outbound settings are complete. The active provider must have one.
func Providers(cfg *config.Config, observer logistics.CallObserver, log *zap.Logger) (*applogistics.Providers, error) {
	active, err := logistics.ParseProvider(cfg.Logistics.ActiveProvider)
	if err != nil {
		return nil, fmt.Errorf("logistics.active_provider: %w", err)
	}

	orianCfg, err := orian.NewConfig(cfg.Orian, cfg.Logistics.RequestTimeout)
	if err != nil {
		return nil, err
	}
	ppCfg, err := pickandpack.NewConfig(cfg.PickAndPack, cfg.Logistics.RequestTimeout)
	if err != nil {
		return nil, err
	}

	providers := applogistics.NewProviders(active).
		AddDecoder(orian.NewDecoder(orianCfg.IDPrefix, orianCfg.Location)).
		AddDecoder(pickandpack.NewDecoder(ppCfg.IDPrefix, ppCfg.Location))

	if a, err := orian.NewAdapter(orianCfg, orian.WithObserver(observer), orian.WithLogger(log)); err == nil {
		providers.AddAdapter(a)
	} else if active == logistics.ProviderOrian {
		return nil, fmt.Errorf("active provider ORIAN: %w", err)
	}
	if a, err := pickandpack.NewAdapter(ppCfg, pickandpack.WithObserver(observer), pickandpack.WithLogger(log)); err == nil {
		providers.AddAdapter(a)
	} else if active == logistics.ProviderPickAndPack {
		return nil, fmt.Errorf("active provider PICK_AND_PACK: %w", err)
	}
	return providers, nil
}

// Ingestion wires the ingestion service with the delivery key store. The
// store is returned so the caller can close it.
func Ingestion(
	ctx context.Context,
	cfg *config.Config,
	scope *persistence.GormTransactionScope,
	providers *applogistics.Providers,
	observer applogistics.IngestObserver,
	log *zap.Logger,
) (*applogistics.IngestionService, shared.IdempotencyStore, error) {
	store, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := applogistics.NewIngestionService(scope, providers, store, shared.DefaultIdempotencyConfig(), log)
	if observer != nil {
		svc.WithObserver(observer)
	}
	return svc, store, nil
}

// Queue creates the task queue and the transaction scope enqueuing into it
func Queue(cfg *config.Config, db *persistence.Database, log *zap.Logger) (*taskqueue.Queue, *persistence.GormTransactionScope) {
	queue := taskqueue.NewQueue(db.DB, cfg.Tasks.MaxRetries, log)
	return queue, persistence.NewGormTransactionScope(db.DB, queue.ForTx)
}

// ProcessorConfig maps task settings onto the processor configuration
func ProcessorConfig(cfg config.TasksConfig) taskqueue.ProcessorConfig {
	pc := taskqueue.DefaultProcessorConfig()
	if cfg.BatchSize > 0 {
		pc.BatchSize = cfg.BatchSize
	}
	if cfg.PollInterval > 0 {
		pc.PollInterval = cfg.PollInterval
	}
	if cfg.RetryCountdown > 0 {
		pc.RetryCountdown = cfg.RetryCountdown
	}
	pc.CleanupEnabled = cfg.CleanupEnabled
	if cfg.CleanupRetention > 0 {
		pc.CleanupRetention = cfg.CleanupRetention
	}
	return pc
}

// ShutdownContext bounds graceful shutdown
func ShutdownContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

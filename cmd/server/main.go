package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	procurementapp "github.com/giftcampaign/backend/internal/application/procurement"
	"github.com/giftcampaign/backend/internal/bootstrap"
	"github.com/giftcampaign/backend/internal/infrastructure/config"
	"github.com/giftcampaign/backend/internal/infrastructure/messaging/rabbitmq"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence"
	"github.com/giftcampaign/backend/internal/infrastructure/scheduler"
	"github.com/giftcampaign/backend/internal/infrastructure/sftp"
	"github.com/giftcampaign/backend/internal/infrastructure/storage"
	"github.com/giftcampaign/backend/internal/infrastructure/taskqueue"
	"github.com/giftcampaign/backend/internal/interfaces/http/handler"
	"github.com/giftcampaign/backend/internal/interfaces/http/middleware"
	"github.com/giftcampaign/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Gift Campaign Backend API
//	@version		1.0
//	@description	Purchase order reconciliation and logistics provider sync
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	ProviderKey
//	@in							header
//	@name						Authorization
//	@description				Provider webhook key. Format: "Bearer {key}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := bootstrap.Logger(cfg, "web")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting gift campaign backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
	)

	tel, err := bootstrap.NewTelemetry(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := bootstrap.ShutdownContext()
		defer cancel()
		_ = tel.Shutdown(shutdownCtx)
	}()

	db, err := bootstrap.Database(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))

	queue, scope := bootstrap.Queue(cfg, db, log)
	providers, err := bootstrap.Providers(cfg, tel.Metrics, log)
	if err != nil {
		return err
	}
	ingestion, store, err := bootstrap.Ingestion(ctx, cfg, scope, providers, tel.Metrics, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	publisher, closePublisher, err := newPublisher(cfg.Messaging, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Logistics
	ledger := applogistics.NewStatusLedger(scope)
	eventProcessor := applogistics.NewEventProcessor(scope, providers, ledger,
		applogistics.NewReceiptRecorder(scope),
		applogistics.NewSnapshotProcessor(scope),
	)
	outbound := applogistics.NewOutboundService(scope, providers, log)

	// Procurement
	purchaseOrders := procurementapp.NewPurchaseOrderService(scope)
	summary := procurementapp.NewOrderSummaryService(
		persistence.NewGormSummaryRepository(db.DB),
		persistence.NewGormSupplierRepository(db.DB),
		persistence.NewGormSnapshotRepository(db.DB),
	)

	registry := taskqueue.NewRegistry()
	registry.Register(applogistics.TaskProcessEvent, eventProcessor.HandleTask)
	registry.Register(applogistics.TaskSendOrder, outbound.HandleTask)
	registry.Register(procurementapp.TaskApprove, procurementapp.NewApprovalExecutor(scope, providers, ledger).HandleTask)
	registry.Register(procurementapp.TaskNotifySupplier, procurementapp.NewSupplierNotifier(scope, publisher).HandleTask)

	jobs := scheduler.Jobs(cfg.Scheduler)
	snapshotSync, closeSource, err := newSnapshotSync(ctx, cfg, ingestion, log)
	if err != nil {
		return err
	}
	defer closeSource()
	if snapshotSync != nil {
		registry.Register(applogistics.TaskSyncSnapshots, snapshotSync.HandleTask)
	} else {
		jobs = withoutJob(jobs, applogistics.TaskSyncSnapshots)
	}

	taskRepo := taskqueue.NewGormTaskRepository(db.DB)
	if cfg.Tasks.WorkerEnabled {
		processor := taskqueue.NewProcessor(taskRepo, registry, bootstrap.ProcessorConfig(cfg.Tasks), log).
			WithMetrics(tel.Metrics)
		if err := processor.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := bootstrap.ShutdownContext()
			defer cancel()
			_ = processor.Stop(shutdownCtx)
		}()
		log.Info("Task processor started", zap.Strings("tasks", registry.Names()))
	}

	if cfg.Scheduler.Enabled && len(jobs) > 0 {
		trigger, err := scheduler.NewTrigger(jobs, queue, taskRepo, cfg.Scheduler.JobTimeout, log)
		if err != nil {
			return err
		}
		if err := trigger.Start(ctx); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := bootstrap.ShutdownContext()
			defer cancel()
			_ = trigger.Stop(shutdownCtx)
		}()
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine, err := router.NewEngine(router.Options{
		Logger:         log,
		Meter:          tel.Meter.Meter("gift-backend/http"),
		Tracing:        middleware.TracingConfig{ServiceName: cfg.Telemetry.ServiceName, Enabled: cfg.Telemetry.Enabled},
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		APIKeys:        cfg.Webhook.APIKeys,
	}, router.Handlers{
		Health:        handler.NewHealthHandler(sqlDB, version),
		Webhook:       handler.NewWebhookHandler(ingestion),
		PurchaseOrder: handler.NewPurchaseOrderHandler(purchaseOrders),
		Order:         handler.NewOrderHandler(outbound, summary),
		Task:          handler.NewTaskHandler(queue),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := bootstrap.ShutdownContext()
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("Server exited")
	return nil
}

// newPublisher connects to the notification exchange. Without a broker URL
// notifications are dropped.
func newPublisher(cfg config.MessagingConfig, log *zap.Logger) (procurementapp.Publisher, func(), error) {
	if cfg.URL == "" {
		log.Warn("messaging.url not set, supplier notifications are not published")
		return procurementapp.NopPublisher{}, func() {}, nil
	}
	conn, err := rabbitmq.Dial(cfg.URL, false)
	if err != nil {
		return nil, nil, err
	}
	pub, err := rabbitmq.NewPublisher(conn, cfg.Exchange, log)
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return pub, func() {
		_ = pub.Close()
		_ = conn.Close()
	}, nil
}

// newSnapshotSync returns nil when no SFTP host is configured. Reports are
// archived to the bucket when one is set and kept in memory otherwise.
func newSnapshotSync(ctx context.Context, cfg *config.Config, ingestion *applogistics.IngestionService, log *zap.Logger) (*applogistics.SnapshotSyncService, func(), error) {
	if cfg.Orian.SFTPHost == "" {
		log.Info("orian.sftp_host not set, stock snapshot sync disabled")
		return nil, func() {}, nil
	}
	source, err := sftp.NewSource(&cfg.Orian, log)
	if err != nil {
		return nil, nil, err
	}

	var archive applogistics.SnapshotArchive
	if cfg.Storage.Bucket != "" {
		s3, err := storage.NewS3Archive(ctx, &cfg.Storage, storage.WithLogger(log))
		if err != nil {
			_ = source.Close()
			return nil, nil, err
		}
		archive = s3
	} else {
		log.Warn("storage.bucket not set, stock reports are archived in memory only")
		archive = storage.NewMemoryArchive()
	}

	loc, err := time.LoadLocation(cfg.Orian.Timezone)
	if err != nil {
		_ = source.Close()
		return nil, nil, err
	}
	return applogistics.NewSnapshotSyncService(source, archive, ingestion, loc, log), func() { _ = source.Close() }, nil
}

func withoutJob(jobs []scheduler.Job, name string) []scheduler.Job {
	out := jobs[:0]
	for _, j := range jobs {
		if j.TaskName != name {
			out = append(out, j)
		}
	}
	return out
}

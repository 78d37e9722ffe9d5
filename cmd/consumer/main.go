// Command consumer reads the Orian RabbitMQ queues and stores every message
// as a logistics event. Processing happens in the server's task workers.
package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/giftcampaign/backend/internal/bootstrap"
	"github.com/giftcampaign/backend/internal/infrastructure/config"
	"github.com/giftcampaign/backend/internal/infrastructure/messaging/rabbitmq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := bootstrap.Logger(cfg, "consumer")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("Consumer stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if cfg.Orian.AMQPURL == "" {
		return errors.New("orian.amqp_url is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	_, scope := bootstrap.Queue(cfg, db, log)
	providers, err := bootstrap.Providers(cfg, tel.Metrics, log)
	if err != nil {
		return err
	}
	ingestion, store, err := bootstrap.Ingestion(ctx, cfg, scope, providers, tel.Metrics, log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	conn, err := rabbitmq.Dial(cfg.Orian.AMQPURL, cfg.Orian.AMQPSkipTLSVerify)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	log.Info("Consuming Orian queues", zap.Strings("queues", rabbitmq.OrianQueues))
	if err := rabbitmq.NewConsumer(conn, ingestion, rabbitmq.OrianQueues, log).Run(ctx); err != nil {
		return err
	}
	log.Info("Consumer exited")
	return nil
}

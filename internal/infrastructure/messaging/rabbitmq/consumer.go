package rabbitmq

import (
	"context"
	"errors"
	"fmt"

	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logistics/orian"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Ingester stores incoming provider messages
type Ingester interface {
	Ingest(ctx context.Context, req applogistics.IngestRequest) (*applogistics.IngestResult, error)
}

// OrianQueues are the queues Orian publishes warehouse events to
var OrianQueues = []string{orian.QueueReceipt, orian.QueueOrderStatusChange, orian.QueueShipOrder}

// Consumer reads the Orian queues and hands every message to ingestion.
// Malformed messages are rejected without requeue; storage failures are
// requeued.
type Consumer struct {
	conn     *amqp.Connection
	ingester Ingester
	queues   []string
	prefetch int
	logger   *zap.Logger
}

// NewConsumer creates a consumer of queues over conn
func NewConsumer(conn *amqp.Connection, ingester Ingester, queues []string, log *zap.Logger) *Consumer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Consumer{
		conn:     conn,
		ingester: ingester,
		queues:   queues,
		prefetch: 10,
		logger:   log.Named("orian_consumer"),
	}
}

// Run consumes until ctx is cancelled or the broker closes a channel
func (c *Consumer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, queue := range c.queues {
		ch, err := c.conn.Channel()
		if err != nil {
			return fmt.Errorf("failed to open channel: %w", err)
		}
		defer ch.Close()
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fmt.Errorf("failed to set qos: %w", err)
		}
		deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("failed to consume %s: %w", queue, err)
		}
		c.logger.Info("consuming queue", zap.String("queue", queue))

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case d, ok := <-deliveries:
					if !ok {
						return fmt.Errorf("queue %s: delivery channel closed", queue)
					}
					c.Handle(ctx, queue, d)
				}
			}
		})
	}
	return g.Wait()
}

// Handle validates and stores one delivery, then settles it
func (c *Consumer) Handle(ctx context.Context, queue string, d amqp.Delivery) {
	log := c.logger.With(zap.String("queue", queue), zap.Uint64("delivery_tag", d.DeliveryTag))
	err := c.ingest(ctx, queue, d)

	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", zap.Error(ackErr))
		}
	case errors.Is(err, logistics.ErrMalformedMessage), errors.Is(err, logistics.ErrUnknownMessageType):
		log.Warn("rejecting malformed message", zap.Error(err), zap.ByteString("body", d.Body))
		if rejErr := d.Reject(false); rejErr != nil {
			log.Error("failed to reject message", zap.Error(rejErr))
		}
	default:
		log.Error("failed to store message, requeueing", zap.Error(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", zap.Error(nackErr))
		}
	}
}

func (c *Consumer) ingest(ctx context.Context, queue string, d amqp.Delivery) error {
	req := applogistics.IngestRequest{
		Provider:   logistics.ProviderOrian,
		WireType:   queue,
		Body:       d.Body,
		DeliveryID: d.MessageId,
		SourceRef:  queue,
	}
	if !d.Timestamp.IsZero() {
		at := d.Timestamp.UTC()
		req.OccurredAt = &at
	}

	messageType, ok := orian.QueueMessageType(queue)
	if !ok {
		return fmt.Errorf("%w: queue %s", logistics.ErrUnknownMessageType, queue)
	}
	if err := orian.ValidateEnvelope(messageType, d.Body); err != nil {
		return err
	}
	_, err := c.ingester.Ingest(ctx, req)
	return err
}

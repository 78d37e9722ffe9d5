package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/streadway/amqp"
	"go.uber.org/zap"
)

// Publisher publishes JSON messages to a durable topic exchange
type Publisher struct {
	mu       sync.Mutex
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher opens a channel on conn and declares the exchange
func NewPublisher(conn *amqp.Connection, exchange string, log *zap.Logger) (*Publisher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{channel: ch, exchange: exchange, logger: log.Named("amqp_publisher")}, nil
}

// Publish sends body as a persistent message. Channels are not safe for
// concurrent publishing, so calls are serialized.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         routingKey,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.channel.Publish(p.exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", routingKey, err)
	}
	p.logger.Debug("message published",
		zap.String("exchange", p.exchange),
		zap.String("routing_key", routingKey),
		zap.String("message_id", msg.MessageId),
	)
	return nil
}

// Close closes the channel
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.channel.Close()
}

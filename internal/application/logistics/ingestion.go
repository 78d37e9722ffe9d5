package logistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// IngestRequest is a provider payload as received by a transport
type IngestRequest struct {
	Provider logistics.Provider
	// WireType is the provider's name for the message (webhook type, queue name)
	WireType string
	Body     []byte
	// DeliveryID is the transport's delivery identifier, if any
	DeliveryID string
	SourceRef  string
	OccurredAt *time.Time
}

// IngestResult reports the stored event
type IngestResult struct {
	EventID     int64
	MessageType logistics.MessageType
	// Duplicate is set when the payload was already stored; EventID is then
	// zero
	Duplicate bool
}

// IngestObserver is notified of every stored event
type IngestObserver interface {
	EventIngested(ctx context.Context, provider, eventType string)
}

// IngestionService stores provider payloads and schedules their processing.
// No provider call and no entity update happens here.
type IngestionService struct {
	scope       txn.TransactionScope
	providers   *Providers
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	observer    IngestObserver
	logger      *zap.Logger
}

// NewIngestionService creates an ingestion service. idempotency may be nil, in
// which case redelivered delivery ids are only caught by the events table.
func NewIngestionService(scope txn.TransactionScope, providers *Providers, idempotency shared.IdempotencyStore, idemConfig shared.IdempotencyConfig, log *zap.Logger) *IngestionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestionService{
		scope:       scope,
		providers:   providers,
		idempotency: idempotency,
		idemConfig:  idemConfig,
		logger:      log.Named("ingestion"),
	}
}

// WithObserver sets the observer of stored events
func (s *IngestionService) WithObserver(o IngestObserver) *IngestionService {
	s.observer = o
	return s
}

// Classify maps a provider's message name to a message type
func (s *IngestionService) Classify(provider logistics.Provider, wireType string) (logistics.MessageType, error) {
	decoder, err := s.providers.Decoder(provider)
	if err != nil {
		return "", err
	}
	messageType, ok := decoder.Classify(wireType)
	if !ok {
		return "", fmt.Errorf("%w: %s %q", logistics.ErrUnknownMessageType, provider, wireType)
	}
	return messageType, nil
}

// Ingest stores the payload as a LogisticsEvent and enqueues its processing
// in the same transaction. Redeliveries of a transport delivery id are
// acknowledged without a second event; payloads without one are always stored.
func (s *IngestionService) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	messageType, err := s.Classify(req.Provider, req.WireType)
	if err != nil {
		return nil, err
	}

	event := logistics.NewLogisticsEvent(req.Provider, messageType, req.Body, req.DeliveryID)
	event.SourceRef = req.SourceRef
	event.OccurredAt = req.OccurredAt
	log := logger.L(ctx).With(
		zap.String("provider", string(req.Provider)),
		zap.String("message_type", string(messageType)),
		zap.String("dedupe_key", event.DedupeKey),
	)

	dedupe := event.HasDeliveryID()
	key := idempotencyKey(event)
	marked := false
	if dedupe && s.idempotency != nil && s.idemConfig.Enabled {
		fresh, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL)
		switch {
		case err != nil:
			// The stored dedupe key still catches the redelivery.
			log.Warn("idempotency store unavailable", zap.Error(err))
		case !fresh:
			log.Info("duplicate delivery ignored")
			return &IngestResult{MessageType: messageType, Duplicate: true}, nil
		default:
			marked = true
		}
	}

	duplicate := false
	err = s.scope.Execute(ctx, func(repos txn.Repositories) error {
		if dedupe {
			exists, err := repos.Events().ExistsByDedupeKey(ctx, event.Provider, event.DedupeKey)
			if err != nil {
				return err
			}
			if exists {
				duplicate = true
				return nil
			}
		}
		if err := repos.Events().Create(ctx, event); err != nil {
			return err
		}
		_, err = repos.Tasks().Enqueue(ctx, TaskProcessEvent, ProcessEventArgs{EventID: event.ID})
		return err
	})
	if errors.Is(err, shared.ErrAlreadyExists) {
		duplicate, err = true, nil
	}
	if err != nil {
		if marked {
			if ferr := s.idempotency.Forget(ctx, key); ferr != nil {
				log.Warn("failed to release idempotency key", zap.Error(ferr))
			}
		}
		return nil, fmt.Errorf("store logistics event: %w", err)
	}
	if duplicate {
		log.Info("duplicate payload ignored")
		return &IngestResult{MessageType: messageType, Duplicate: true}, nil
	}

	if s.observer != nil {
		s.observer.EventIngested(ctx, string(event.Provider), string(messageType))
	}
	log.Info("logistics event stored", zap.Int64("event_id", event.ID))
	return &IngestResult{EventID: event.ID, MessageType: messageType}, nil
}

func idempotencyKey(e *logistics.LogisticsEvent) string {
	return "logistics:" + string(e.Provider) + ":" + e.DedupeKey
}

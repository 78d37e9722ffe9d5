package logistics

import (
	"context"
	"fmt"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// EventProcessor decodes stored events and dispatches them by message type
type EventProcessor struct {
	scope     txn.TransactionScope
	providers *Providers
	ledger    *StatusLedger
	receipts  *ReceiptRecorder
	snapshots *SnapshotProcessor
}

// NewEventProcessor creates a processor
func NewEventProcessor(scope txn.TransactionScope, providers *Providers, ledger *StatusLedger, receipts *ReceiptRecorder, snapshots *SnapshotProcessor) *EventProcessor {
	return &EventProcessor{
		scope:     scope,
		providers: providers,
		ledger:    ledger,
		receipts:  receipts,
		snapshots: snapshots,
	}
}

// HandleTask runs TaskProcessEvent
func (p *EventProcessor) HandleTask(ctx context.Context, task *shared.Task) error {
	var args ProcessEventArgs
	if err := task.DecodeArgs(&args); err != nil {
		return err
	}
	return p.Process(ctx, args.EventID)
}

// Process handles one stored event. Errors are returned to the task runner.
func (p *EventProcessor) Process(ctx context.Context, eventID int64) error {
	var event *logistics.LogisticsEvent
	if err := p.scope.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		event, err = repos.Events().FindByID(ctx, eventID)
		return err
	}); err != nil {
		return fmt.Errorf("load event %d: %w", eventID, err)
	}

	ctx = logger.WithProvider(ctx, string(event.Provider))
	decoder, err := p.providers.Decoder(event.Provider)
	if err != nil {
		return err
	}
	msg, err := decoder.Decode(event)
	if err != nil {
		logger.L(ctx).Warn("event cannot be decoded",
			zap.Int64("event_id", event.ID),
			zap.String("message_type", string(event.MessageType)),
			zap.Error(err))
		return err
	}

	switch m := msg.(type) {
	case logistics.OrderStatusChange:
		return p.ledger.RecordOrderStatus(ctx, event.Provider, m, event.ID)
	case logistics.ShipNotice:
		return p.ledger.RecordShipment(ctx, event.Provider, m, event.ID)
	case logistics.InboundStatusChange:
		return p.ledger.RecordInboundStatus(ctx, event.Provider, m, event.ID)
	case logistics.InboundReceipt:
		return p.receipts.Record(ctx, event.Provider, m, event.ID)
	case logistics.StockSnapshot:
		_, err := p.snapshots.RecordSnapshot(ctx, event.Provider, m.TakenAt, m.Lines, event.SourceRef)
		return err
	}
	return fmt.Errorf("%w: %s", logistics.ErrUnknownMessageType, msg.Type())
}

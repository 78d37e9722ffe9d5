package logistics

import (
	"context"
	"time"
)

// EventRepository stores raw provider payloads
type EventRepository interface {
	Create(ctx context.Context, event *LogisticsEvent) error
	FindByID(ctx context.Context, id int64) (*LogisticsEvent, error)
	// ExistsByDedupeKey reports whether an event with the key was stored
	ExistsByDedupeKey(ctx context.Context, provider Provider, key string) (bool, error)
}

// StatusRepository is the append-only status history
type StatusRepository interface {
	// Insert stores the record unless an identical one exists, reporting
	// whether a row was created
	Insert(ctx context.Context, record *StatusRecord) (bool, error)

	// Latest returns the record with the greatest status time for an entity
	Latest(ctx context.Context, kind EntityKind, entityID int64) (*StatusRecord, error)

	// FindByEntity lists the history of an entity, oldest first
	FindByEntity(ctx context.Context, kind EntityKind, entityID int64) ([]StatusRecord, error)
}

// SnapshotRepository stores stock snapshots
type SnapshotRepository interface {
	// Upsert stores the snapshot keyed by provider and time and one line per
	// SKU, replacing quantities of existing lines
	Upsert(ctx context.Context, snapshot *Snapshot) error

	// FindLatest returns the most recent snapshot of any provider
	FindLatest(ctx context.Context) (*Snapshot, error)

	// LatestQuantities maps each SKU to its line in the latest snapshot
	LatestQuantities(ctx context.Context) (map[string]SnapshotLine, time.Time, error)
}

// ReceiptRepository stores inbound receipts
type ReceiptRepository interface {
	// Upsert stores the receipt keyed by provider and code and its lines
	// keyed by line number
	Upsert(ctx context.Context, receipt *Receipt) error

	// ReceivedByLineItem sums received quantities per purchase order line item
	ReceivedByLineItem(ctx context.Context, lineItemIDs []int64) (map[int64]int, error)
}

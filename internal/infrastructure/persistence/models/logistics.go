package models

import (
	"time"

	"github.com/giftcampaign/backend/internal/domain/logistics"
)

// LogisticsEventModel stores a raw provider payload. DedupeKey is NULL for
// payloads without a delivery id, which the unique index does not cover.
type LogisticsEventModel struct {
	ID          int64                 `gorm:"primaryKey;autoIncrement"`
	Provider    logistics.Provider    `gorm:"type:varchar(30);not null;uniqueIndex:idx_logistics_event_dedupe,priority:1"`
	MessageType logistics.MessageType `gorm:"type:varchar(40);not null;index"`
	Body        []byte                `gorm:"not null"`
	DedupeKey   *string               `gorm:"type:varchar(128);uniqueIndex:idx_logistics_event_dedupe,priority:2"`
	SourceRef   string                `gorm:"type:varchar(255)"`
	OccurredAt  *time.Time
	ReceivedAt  time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (LogisticsEventModel) TableName() string {
	return "logistics_events"
}

// ToDomain converts the persistence model to a domain LogisticsEvent.
func (m *LogisticsEventModel) ToDomain() *logistics.LogisticsEvent {
	return &logistics.LogisticsEvent{
		ID:          m.ID,
		Provider:    m.Provider,
		MessageType: m.MessageType,
		Body:        m.Body,
		DedupeKey:   derefString(m.DedupeKey),
		SourceRef:   m.SourceRef,
		OccurredAt:  m.OccurredAt,
		ReceivedAt:  m.ReceivedAt,
	}
}

// LogisticsEventModelFromDomain creates a new persistence model from a domain LogisticsEvent
func LogisticsEventModelFromDomain(e *logistics.LogisticsEvent) *LogisticsEventModel {
	return &LogisticsEventModel{
		ID:          e.ID,
		Provider:    e.Provider,
		MessageType: e.MessageType,
		Body:        e.Body,
		DedupeKey:   nullableString(e.DedupeKey),
		SourceRef:   e.SourceRef,
		OccurredAt:  e.OccurredAt,
		ReceivedAt:  e.ReceivedAt,
	}
}

// StatusRecordModel is one row of the append-only status history.
// EventID is 0 rather than NULL when no source event exists so the unique
// index also covers those rows.
type StatusRecordModel struct {
	ID         int64                `gorm:"primaryKey;autoIncrement"`
	EntityKind logistics.EntityKind `gorm:"type:varchar(20);not null;uniqueIndex:idx_status_record_unique,priority:1;index:idx_status_record_entity,priority:1"`
	EntityID   int64                `gorm:"not null;uniqueIndex:idx_status_record_unique,priority:2;index:idx_status_record_entity,priority:2"`
	Status     string               `gorm:"type:varchar(100);not null;uniqueIndex:idx_status_record_unique,priority:3"`
	StatusAt   time.Time            `gorm:"not null;uniqueIndex:idx_status_record_unique,priority:4;index:idx_status_record_entity,priority:3"`
	EventID    int64                `gorm:"not null;default:0;uniqueIndex:idx_status_record_unique,priority:5"`
	Provider   logistics.Provider   `gorm:"type:varchar(30)"`
	CreatedAt  time.Time            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StatusRecordModel) TableName() string {
	return "logistics_status_records"
}

// ToDomain converts the persistence model to a domain StatusRecord.
func (m *StatusRecordModel) ToDomain() logistics.StatusRecord {
	return logistics.StatusRecord{
		ID:         m.ID,
		EntityKind: m.EntityKind,
		EntityID:   m.EntityID,
		Provider:   m.Provider,
		Status:     m.Status,
		StatusAt:   m.StatusAt,
		EventID:    m.EventID,
		CreatedAt:  m.CreatedAt,
	}
}

// StatusRecordModelFromDomain creates a new persistence model from a domain StatusRecord
func StatusRecordModelFromDomain(r *logistics.StatusRecord) *StatusRecordModel {
	return &StatusRecordModel{
		ID:         r.ID,
		EntityKind: r.EntityKind,
		EntityID:   r.EntityID,
		Provider:   r.Provider,
		Status:     r.Status,
		StatusAt:   r.StatusAt,
		EventID:    r.EventID,
		CreatedAt:  r.CreatedAt,
	}
}

// StockSnapshotModel is a provider inventory snapshot.
type StockSnapshotModel struct {
	ID          int64                    `gorm:"primaryKey;autoIncrement"`
	Provider    logistics.Provider       `gorm:"type:varchar(30);not null;uniqueIndex:idx_stock_snapshot_unique,priority:1"`
	SnapshotAt  time.Time                `gorm:"not null;uniqueIndex:idx_stock_snapshot_unique,priority:2;index"`
	SourceRef   string                   `gorm:"type:varchar(255)"`
	ProcessedAt time.Time                `gorm:"not null"`
	Lines       []StockSnapshotLineModel `gorm:"foreignKey:SnapshotID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (StockSnapshotModel) TableName() string {
	return "stock_snapshots"
}

// ToDomain converts the persistence model to a domain Snapshot.
func (m *StockSnapshotModel) ToDomain() *logistics.Snapshot {
	s := &logistics.Snapshot{
		ID:          m.ID,
		Provider:    m.Provider,
		TakenAt:     m.SnapshotAt,
		SourceRef:   m.SourceRef,
		ProcessedAt: m.ProcessedAt,
		Lines:       make([]logistics.SnapshotLine, len(m.Lines)),
	}
	for i, l := range m.Lines {
		s.Lines[i] = l.ToDomain()
	}
	return s
}

// StockSnapshotLineModel is the quantity of one SKU in a snapshot.
type StockSnapshotLineModel struct {
	ID         int64  `gorm:"primaryKey;autoIncrement"`
	SnapshotID int64  `gorm:"not null;uniqueIndex:idx_stock_snapshot_line_unique,priority:1"`
	SKU        string `gorm:"column:sku;type:varchar(100);not null;uniqueIndex:idx_stock_snapshot_line_unique,priority:2"`
	Quantity   int    `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockSnapshotLineModel) TableName() string {
	return "stock_snapshot_lines"
}

// ToDomain converts the persistence model to a domain SnapshotLine.
func (m *StockSnapshotLineModel) ToDomain() logistics.SnapshotLine {
	return logistics.SnapshotLine{
		ID:         m.ID,
		SnapshotID: m.SnapshotID,
		SKU:        m.SKU,
		Quantity:   m.Quantity,
	}
}

// InboundReceiptModel is a provider goods receipt for purchase orders.
type InboundReceiptModel struct {
	ID        int64                     `gorm:"primaryKey;autoIncrement"`
	Provider  logistics.Provider        `gorm:"type:varchar(30);not null;uniqueIndex:idx_inbound_receipt_unique,priority:1"`
	Code      string                    `gorm:"type:varchar(100);not null;uniqueIndex:idx_inbound_receipt_unique,priority:2"`
	Status    string                    `gorm:"type:varchar(100)"`
	StartedAt time.Time                 `gorm:"not null"`
	ClosedAt  *time.Time
	EventID   int64                     `gorm:"index"`
	Lines     []InboundReceiptLineModel `gorm:"foreignKey:ReceiptID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InboundReceiptModel) TableName() string {
	return "inbound_receipts"
}

// InboundReceiptLineModel is one received line of a receipt.
type InboundReceiptLineModel struct {
	ID                      int64  `gorm:"primaryKey;autoIncrement"`
	ReceiptID               int64  `gorm:"not null;uniqueIndex:idx_inbound_receipt_line_unique,priority:1"`
	LineNumber              int    `gorm:"not null;uniqueIndex:idx_inbound_receipt_line_unique,priority:2"`
	PurchaseOrderLineItemID int64  `gorm:"not null;index"`
	SKU                     string `gorm:"column:sku;type:varchar(100)"`
	QuantityReceived        int    `gorm:"not null"`
	EventID                 int64
}

// TableName returns the table name for GORM
func (InboundReceiptLineModel) TableName() string {
	return "inbound_receipt_lines"
}

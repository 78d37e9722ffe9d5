package persistence

import (
	"context"

	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormReceiptRepository implements logistics.ReceiptRepository using GORM
type GormReceiptRepository struct {
	db *gorm.DB
}

// NewGormReceiptRepository creates a new GormReceiptRepository
func NewGormReceiptRepository(db *gorm.DB) *GormReceiptRepository {
	return &GormReceiptRepository{db: db}
}

// Upsert stores the receipt keyed by (provider, code) and its lines keyed by
// (receipt, line number). Redelivered receipts overwrite quantities.
func (r *GormReceiptRepository) Upsert(ctx context.Context, receipt *logistics.Receipt) error {
	db := r.db.WithContext(ctx)
	header := &models.InboundReceiptModel{
		Provider:  receipt.Provider,
		Code:      receipt.Code,
		Status:    receipt.Status,
		StartedAt: receipt.StartedAt.UTC(),
		ClosedAt:  receipt.ClosedAt,
		EventID:   receipt.EventID,
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "code"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "started_at", "closed_at", "event_id"}),
	}).Omit("Lines").Create(header).Error; err != nil {
		return err
	}

	var stored models.InboundReceiptModel
	if err := db.Where("provider = ? AND code = ?", receipt.Provider, receipt.Code).First(&stored).Error; err != nil {
		return err
	}
	receipt.ID = stored.ID

	if len(receipt.Lines) == 0 {
		return nil
	}
	lines := make([]models.InboundReceiptLineModel, len(receipt.Lines))
	for i, l := range receipt.Lines {
		lines[i] = models.InboundReceiptLineModel{
			ReceiptID:               stored.ID,
			LineNumber:              l.LineNumber,
			PurchaseOrderLineItemID: l.PurchaseOrderLineItemID,
			SKU:                     l.SKU,
			QuantityReceived:        l.QuantityReceived,
			EventID:                 l.EventID,
		}
	}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "receipt_id"}, {Name: "line_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"purchase_order_line_item_id", "sku", "quantity_received", "event_id"}),
	}).Create(&lines).Error; err != nil {
		return err
	}
	for i := range receipt.Lines {
		receipt.Lines[i].ReceiptID = stored.ID
	}
	return nil
}

// ReceivedByLineItem sums received quantities per purchase order line item
func (r *GormReceiptRepository) ReceivedByLineItem(ctx context.Context, lineItemIDs []int64) (map[int64]int, error) {
	out := make(map[int64]int, len(lineItemIDs))
	if len(lineItemIDs) == 0 {
		return out, nil
	}
	type row struct {
		PurchaseOrderLineItemID int64
		Total                   int
	}
	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.InboundReceiptLineModel{}).
		Select("purchase_order_line_item_id, SUM(quantity_received) AS total").
		Where("purchase_order_line_item_id IN ?", lineItemIDs).
		Group("purchase_order_line_item_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.PurchaseOrderLineItemID] = rw.Total
	}
	return out, nil
}

var _ logistics.ReceiptRepository = (*GormReceiptRepository)(nil)

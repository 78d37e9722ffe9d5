package logistics

import (
	"context"
	"fmt"
	"time"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/logistics"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// SnapshotProcessor stores stock snapshots and points every product at its
// line in the latest one
type SnapshotProcessor struct {
	scope txn.TransactionScope
}

// NewSnapshotProcessor creates a processor
func NewSnapshotProcessor(scope txn.TransactionScope) *SnapshotProcessor {
	return &SnapshotProcessor{scope: scope}
}

// RecordSnapshot sums duplicate SKUs and upserts the snapshot, then reassigns
// product stock lines in a separate transaction. A failed reassignment leaves
// the stored snapshot in place and is returned so the caller retries; the
// reassignment is idempotent.
func (p *SnapshotProcessor) RecordSnapshot(ctx context.Context, provider logistics.Provider, takenAt time.Time, lines []logistics.SnapshotLine, sourceRef string) (*logistics.Snapshot, error) {
	snapshot := &logistics.Snapshot{
		Provider:  provider,
		TakenAt:   takenAt,
		SourceRef: sourceRef,
		Lines:     logistics.SummarizeLines(lines),
	}
	if err := p.scope.Execute(ctx, func(repos txn.Repositories) error {
		return repos.Snapshots().Upsert(ctx, snapshot)
	}); err != nil {
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	var reassigned int64
	if err := p.scope.Execute(ctx, func(repos txn.Repositories) error {
		latest, err := repos.Snapshots().FindLatest(ctx)
		if err != nil {
			return err
		}
		reassigned, err = repos.Products().ReassignLatestStockLines(ctx, latest.ID)
		return err
	}); err != nil {
		return snapshot, fmt.Errorf("reassign stock lines: %w", err)
	}

	logger.L(ctx).Info("stock snapshot recorded",
		zap.Int64("snapshot_id", snapshot.ID),
		zap.Time("taken_at", snapshot.TakenAt),
		zap.Int("lines", len(snapshot.Lines)),
		zap.Int64("products_updated", reassigned),
	)
	return snapshot, nil
}

package procurement

import (
	"context"

	"github.com/giftcampaign/backend/internal/application/txn"
	"github.com/giftcampaign/backend/internal/domain/procurement"
	"github.com/giftcampaign/backend/internal/domain/shared"
	"github.com/giftcampaign/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// allocate attaches unattached order line items summing exactly to the
// line quantity. It must run inside the transaction that created the line.
func allocate(ctx context.Context, repos txn.Repositories, line *procurement.LineItem, campaignID, organizationID int64) error {
	candidates, err := repos.LineItems().FindCandidates(ctx, line.CandidateQuery(campaignID, organizationID))
	if err != nil {
		return err
	}
	selected, ok := procurement.SelectExact(candidates, line.Quantity)
	if !ok {
		return line.AllocationError()
	}
	if err := repos.LineItems().Attach(ctx, procurement.IDs(selected), line.ID); err != nil {
		return err
	}
	logger.L(ctx).Debug("line allocated",
		zap.Int64("purchase_order_line_item_id", line.ID),
		zap.Int("quantity", line.Quantity),
		zap.Int("order_line_items", len(selected)),
	)
	return nil
}

// reallocate brings the attached set of line to its current quantity,
// growing from the unattached pool or releasing an exact subset
func reallocate(ctx context.Context, repos txn.Repositories, line *procurement.LineItem) error {
	attached, err := repos.LineItems().FindAttached(ctx, line.ID)
	if err != nil {
		return err
	}
	plan, err := procurement.PlanReallocation(line, attached, line.Quantity)
	if err != nil {
		return err
	}
	switch {
	case plan.IsNoop():
		return nil
	case plan.Grow > 0:
		candidates, err := repos.LineItems().FindCandidates(ctx, line.CandidateQuery(0, 0))
		if err != nil {
			return err
		}
		selected, ok := procurement.SelectExact(candidates, plan.Grow)
		if !ok {
			return shared.Errorf(shared.ErrAllocationFailed,
				"Cannot allocate %d more units of %s to order line items", plan.Grow, line.Label())
		}
		return repos.LineItems().Attach(ctx, procurement.IDs(selected), line.ID)
	default:
		return repos.LineItems().Detach(ctx, procurement.IDs(plan.Detach), line.ID)
	}
}

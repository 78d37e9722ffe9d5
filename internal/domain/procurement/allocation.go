package procurement

import (
	"github.com/giftcampaign/backend/internal/domain/ordering"
	"github.com/giftcampaign/backend/internal/domain/shared"
)

// SelectExact walks candidates in order, accumulating quantities until the
// sum equals required. A candidate that would overshoot, or running out of
// candidates first, fails the selection. There is no backtracking: the
// outcome depends on candidate order.
func SelectExact(candidates []ordering.OrderLineItem, required int) ([]ordering.OrderLineItem, bool) {
	if required <= 0 {
		return nil, false
	}

	sum := 0
	for i, c := range candidates {
		if c.Quantity <= 0 {
			continue
		}
		if sum+c.Quantity > required {
			return nil, false
		}
		sum += c.Quantity
		if sum == required {
			selected := make([]ordering.OrderLineItem, 0, i+1)
			for _, s := range candidates[:i+1] {
				if s.Quantity > 0 {
					selected = append(selected, s)
				}
			}
			return selected, true
		}
	}
	return nil, false
}

// TotalQuantity sums line item quantities
func TotalQuantity(items []ordering.OrderLineItem) int {
	total := 0
	for _, it := range items {
		total += it.Quantity
	}
	return total
}

// IDs returns the ids of the line items
func IDs(items []ordering.OrderLineItem) []int64 {
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Reallocation describes how to move an attached set to a new quantity.
// At most one of Grow and Detach is set.
type Reallocation struct {
	// Grow is the number of units to attach from the unattached pool
	Grow int
	// Detach are attached items to release
	Detach []ordering.OrderLineItem
}

// IsNoop reports whether the attached set already matches
func (r Reallocation) IsNoop() bool {
	return r.Grow == 0 && len(r.Detach) == 0
}

// PlanReallocation computes the change needed to bring the attached set to
// required units. Shrinking selects the detached subset from the attached set
// with the same exact-sum walk as allocation.
func PlanReallocation(line *LineItem, attached []ordering.OrderLineItem, required int) (Reallocation, error) {
	prev := TotalQuantity(attached)
	switch {
	case required == prev:
		return Reallocation{}, nil
	case required > prev:
		return Reallocation{Grow: required - prev}, nil
	}

	detach, ok := SelectExact(attached, prev-required)
	if !ok {
		return Reallocation{}, shared.Errorf(shared.ErrAllocationFailed,
			"Cannot release %d attached units of %s", prev-required, line.Label())
	}
	return Reallocation{Detach: detach}, nil
}

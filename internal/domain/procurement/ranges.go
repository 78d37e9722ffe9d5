package procurement

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/giftcampaign/backend/internal/domain/shared"
)

// RangeChunkSize is the number of purchase order ids per list range bucket
const RangeChunkSize = 10

// IDRange is an inclusive purchase order id range
type IDRange struct {
	Min int64
	Max int64
}

// String formats the range as "min-max"
func (r IDRange) String() string {
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

// Contains reports whether id lies in the range
func (r IDRange) Contains(id int64) bool {
	return id >= r.Min && id <= r.Max
}

// ParseIDRange parses a "min-max" range
func ParseIDRange(s string) (IDRange, error) {
	lo, hi, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return IDRange{}, shared.Errorf(shared.ErrInvalidInput, "Invalid purchase order range %q", s)
	}
	minID, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return IDRange{}, shared.Errorf(shared.ErrInvalidInput, "Invalid purchase order range %q", s)
	}
	maxID, err := strconv.ParseInt(hi, 10, 64)
	if err != nil || maxID < minID {
		return IDRange{}, shared.Errorf(shared.ErrInvalidInput, "Invalid purchase order range %q", s)
	}
	return IDRange{Min: minID, Max: maxID}, nil
}

// RangeBuckets chunks ascending ids into ranges of RangeChunkSize ids
func RangeBuckets(sortedIDs []int64) []IDRange {
	buckets := make([]IDRange, 0, (len(sortedIDs)+RangeChunkSize-1)/RangeChunkSize)
	for i := 0; i < len(sortedIDs); i += RangeChunkSize {
		end := min(i+RangeChunkSize, len(sortedIDs))
		buckets = append(buckets, IDRange{Min: sortedIDs[i], Max: sortedIDs[end-1]})
	}
	return buckets
}

type rangesKey struct{}

// WithPORanges stores the range buckets computed for the current request
func WithPORanges(ctx context.Context, ranges []IDRange) context.Context {
	return context.WithValue(ctx, rangesKey{}, ranges)
}

// PORangesFromContext returns the range buckets of the current request
func PORangesFromContext(ctx context.Context) []IDRange {
	ranges, _ := ctx.Value(rangesKey{}).([]IDRange)
	return ranges
}

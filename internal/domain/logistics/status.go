package logistics

import "time"

// EntityKind names the kind of entity a status record belongs to
type EntityKind string

const (
	EntityOrder         EntityKind = "ORDER"
	EntityPurchaseOrder EntityKind = "PURCHASE_ORDER"
)

// StatusRecord is one timestamped status of an entity. Records are only
// ever inserted.
type StatusRecord struct {
	ID         int64
	EntityKind EntityKind
	EntityID   int64
	Provider   Provider
	Status     string
	StatusAt   time.Time
	EventID    int64
	CreatedAt  time.Time
}

// Latest picks the record with the greatest StatusAt, ties going to the
// highest id. It returns nil for an empty slice.
func Latest(records []StatusRecord) *StatusRecord {
	var best *StatusRecord
	for i := range records {
		r := &records[i]
		if best == nil || r.StatusAt.After(best.StatusAt) ||
			(r.StatusAt.Equal(best.StatusAt) && r.ID > best.ID) {
			best = r
		}
	}
	return best
}

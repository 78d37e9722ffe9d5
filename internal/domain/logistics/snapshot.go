package logistics

import "time"

// SnapshotLine is the stock quantity of one SKU
type SnapshotLine struct {
	ID         int64
	SnapshotID int64
	SKU        string
	Quantity   int
}

// Snapshot is a stored point-in-time stock report
type Snapshot struct {
	ID          int64
	Provider    Provider
	TakenAt     time.Time
	SourceRef   string
	ProcessedAt time.Time
	Lines       []SnapshotLine
}

// SummarizeLines merges lines with the same SKU by summing quantities,
// keeping first-seen SKU order. Lines without a SKU are dropped.
func SummarizeLines(lines []SnapshotLine) []SnapshotLine {
	index := make(map[string]int, len(lines))
	out := make([]SnapshotLine, 0, len(lines))
	for _, l := range lines {
		if l.SKU == "" {
			continue
		}
		if i, ok := index[l.SKU]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.SKU] = len(out)
		out = append(out, SnapshotLine{SKU: l.SKU, Quantity: l.Quantity})
	}
	return out
}

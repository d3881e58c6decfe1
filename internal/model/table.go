package model

import "time"

// PivotRow is one table row: every window whose latest observation for
// Instrument fell on Date. Values is sparse, a missing window means the fetch
// failed or reported a different date.
type PivotRow struct {
	Instrument Instrument         `json:"instrument"`
	Date       string             `json:"date"`
	Values     map[WindowSize]int `json:"values"`
}

// Value returns the rounded percentile for a window, if present.
func (r PivotRow) Value(w WindowSize) (int, bool) {
	v, ok := r.Values[w]
	return v, ok
}

// Bucket is the display severity of a percentile value.
type Bucket string

const (
	BucketCritical Bucket = "critical"
	BucketHigh     Bucket = "high"
	BucketMedium   Bucket = "medium"
	BucketLow      Bucket = "low"
	BucketMinimal  Bucket = "minimal"
)

// Failure describes one pair that produced no observation in a cycle.
type Failure struct {
	Instrument Instrument `json:"instrument"`
	Window     WindowSize `json:"window"`
	Empty      bool       `json:"empty"`
	Reason     string     `json:"reason"`
}

// Snapshot is the rendered result of one refresh cycle.
type Snapshot struct {
	ID        string       `json:"id"`
	TakenAt   time.Time    `json:"taken_at"`
	Windows   []WindowSize `json:"windows"`
	Rows      []PivotRow   `json:"rows"`
	Requested int          `json:"requested"`
	Failures  []Failure    `json:"failures"`
}

package display

import "PercentileBoard/internal/model"

// Thresholds maps a percentile to its bucket. A value belongs to the first
// entry it is strictly above; a value sitting exactly on a threshold falls to
// the lower bucket.
var Thresholds = []struct {
	Above  float64
	Bucket model.Bucket
}{
	{80, model.BucketCritical},
	{60, model.BucketHigh},
	{40, model.BucketMedium},
	{20, model.BucketLow},
}

// DefaultBucket is used for values at or below the last threshold.
const DefaultBucket = model.BucketMinimal

// Classify maps a percentile value to its display bucket. It is total over
// finite values. Absent cells must not be classified; NaN has no meaningful
// bucket and ends up in DefaultBucket.
func Classify(value float64) model.Bucket {
	for _, t := range Thresholds {
		if value > t.Above {
			return t.Bucket
		}
	}
	return DefaultBucket
}

var bucketColors = map[model.Bucket]string{
	model.BucketCritical: "red",
	model.BucketHigh:     "orange",
	model.BucketMedium:   "#B27800",
	model.BucketLow:      "green",
	model.BucketMinimal:  "limegreen",
}

// BucketColor is the text color used for a bucket in rendered tables.
func BucketColor(b model.Bucket) string {
	return bucketColors[b]
}

var bucketMarkers = map[model.Bucket]string{
	model.BucketCritical: "🔴",
	model.BucketHigh:     "🟠",
	model.BucketMedium:   "🟡",
	model.BucketLow:      "🟢",
	model.BucketMinimal:  "🟩",
}

// BucketMarker is the emoji prefix used for a bucket in chat messages.
func BucketMarker(b model.Bucket) string {
	return bucketMarkers[b]
}

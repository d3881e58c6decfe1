package display

import (
	"testing"

	"PercentileBoard/internal/model"
)

func TestClassify_AllBoundaries(t *testing.T) {
	tests := []struct {
		value  float64
		bucket model.Bucket
	}{
		{100, model.BucketCritical},
		{80.0001, model.BucketCritical},
		{80, model.BucketHigh},
		{70, model.BucketHigh},
		{60.5, model.BucketHigh},
		{60, model.BucketMedium},
		{40.0001, model.BucketMedium},
		{40, model.BucketLow},
		{21, model.BucketLow},
		{20, model.BucketMinimal},
		{0, model.BucketMinimal},
		{-5, model.BucketMinimal},
		{150, model.BucketCritical},
	}
	for _, tt := range tests {
		if got := Classify(tt.value); got != tt.bucket {
			t.Errorf("value %v: expected %q, got %q", tt.value, tt.bucket, got)
		}
	}
}

func TestBucketColorAndMarker_CoverEveryBucket(t *testing.T) {
	buckets := []model.Bucket{DefaultBucket}
	for _, th := range Thresholds {
		buckets = append(buckets, th.Bucket)
	}
	for _, b := range buckets {
		if BucketColor(b) == "" {
			t.Errorf("bucket %q has no color", b)
		}
		if BucketMarker(b) == "" {
			t.Errorf("bucket %q has no marker", b)
		}
	}
	if got := BucketColor(model.BucketCritical); got != "red" {
		t.Errorf("critical color: expected red, got %q", got)
	}
}

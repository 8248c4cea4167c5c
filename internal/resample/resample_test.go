package resample

import (
	"testing"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

func ts(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResampleAveragesWithinBuckets(t *testing.T) {
	series := models.MetricSeries{
		MetricName: "CPU Usage",
		Points: []models.RawPoint{
			{Timestamp: ts("2025-03-01T10:01:00Z"), Value: 10},
			{Timestamp: ts("2025-03-01T10:04:00Z"), Value: 20},
			{Timestamp: ts("2025-03-01T10:07:00Z"), Value: 30},
		},
	}

	out := Resample(series, OutlierCadence)
	if out.Len() != 2 {
		t.Fatalf("expected 2 buckets, got %d", out.Len())
	}
	if got := out.Buckets[0].Mean; got != 15 {
		t.Errorf("first bucket mean = %v, want 15", got)
	}
	if got := out.Buckets[1].Mean; got != 30 {
		t.Errorf("second bucket mean = %v, want 30", got)
	}
	if !out.Buckets[0].Start.Equal(ts("2025-03-01T10:00:00Z")) {
		t.Errorf("first bucket start = %v", out.Buckets[0].Start)
	}
}

func TestResampleSortsUnorderedInput(t *testing.T) {
	series := models.MetricSeries{
		Points: []models.RawPoint{
			{Timestamp: ts("2025-03-01T12:00:00Z"), Value: 3},
			{Timestamp: ts("2025-03-01T10:00:00Z"), Value: 1},
			{Timestamp: ts("2025-03-01T11:00:00Z"), Value: 2},
		},
	}

	out := Resample(series, ForecastCadence)
	if out.Len() != 3 {
		t.Fatalf("expected 3 buckets, got %d", out.Len())
	}
	for i := 1; i < out.Len(); i++ {
		if !out.Buckets[i-1].Start.Before(out.Buckets[i].Start) {
			t.Fatalf("buckets not sorted at %d", i)
		}
	}
	if out.Buckets[0].Mean != 1 || out.Buckets[2].Mean != 3 {
		t.Errorf("bucket means out of order: %v, %v", out.Buckets[0].Mean, out.Buckets[2].Mean)
	}
}

func TestResampleSkipsEmptyBuckets(t *testing.T) {
	series := models.MetricSeries{
		Points: []models.RawPoint{
			{Timestamp: ts("2025-03-01T10:00:00Z"), Value: 1},
			{Timestamp: ts("2025-03-01T14:00:00Z"), Value: 2},
		},
	}

	out := Resample(series, ForecastCadence)
	if out.Len() != 2 {
		t.Fatalf("expected gap buckets to be skipped, got %d buckets", out.Len())
	}
}

func TestResampleEdgeCases(t *testing.T) {
	if got := Resample(models.MetricSeries{}, OutlierCadence); got.Len() != 0 {
		t.Errorf("empty series should yield no buckets, got %d", got.Len())
	}
	series := models.MetricSeries{Points: []models.RawPoint{{Timestamp: ts("2025-03-01T10:00:00Z"), Value: 1}}}
	if got := Resample(series, 0); got.Len() != 0 {
		t.Errorf("zero cadence should yield no buckets, got %d", got.Len())
	}
}

func TestSufficient(t *testing.T) {
	one := models.ResampledSeries{Buckets: []models.Bucket{{}}}
	two := models.ResampledSeries{Buckets: []models.Bucket{{}, {}}}
	if Sufficient(one) {
		t.Error("one bucket should not be sufficient")
	}
	if !Sufficient(two) {
		t.Error("two buckets should be sufficient")
	}
}

package detect

import (
	"testing"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

func buildSeries(values []float64) models.ResampledSeries {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]models.Bucket, len(values))
	for i, v := range values {
		buckets[i] = models.Bucket{Start: start.Add(time.Duration(i) * 5 * time.Minute), Mean: v}
	}
	return models.ResampledSeries{Cadence: 5 * time.Minute, Buckets: buckets}
}

func TestScoreTooShort(t *testing.T) {
	if _, err := Score(buildSeries([]float64{1}), 0.005); err == nil {
		t.Fatal("expected error for single-bucket series")
	}
}

func TestScoreFlagsInjectedSpike(t *testing.T) {
	values := make([]float64, 500)
	for i := range values {
		values[i] = 30 + float64(i%5)
	}
	spikeAt := 450
	values[spikeAt] = 300

	scored, err := Score(buildSeries(values), 0.005)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if len(scored) != len(values) {
		t.Fatalf("scored %d points, want %d", len(scored), len(values))
	}
	if !scored[spikeAt].IsOutlier {
		t.Errorf("spike at %d not flagged, score %v", spikeAt, scored[spikeAt].AnomalyScore)
	}
	if scored[spikeAt].AnomalyScore >= 0 {
		t.Errorf("spike score = %v, want negative", scored[spikeAt].AnomalyScore)
	}

	flagged := 0
	for _, p := range scored {
		if p.IsOutlier {
			flagged++
		}
	}
	if flagged > len(values)/10 {
		t.Errorf("%d of %d points flagged, contamination boundary too loose", flagged, len(values))
	}
}

func TestScoreDeterministic(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i % 12)
	}
	series := buildSeries(values)

	a, err := Score(series, 0.01)
	if err != nil {
		t.Fatalf("score a: %v", err)
	}
	b, err := Score(series, 0.01)
	if err != nil {
		t.Fatalf("score b: %v", err)
	}
	for i := range a {
		if a[i].AnomalyScore != b[i].AnomalyScore || a[i].IsOutlier != b[i].IsOutlier {
			t.Fatalf("run differs at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  models.Severity
	}{
		{0.2, models.SeverityNormal},
		{0, models.SeverityNormal},
		{-0.01, models.SeverityMild},
		{-0.05, models.SeverityModerate},
		{-0.10, models.SeverityModerate},
		{-0.15, models.SeverityHigh},
		{-0.29, models.SeverityHigh},
		{-0.30, models.SeverityCritical},
		{-0.9, models.SeverityCritical},
	}
	for _, tc := range cases {
		if got := ClassifySeverity(tc.score); got != tc.want {
			t.Errorf("ClassifySeverity(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
}

package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
)

type fakeNarrator struct {
	calls []models.InsightKind
	err   error
}

func (f *fakeNarrator) Summarize(_ context.Context, kind models.InsightKind, _ map[string]any) (*models.Narrative, error) {
	f.calls = append(f.calls, kind)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Narrative{
		Summary:    "summary for " + string(kind),
		Severity:   "moderate",
		Action:     "act",
		Confidence: 0.9,
	}, nil
}

type fakeStore struct {
	saved []store.PredictionRecord
	err   error
}

func (f *fakeStore) Save(_ context.Context, rec store.PredictionRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.saved = append(f.saved, rec)
	return int64(len(f.saved)), nil
}

func testSeries(hours int) models.MetricSeries {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	series := models.MetricSeries{MetricName: "CPU Usage"}
	for i := 0; i < hours*12; i++ {
		series.Points = append(series.Points, models.RawPoint{
			Timestamp: start.Add(time.Duration(i) * 5 * time.Minute),
			Value:     40 + float64(i%6),
		})
	}
	return series
}

func TestAnalyzeFullRun(t *testing.T) {
	narrator := &fakeNarrator{}
	records := &fakeStore{}
	p := NewPipeline(nil, narrator, records, nil)

	result, err := p.Analyze(context.Background(), models.AnalysisRequest{Host: "web-01"}, testSeries(72))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if result.RunID == "" {
		t.Error("run id not assigned")
	}
	if result.MetricName != "CPU Usage" {
		t.Errorf("metric name = %q", result.MetricName)
	}
	if result.Trend.Threshold != DefaultThreshold {
		t.Errorf("threshold = %v, want default %v", result.Trend.Threshold, DefaultThreshold)
	}
	if result.Degraded {
		t.Error("run should not be degraded")
	}
	if result.TrendNarrative == nil || result.AnomalyNarrative == nil {
		t.Fatal("both narratives should be set")
	}
	if len(narrator.calls) != 2 {
		t.Fatalf("narrator called %d times, want 2", len(narrator.calls))
	}
	if len(records.saved) != 2 {
		t.Fatalf("saved %d records, want 2", len(records.saved))
	}
	for _, rec := range records.saved {
		if rec.RunID != result.RunID || rec.Host != "web-01" {
			t.Errorf("record metadata mismatch: %+v", rec)
		}
		if rec.Payload == "" {
			t.Error("record payload empty")
		}
	}
}

func TestAnalyzeNarrativeFailureDegrades(t *testing.T) {
	narrator := &fakeNarrator{err: errors.New("model offline")}
	records := &fakeStore{}
	p := NewPipeline(nil, narrator, records, nil)

	result, err := p.Analyze(context.Background(), models.AnalysisRequest{}, testSeries(72))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if !result.Degraded {
		t.Error("narrative failure must mark the run degraded")
	}
	if result.TrendNarrative != nil || result.AnomalyNarrative != nil {
		t.Error("failed narratives should be nil, never fabricated")
	}
	if len(records.saved) != 0 {
		t.Errorf("degraded run persisted %d records, want 0", len(records.saved))
	}
	// Analytic payloads stay intact.
	if result.Anomaly.Method == "" {
		t.Error("anomaly insight missing")
	}
}

func TestAnalyzeWithoutCollaborators(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil)

	result, err := p.Analyze(context.Background(), models.AnalysisRequest{}, testSeries(48))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Degraded {
		t.Error("absent narrator is not a degradation")
	}
	if result.TrendNarrative != nil {
		t.Error("no narrator should mean no narrative")
	}
}

func TestAnalyzeInsufficientData(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil)

	cases := []models.MetricSeries{
		{},
		{Points: []models.RawPoint{{Timestamp: time.Now(), Value: 1}}},
	}
	for i, series := range cases {
		if _, err := p.Analyze(context.Background(), models.AnalysisRequest{}, series); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("case %d: error = %v, want ErrInsufficientData", i, err)
		}
	}
}

func TestAnalyzeRequestOverrides(t *testing.T) {
	p := NewPipeline(nil, nil, nil, nil)

	result, err := p.Analyze(context.Background(), models.AnalysisRequest{
		MetricName: "Disk Used",
		Threshold:  90,
	}, testSeries(48))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.MetricName != "Disk Used" {
		t.Errorf("metric name = %q, want request override", result.MetricName)
	}
	if result.Trend.Threshold != 90 {
		t.Errorf("threshold = %v, want 90", result.Trend.Threshold)
	}
}

func TestAnalyzeStoreFailureIsNonFatal(t *testing.T) {
	narrator := &fakeNarrator{}
	records := &fakeStore{err: errors.New("disk full")}
	p := NewPipeline(nil, narrator, records, nil)

	if _, err := p.Analyze(context.Background(), models.AnalysisRequest{}, testSeries(48)); err != nil {
		t.Fatalf("store failure should not fail the analysis: %v", err)
	}
}

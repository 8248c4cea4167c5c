package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "predictions.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(host string, kind models.InsightKind, created time.Time) PredictionRecord {
	return PredictionRecord{
		CreatedAt:     created,
		RunID:         "run-" + host,
		Host:          host,
		MetricName:    "CPU Usage",
		Kind:          kind,
		Severity:      "moderate",
		Summary:       "CPU trending upward",
		Action:        "plan capacity",
		Justification: "steady growth",
		Confidence:    0.8,
		Payload:       `{"threshold_value":63}`,
	}
}

func TestSaveAndListRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	breach := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)
	rec := sampleRecord("web-01", models.KindTrend, time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	rec.BreachTime = &breach

	id, err := s.Save(ctx, rec)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want positive", id)
	}

	records, err := s.ListRecent(ctx, models.ListPredictionsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	got := records[0]
	if got.Host != "web-01" || got.Kind != models.KindTrend || got.Severity != "moderate" {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.BreachTime == nil || !got.BreachTime.Equal(breach) {
		t.Errorf("breach time = %v, want %v", got.BreachTime, breach)
	}
	if got.Payload != rec.Payload {
		t.Errorf("payload = %q", got.Payload)
	}
}

func TestListRecentNullBreach(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Save(ctx, sampleRecord("web-01", models.KindAnomaly, time.Now().UTC())); err != nil {
		t.Fatalf("save: %v", err)
	}

	records, err := s.ListRecent(ctx, models.ListPredictionsRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if records[0].BreachTime != nil {
		t.Errorf("breach time = %v, want nil", records[0].BreachTime)
	}
}

func TestListRecentHostFilterAndOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for i, host := range []string{"web-01", "db-01", "web-01"} {
		rec := sampleRecord(host, models.KindTrend, base.Add(time.Duration(i)*time.Hour))
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	records, err := s.ListRecent(ctx, models.ListPredictionsRequest{Host: "web-01"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, rec := range records {
		if rec.Host != "web-01" {
			t.Errorf("host filter leaked: %+v", rec)
		}
	}
	if !records[0].CreatedAt.After(records[1].CreatedAt) {
		t.Errorf("records not newest-first: %v then %v", records[0].CreatedAt, records[1].CreatedAt)
	}
}

func TestListRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := sampleRecord("web-01", models.KindTrend, base.Add(time.Duration(i)*time.Minute))
		if _, err := s.Save(ctx, rec); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	records, err := s.ListRecent(ctx, models.ListPredictionsRequest{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

package models

import "time"

// AnalysisRequest describes one pipeline invocation for a single host/metric
// series.
type AnalysisRequest struct {
	Host          string
	ItemID        string
	MetricName    string
	Threshold     float64
	DaysBack      int
	Contamination float64
}

// AnalysisResult bundles both insight records, their narratives, and run
// metadata.
type AnalysisResult struct {
	RunID            string
	Host             string
	MetricName       string
	Trend            TrendInsight
	Anomaly          AnomalyInsight
	TrendNarrative   *Narrative
	AnomalyNarrative *Narrative
	// Degraded is set when narrative generation failed but the analytic
	// payloads themselves are sound.
	Degraded  bool
	CreatedAt time.Time
}

// ListPredictionsRequest captures filters for stored prediction records.
type ListPredictionsRequest struct {
	Host  string
	Limit int
}

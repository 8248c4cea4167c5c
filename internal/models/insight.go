package models

import "time"

// Severity buckets a continuous anomaly score into a discrete label.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityMild     Severity = "mild"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// TrendInsight is the canonical trend analysis record. Breach-dependent
// fields are nil pointers when no crossing exists within the horizon; they
// are serialised as explicit nulls, never omitted.
type TrendInsight struct {
	GeneratedAt         time.Time
	MetricName          string
	Threshold           float64
	BreachTime          *time.Time
	DaysUntilBreach     *float64
	ValueAtBreach       *float64
	PeakNext30d         float64
	MeanNext24h         float64
	EndOfHorizon        float64
	GrowthRatePctPerDay float64
}

// AnomalySelection is the result of the prioritised outlier selector.
// Fallback is true when no outlier matched and the most recent point overall
// was substituted, so each branch of the fallback chain stays observable.
type AnomalySelection struct {
	Timestamp time.Time
	Value     float64
	Score     float64
	Severity  Severity
	Fallback  bool
}

// AnomalyInsight is the canonical anomaly analysis record.
type AnomalyInsight struct {
	GeneratedAt  time.Time
	MetricName   string
	Method       string
	CountLast24h int
	CountLast7d  int
	MostRecent   AnomalySelection
	WorstLast24h AnomalySelection
}

package models

import "time"

// RawPoint is a single timestamped sample as delivered by a data source.
type RawPoint struct {
	Timestamp time.Time
	Value     float64
}

// MetricSeries is an ordered series of raw samples for one host/metric pair.
// The metric name is only used when composing payload keys, never by models.
type MetricSeries struct {
	MetricName string
	Points     []RawPoint
}

// Len returns the number of raw samples.
func (s MetricSeries) Len() int { return len(s.Points) }

// LastTimestamp returns the timestamp of the final sample, or the zero time
// for an empty series.
func (s MetricSeries) LastTimestamp() time.Time {
	if len(s.Points) == 0 {
		return time.Time{}
	}
	return s.Points[len(s.Points)-1].Timestamp
}

// Bucket is one fixed-width interval of a resampled series.
type Bucket struct {
	Start time.Time
	Mean  float64
}

// ResampledSeries is a MetricSeries reduced to a fixed cadence by interval
// averaging. Bucket starts increase monotonically; empty intervals are not
// materialised, so consumers must tolerate gaps.
type ResampledSeries struct {
	Cadence time.Duration
	Buckets []Bucket
}

// Len returns the number of non-empty buckets.
func (r ResampledSeries) Len() int { return len(r.Buckets) }

// Values returns the bucket means in order.
func (r ResampledSeries) Values() []float64 {
	vals := make([]float64, len(r.Buckets))
	for i, b := range r.Buckets {
		vals[i] = b.Mean
	}
	return vals
}

// ScoredPoint is a resampled bucket with its anomaly score attached.
// Scores follow the decision-function convention: negative means anomalous,
// zero or greater means normal.
type ScoredPoint struct {
	Timestamp    time.Time
	Value        float64
	AnomalyScore float64
	IsOutlier    bool
}

// ForecastPoint is one modelled instant, historical or projected.
type ForecastPoint struct {
	Timestamp time.Time
	Yhat      float64
	YhatLower float64
	YhatUpper float64
	Trend     float64
}

// BreachEvent marks the earliest projected threshold crossing. FirstCrossing
// is nil when no future forecast point reaches the threshold.
type BreachEvent struct {
	FirstCrossing *time.Time
	Threshold     float64
}

// Breached reports whether a crossing was found within the horizon.
func (b BreachEvent) Breached() bool { return b.FirstCrossing != nil }

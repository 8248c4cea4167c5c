// Package resample reduces irregular metric series to a fixed cadence by
// interval averaging.
package resample

import (
	"sort"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

// Common cadences used by the analysis pipeline.
const (
	OutlierCadence  = 5 * time.Minute
	ForecastCadence = time.Hour
)

// MinModelPoints is the smallest resampled series a model step accepts.
// Shorter series must be rejected by the caller before fitting anything.
const MinModelPoints = 2

// Resample groups points into fixed-width buckets aligned to the cadence and
// averages the values within each bucket. Buckets with no samples are
// skipped, so the output may contain gaps. Duplicate timestamps land in the
// same bucket and are averaged like any other samples.
func Resample(series models.MetricSeries, cadence time.Duration) models.ResampledSeries {
	out := models.ResampledSeries{Cadence: cadence}
	if cadence <= 0 || len(series.Points) == 0 {
		return out
	}

	sums := make(map[int64]float64)
	counts := make(map[int64]int)
	for _, p := range series.Points {
		key := p.Timestamp.Truncate(cadence).Unix()
		sums[key] += p.Value
		counts[key]++
	}

	keys := make([]int64, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out.Buckets = make([]models.Bucket, 0, len(keys))
	for _, k := range keys {
		out.Buckets = append(out.Buckets, models.Bucket{
			Start: time.Unix(k, 0).UTC(),
			Mean:  sums[k] / float64(counts[k]),
		})
	}
	return out
}

// Sufficient reports whether the resampled series has enough buckets for
// model fitting.
func Sufficient(r models.ResampledSeries) bool {
	return r.Len() >= MinModelPoints
}

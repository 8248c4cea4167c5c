// Package insights turns raw model output into the canonical trend and
// anomaly records handed to the narrative collaborator.
package insights

import (
	"math"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/detect"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/forecast"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/utils"
)

// AnomalyMethod names the scoring algorithm in anomaly payloads.
const AnomalyMethod = "isolation_forest"

// ComposeTrend derives the trend record from a forecast and its breach
// event. Breach-dependent fields stay nil when no crossing exists.
func ComposeTrend(points []models.ForecastPoint, breach models.BreachEvent, cutoff, now time.Time, metricName string) models.TrendInsight {
	insight := models.TrendInsight{
		GeneratedAt:         now,
		MetricName:          metricName,
		Threshold:           breach.Threshold,
		GrowthRatePctPerDay: forecast.GrowthRatePctPerDay(points),
	}

	if breach.Breached() {
		ts := *breach.FirstCrossing
		insight.BreachTime = &ts
		days := roundTo(utils.DaysBetween(now, ts), 1)
		insight.DaysUntilBreach = &days
		for _, p := range points {
			if p.Timestamp.Equal(ts) {
				v := roundTo(p.Yhat, 3)
				insight.ValueAtBreach = &v
				break
			}
		}
	}

	peak := math.Inf(-1)
	next24Sum, next24Count := 0.0, 0
	for _, p := range points {
		if !p.Timestamp.After(cutoff) {
			continue
		}
		if p.Yhat > peak {
			peak = p.Yhat
		}
		if next24Count < 24 {
			next24Sum += p.Yhat
			next24Count++
		}
	}
	if !math.IsInf(peak, -1) {
		insight.PeakNext30d = roundTo(peak, 3)
	}
	if next24Count > 0 {
		insight.MeanNext24h = roundTo(next24Sum/float64(next24Count), 1)
	}
	if len(points) > 0 {
		insight.EndOfHorizon = roundTo(points[len(points)-1].Yhat, 1)
	}
	return insight
}

// ComposeAnomaly derives the anomaly record from scored buckets. Both
// selections are always populated through the fallback chain, so the payload
// never has missing keys even when nothing was flagged.
func ComposeAnomaly(scored []models.ScoredPoint, now time.Time, metricName string) models.AnomalyInsight {
	last24Start := now.Add(-24 * time.Hour)
	last7dStart := now.Add(-7 * 24 * time.Hour)

	count24, count7d := 0, 0
	for _, p := range scored {
		if !p.IsOutlier || p.Timestamp.After(now) {
			continue
		}
		if !p.Timestamp.Before(last7dStart) {
			count7d++
		}
		if !p.Timestamp.Before(last24Start) {
			count24++
		}
	}

	recent := selectMostRecent(scored)
	worst := selectWorstInWindow(scored, last24Start, now, recent)

	return models.AnomalyInsight{
		GeneratedAt:  now,
		MetricName:   metricName,
		Method:       AnomalyMethod,
		CountLast24h: count24,
		CountLast7d:  count7d,
		MostRecent:   recent,
		WorstLast24h: worst,
	}
}

// selectMostRecent picks the newest outlier, falling back to the newest
// point overall when nothing was flagged.
func selectMostRecent(scored []models.ScoredPoint) models.AnomalySelection {
	for i := len(scored) - 1; i >= 0; i-- {
		if scored[i].IsOutlier {
			return toSelection(scored[i], false)
		}
	}
	if len(scored) == 0 {
		return models.AnomalySelection{Severity: models.SeverityNormal, Fallback: true}
	}
	return toSelection(scored[len(scored)-1], true)
}

// selectWorstInWindow picks the most negative outlier score inside the
// window, reusing the most-recent selection when the window is clean.
func selectWorstInWindow(scored []models.ScoredPoint, from, to time.Time, fallback models.AnomalySelection) models.AnomalySelection {
	var worst *models.ScoredPoint
	for i := range scored {
		p := scored[i]
		if !p.IsOutlier || p.Timestamp.Before(from) || p.Timestamp.After(to) {
			continue
		}
		if worst == nil || p.AnomalyScore < worst.AnomalyScore {
			worst = &scored[i]
		}
	}
	if worst == nil {
		return fallback
	}
	return toSelection(*worst, false)
}

func toSelection(p models.ScoredPoint, fallback bool) models.AnomalySelection {
	return models.AnomalySelection{
		Timestamp: p.Timestamp,
		Value:     roundTo(p.Value, 3),
		Score:     roundTo(p.AnomalyScore, 4),
		Severity:  detect.ClassifySeverity(p.AnomalyScore),
		Fallback:  fallback,
	}
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

package insights

import (
	"strings"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

// MetricKey normalises a display name for use in payload keys, e.g.
// "CPU Usage" -> "cpu_usage".
func MetricKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// TrendPayload flattens a trend record into the metric-templated mapping
// sent to the narrative collaborator. This is the only place key templating
// happens; the record itself keeps fixed field names.
func TrendPayload(t models.TrendInsight) map[string]any {
	key := MetricKey(t.MetricName)
	payload := make(map[string]any, 10)
	payload["generated_at"] = t.GeneratedAt.Format(time.RFC3339)
	payload["metric_name"] = t.MetricName
	payload["threshold_value"] = t.Threshold
	payload["peak_"+key+"_next_30d"] = t.PeakNext30d
	payload["median_"+key+"_next_24h"] = t.MeanNext24h
	payload["median_"+key+"_end_of_horizon"] = t.EndOfHorizon
	payload["growth_rate_pct_per_day"] = t.GrowthRatePctPerDay

	// Breach fields stay present as explicit nulls when no crossing exists.
	payload["first_median_breach_expected"] = nil
	payload["days_until_breach"] = nil
	payload["predicted_"+key+"_at_breach"] = nil
	if t.BreachTime != nil {
		payload["first_median_breach_expected"] = t.BreachTime.Format(time.RFC3339)
	}
	if t.DaysUntilBreach != nil {
		payload["days_until_breach"] = *t.DaysUntilBreach
	}
	if t.ValueAtBreach != nil {
		payload["predicted_"+key+"_at_breach"] = *t.ValueAtBreach
	}
	return payload
}

// AnomalyPayload flattens an anomaly record into the metric-templated
// mapping sent to the narrative collaborator.
func AnomalyPayload(a models.AnomalyInsight) map[string]any {
	key := MetricKey(a.MetricName)
	payload := make(map[string]any, 15)
	payload["generated_at"] = a.GeneratedAt.Format(time.RFC3339)
	payload["metric_name"] = a.MetricName
	payload["anomaly_method"] = a.Method
	payload["score_sign"] = "negative = outlier, positive = normal"
	payload["score_hint"] = "~0 borderline, <=-0.30 strong anomaly"

	payload["total_anomalies_last_24h"] = a.CountLast24h
	payload["total_anomalies_last_7d"] = a.CountLast7d

	payload["most_recent_anomaly_time"] = a.MostRecent.Timestamp.Format(time.RFC3339)
	payload["most_recent_"+key+"_value"] = a.MostRecent.Value
	payload["most_recent_anomaly_score"] = a.MostRecent.Score
	payload["most_recent_severity"] = string(a.MostRecent.Severity)

	payload["worst_anomaly_time_last_24h"] = a.WorstLast24h.Timestamp.Format(time.RFC3339)
	payload["worst_"+key+"_value_last_24h"] = a.WorstLast24h.Value
	payload["worst_anomaly_score_last_24h"] = a.WorstLast24h.Score
	payload["worst_severity_last_24h"] = string(a.WorstLast24h.Severity)
	return payload
}

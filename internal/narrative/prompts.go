package narrative

import (
	"encoding/json"
	"fmt"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

const trendPromptTemplate = `You are an SRE capacity-planning assistant.
ALWAYS reply with valid JSON only (no markdown, no code fences).

# Data schema (read carefully)
{
  "generated_at": ISO-8601                     // when this snapshot was produced
, "threshold_value": float                     // critical metric level
, "first_median_breach_expected": str|null     // ISO-8601 timestamp or null
, "days_until_breach": float|null              // days between generated_at and breach
, "predicted_<metric>_at_breach": float|null   // forecast value at the breach hour
, "peak_<metric>_next_30d": float              // highest forecast value in the horizon
, "median_<metric>_next_24h": float            // 24-h forward median
, "median_<metric>_end_of_horizon": float      // forecast value at the last point
, "growth_rate_pct_per_day": float             // positive = increasing load
}

# Data
%s

# Produce EXACTLY this JSON object:
{
  "summary": "<short sentence for on-call chat>",
  "severity": "none" | "low" | "moderate" | "high" | "critical",
  "breach_time": "<copy first_median_breach_expected or 'n/a'>",
  "cpu_at_breach": "<copy predicted value at breach or 'n/a'>",
  "lead_time_days": "<copy days_until_breach or 'n/a'>",
  "action": "<one-sentence recommended next step>",
  "justification": "<one sentence citing the key numbers>",
  "confidence": 0-100
}

Only JSON, no additional text.`

const anomalyPromptTemplate = `You are an SRE incident-insights assistant.
Always reply in valid JSON only (no markdown, no code fences).

# Data schema
{
  "total_anomalies_last_24h": int,
  "total_anomalies_last_7d": int,
  "most_recent_anomaly_time": str|null,
  "most_recent_anomaly_score": float|null,
  "worst_anomaly_score_last_24h": float|null
}

# Data
%s

# What to output
Return exactly this JSON structure:
{
  "summary":        "<concise sentence (<=120 chars)>",
  "severity":       "none" | "low" | "moderate" | "high" | "critical",
  "latest_time":    "<copy of most_recent_anomaly_time or n/a>",
  "action":         "<one-sentence recommended next step>",
  "justification":  "<why you chose this severity>",
  "confidence":     0-100
}

Only JSON, nothing else.`

// BuildPrompt embeds the payload JSON into the prompt template for the
// given insight kind.
func BuildPrompt(kind models.InsightKind, payload map[string]any) (string, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	switch kind {
	case models.KindTrend:
		return fmt.Sprintf(trendPromptTemplate, data), nil
	case models.KindAnomaly:
		return fmt.Sprintf(anomalyPromptTemplate, data), nil
	default:
		return "", fmt.Errorf("unknown insight kind %q", kind)
	}
}

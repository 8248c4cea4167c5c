package models

import (
	"fmt"
	"strconv"
	"strings"
)

// InsightKind distinguishes the two analysis products.
type InsightKind string

const (
	KindTrend   InsightKind = "trend"
	KindAnomaly InsightKind = "anomaly"
)

// Confidence is a 0-100 subjective certainty figure. Models occasionally
// quote the number, so it unmarshals from either form.
type Confidence float64

// UnmarshalJSON accepts both 85 and "85".
func (c *Confidence) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("confidence %q is not numeric: %w", s, err)
	}
	*c = Confidence(v)
	return nil
}

// Narrative is the structured summary returned by the language model for one
// insight payload. Copied fields echo payload values so the record stands
// alone when persisted.
type Narrative struct {
	Summary       string     `json:"summary"`
	Severity      string     `json:"severity"`
	BreachTime    string     `json:"breach_time,omitempty"`
	ValueAtBreach string     `json:"cpu_at_breach,omitempty"`
	LeadTimeDays  string     `json:"lead_time_days,omitempty"`
	LatestTime    string     `json:"latest_time,omitempty"`
	Action        string     `json:"action"`
	Justification string     `json:"justification"`
	Confidence    Confidence `json:"confidence"`
}

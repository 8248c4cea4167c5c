package models

import "time"

// AlertPattern aggregates stored prediction records for one host/metric pair
// so recurring problem areas stand out in history queries.
type AlertPattern struct {
	Host          string
	MetricName    string
	Kind          InsightKind
	Occurrences   int
	SevereShare   float64
	TopSeverity   string
	AvgConfidence float64
	LastSeen      time.Time
}

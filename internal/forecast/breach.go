package forecast

import (
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

// DetectBreach scans forecast points strictly after the historical cutoff
// and returns the earliest whose point estimate reaches the threshold. The
// crossing timestamp is never at or before the cutoff; when no future point
// qualifies the event carries a nil crossing.
func DetectBreach(points []models.ForecastPoint, cutoff time.Time, threshold float64) models.BreachEvent {
	event := models.BreachEvent{Threshold: threshold}
	for _, p := range points {
		if !p.Timestamp.After(cutoff) {
			continue
		}
		if p.Yhat >= threshold {
			ts := p.Timestamp
			event.FirstCrossing = &ts
			break
		}
	}
	return event
}

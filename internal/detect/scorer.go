package detect

import (
	"fmt"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

// trainFraction is the positional share of the series used for fitting.
// The remainder is held out from training but still scored, together with
// the training prefix itself.
const trainFraction = 0.8

// SeverityThresholds maps decision scores to severity labels. Boundary
// values resolve to the more severe side, e.g. a score of exactly -0.05 is
// moderate, not mild.
type SeverityThresholds struct {
	Mild     float64
	Moderate float64
	High     float64
}

// DefaultSeverityThresholds returns the fixed production boundaries.
func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{Mild: -0.05, Moderate: -0.15, High: -0.30}
}

// Classify buckets a decision score. Pure and total.
func (t SeverityThresholds) Classify(score float64) models.Severity {
	switch {
	case score >= 0:
		return models.SeverityNormal
	case score > t.Mild:
		return models.SeverityMild
	case score > t.Moderate:
		return models.SeverityModerate
	case score > t.High:
		return models.SeverityHigh
	default:
		return models.SeverityCritical
	}
}

// ClassifySeverity buckets a score with the default boundaries.
func ClassifySeverity(score float64) models.Severity {
	return DefaultSeverityThresholds().Classify(score)
}

// Score fits an isolation forest on the first 80% of buckets by position and
// scores every bucket in the series with the fitted model. Training points
// can therefore be flagged too; the contract is density scoring, not
// held-out evaluation. Scoring is deterministic for identical input.
func Score(series models.ResampledSeries, contamination float64) ([]models.ScoredPoint, error) {
	if series.Len() < 2 {
		return nil, fmt.Errorf("detect: series of %d buckets is too short to fit", series.Len())
	}

	values := series.Values()
	trainEnd := int(float64(len(values)) * trainFraction)
	train := values[:trainEnd]
	if len(train) == 0 {
		train = values
	}

	cfg := DefaultForestConfig()
	cfg.Contamination = contamination
	forest, err := FitForest(train, cfg)
	if err != nil {
		return nil, fmt.Errorf("detect: fit forest: %w", err)
	}

	scored := make([]models.ScoredPoint, 0, len(values))
	for i, b := range series.Buckets {
		decision := forest.Decision(values[i])
		scored = append(scored, models.ScoredPoint{
			Timestamp:    b.Start,
			Value:        b.Mean,
			AnomalyScore: decision,
			IsOutlier:    decision < 0,
		})
	}
	return scored, nil
}

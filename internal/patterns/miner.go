package patterns

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
)

// severityRank orders labels so the worst one observed for a pattern can be
// surfaced as its headline.
var severityRank = map[string]int{
	string(models.SeverityNormal):   0,
	string(models.SeverityMild):     1,
	string(models.SeverityModerate): 2,
	string(models.SeverityHigh):     3,
	string(models.SeverityCritical): 4,
}

// Miner aggregates stored prediction records into recurring alert patterns.
type Miner struct {
	records Lister
	logger  *slog.Logger
}

// NewMiner constructs a Miner; records may be nil for dry runs over
// pre-fetched slices.
func NewMiner(logger *slog.Logger, records Lister) *Miner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Miner{records: records, logger: logger}
}

// MineRecent fetches up to limit recent prediction records and mines them.
func (m *Miner) MineRecent(ctx context.Context, host string, limit int) ([]models.AlertPattern, error) {
	if m.records == nil {
		return nil, nil
	}
	recs, err := m.records.ListRecent(ctx, models.ListPredictionsRequest{Host: host, Limit: limit})
	if err != nil {
		return nil, err
	}
	return m.Mine(recs), nil
}

// Mine groups records by host, metric and insight kind and computes
// per-group frequency and severity statistics.
func (m *Miner) Mine(records []store.PredictionRecord) []models.AlertPattern {
	if len(records) == 0 {
		return nil
	}

	groups := make(map[groupKey]*aggregate)
	for _, rec := range records {
		key := groupKey{host: rec.Host, metric: rec.MetricName, kind: rec.Kind}
		agg, ok := groups[key]
		if !ok {
			agg = &aggregate{}
			groups[key] = agg
		}
		agg.count++
		agg.confidenceSum += rec.Confidence
		if severityRank[rec.Severity] >= severityRank[string(models.SeverityModerate)] {
			agg.severe++
		}
		if agg.topSeverity == "" || severityRank[rec.Severity] > severityRank[agg.topSeverity] {
			agg.topSeverity = rec.Severity
		}
		if rec.CreatedAt.After(agg.lastSeen) {
			agg.lastSeen = rec.CreatedAt
		}
	}

	patterns := make([]models.AlertPattern, 0, len(groups))
	for key, agg := range groups {
		patterns = append(patterns, models.AlertPattern{
			Host:          key.host,
			MetricName:    key.metric,
			Kind:          key.kind,
			Occurrences:   agg.count,
			SevereShare:   float64(agg.severe) / float64(agg.count),
			TopSeverity:   agg.topSeverity,
			AvgConfidence: agg.confidenceSum / float64(agg.count),
			LastSeen:      agg.lastSeen,
		})
	}

	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].Occurrences != patterns[j].Occurrences {
			return patterns[i].Occurrences > patterns[j].Occurrences
		}
		return patterns[i].LastSeen.After(patterns[j].LastSeen)
	})

	return patterns
}

type groupKey struct {
	host   string
	metric string
	kind   models.InsightKind
}

type aggregate struct {
	count         int
	severe        int
	confidenceSum float64
	topSeverity   string
	lastSeen      time.Time
}

// Package engine orchestrates the predictive analysis pipeline: resampling,
// outlier scoring, trend forecasting, payload composition, narrative
// generation, and persistence.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/detect"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/forecast"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/insights"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/resample"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
)

// ErrInsufficientData is returned when the series is too short to fit any
// model. This is a caller precondition, not a recoverable state.
var ErrInsufficientData = errors.New("series too short for analysis")

// Narrator generates a structured narrative for one insight payload.
type Narrator interface {
	Summarize(ctx context.Context, kind models.InsightKind, payload map[string]any) (*models.Narrative, error)
}

// RecordStore persists prediction records.
type RecordStore interface {
	Save(ctx context.Context, rec store.PredictionRecord) (int64, error)
}

// Pipeline runs one synchronous analysis per invocation. It holds no
// mutable state across calls, so concurrent invocations are safe as long as
// each receives its own series.
type Pipeline struct {
	logger     *slog.Logger
	narrator   Narrator
	records    RecordStore
	thresholds *ThresholdRules
	now        func() time.Time
}

// NewPipeline constructs the analysis pipeline. The narrator and record
// store may be nil for payload-only runs (e.g. offline CSV analysis).
func NewPipeline(logger *slog.Logger, narrator Narrator, records RecordStore, thresholds *ThresholdRules) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		narrator:   narrator,
		records:    records,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Analyze runs both analyses on the series and returns the combined result.
// Model-fitting failures propagate; narrative failures degrade the result
// instead of discarding sound payloads.
func (p *Pipeline) Analyze(ctx context.Context, req models.AnalysisRequest, series models.MetricSeries) (models.AnalysisResult, error) {
	if series.Len() == 0 {
		return models.AnalysisResult{}, ErrInsufficientData
	}

	metricName := req.MetricName
	if metricName == "" {
		metricName = series.MetricName
	}
	threshold := req.Threshold
	if threshold <= 0 {
		threshold = p.thresholds.Threshold(metricName)
	}
	contamination := req.Contamination
	if contamination <= 0 {
		contamination = p.thresholds.Contamination(metricName)
	}

	now := p.now()
	result := models.AnalysisResult{
		RunID:      uuid.NewString(),
		Host:       req.Host,
		MetricName: metricName,
		CreatedAt:  now,
	}

	fiveMin := resample.Resample(series, resample.OutlierCadence)
	if !resample.Sufficient(fiveMin) {
		return models.AnalysisResult{}, fmt.Errorf("%w: %d five-minute buckets", ErrInsufficientData, fiveMin.Len())
	}

	scored, err := detect.Score(fiveMin, contamination)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("outlier scoring: %w", err)
	}

	points, breach, err := forecast.Forecast(series, forecast.DefaultHorizonPeriods, threshold)
	if err != nil {
		return models.AnalysisResult{}, fmt.Errorf("trend forecast: %w", err)
	}

	cutoff := series.LastTimestamp().Truncate(resample.ForecastCadence)
	result.Trend = insights.ComposeTrend(points, breach, cutoff, now, metricName)
	result.Anomaly = insights.ComposeAnomaly(scored, now, metricName)

	result.TrendNarrative = p.narrate(ctx, models.KindTrend, insights.TrendPayload(result.Trend), &result)
	result.AnomalyNarrative = p.narrate(ctx, models.KindAnomaly, insights.AnomalyPayload(result.Anomaly), &result)

	p.persist(ctx, &result)
	return result, nil
}

func (p *Pipeline) narrate(ctx context.Context, kind models.InsightKind, payload map[string]any, result *models.AnalysisResult) *models.Narrative {
	if p.narrator == nil {
		return nil
	}
	narr, err := p.narrator.Summarize(ctx, kind, payload)
	if err != nil {
		p.logger.Warn("narrative generation failed",
			slog.String("kind", string(kind)),
			slog.String("run_id", result.RunID),
			slog.Any("error", err))
		result.Degraded = true
		return nil
	}
	return narr
}

func (p *Pipeline) persist(ctx context.Context, result *models.AnalysisResult) {
	if p.records == nil {
		return
	}
	if result.TrendNarrative != nil {
		p.saveRecord(ctx, result, models.KindTrend, result.TrendNarrative, insights.TrendPayload(result.Trend), result.Trend.BreachTime)
	}
	if result.AnomalyNarrative != nil {
		p.saveRecord(ctx, result, models.KindAnomaly, result.AnomalyNarrative, insights.AnomalyPayload(result.Anomaly), nil)
	}
}

func (p *Pipeline) saveRecord(ctx context.Context, result *models.AnalysisResult, kind models.InsightKind, narr *models.Narrative, payload map[string]any, breach *time.Time) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("marshal payload for storage", slog.Any("error", err))
		return
	}
	rec := store.PredictionRecord{
		CreatedAt:     result.CreatedAt,
		RunID:         result.RunID,
		Host:          result.Host,
		MetricName:    result.MetricName,
		Kind:          kind,
		Severity:      narr.Severity,
		Summary:       narr.Summary,
		Action:        narr.Action,
		Justification: narr.Justification,
		Confidence:    float64(narr.Confidence),
		BreachTime:    breach,
		Payload:       string(data),
	}
	if _, err := p.records.Save(ctx, rec); err != nil {
		p.logger.Warn("persist prediction failed",
			slog.String("kind", string(kind)),
			slog.String("run_id", result.RunID),
			slog.Any("error", err))
	}
}

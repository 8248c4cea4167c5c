package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/engine"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/metrics"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/patterns"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/repo"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/utils"
)

// DefaultDaysBack bounds the history window when a request leaves it unset.
const DefaultDaysBack = 7

// ErrAcquisition marks failures while pulling history or inventory from the
// monitoring backend, so transports can map them to upstream-failure codes.
var ErrAcquisition = errors.New("history acquisition failed")

// HistorySource abstracts the Zabbix inventory and history reads the
// service depends on.
type HistorySource interface {
	Hosts(ctx context.Context) ([]repo.Host, error)
	Items(ctx context.Context, hostID string) ([]repo.Item, error)
	FetchHistory(ctx context.Context, itemID string, daysBack int) ([]models.RawPoint, error)
}

// PredictionLister reads persisted analysis results.
type PredictionLister interface {
	ListRecent(ctx context.Context, req models.ListPredictionsRequest) ([]store.PredictionRecord, error)
}

// PredictorService is the orchestration facade behind every transport:
// it joins acquisition, the analysis pipeline, history and pattern mining.
type PredictorService struct {
	logger    *slog.Logger
	source    HistorySource
	pipeline  *engine.Pipeline
	history   PredictionLister
	miner     *patterns.Miner
	latencies *utils.LatencyTracker
}

// NewPredictorService constructs the service facade. source and history may
// be nil when the corresponding surface is not configured.
func NewPredictorService(logger *slog.Logger, source HistorySource, pipeline *engine.Pipeline, history PredictionLister) *PredictorService {
	if logger == nil {
		logger = slog.Default()
	}
	var miner *patterns.Miner
	if history != nil {
		miner = patterns.NewMiner(logger, history)
	}
	return &PredictorService{
		logger:    logger,
		source:    source,
		pipeline:  pipeline,
		history:   history,
		miner:     miner,
		latencies: utils.NewLatencyTracker(1024),
	}
}

// Analyze pulls history for the requested item and runs the full analysis.
func (s *PredictorService) Analyze(ctx context.Context, req models.AnalysisRequest) (models.AnalysisResult, error) {
	if s.source == nil {
		return models.AnalysisResult{}, utils.NewAppError("services.Analyze", "history source not configured", nil)
	}
	if req.DaysBack <= 0 {
		req.DaysBack = DefaultDaysBack
	}

	fetchStart := time.Now()
	points, err := s.source.FetchHistory(ctx, req.ItemID, req.DaysBack)
	metrics.ObserveHistoryFetch(time.Since(fetchStart))
	if err != nil {
		metrics.ObserveAnalysis(time.Since(fetchStart), metrics.OutcomeError)
		s.logger.Error("history fetch failed",
			slog.String("item_id", req.ItemID), slog.Any("error", err))
		return models.AnalysisResult{}, errors.Join(ErrAcquisition, err)
	}

	series := models.MetricSeries{MetricName: req.MetricName, Points: points}
	return s.AnalyzeSeries(ctx, req, series)
}

// AnalyzeSeries runs the pipeline over an already-acquired series. The CSV
// ingestion path enters here directly.
func (s *PredictorService) AnalyzeSeries(ctx context.Context, req models.AnalysisRequest, series models.MetricSeries) (models.AnalysisResult, error) {
	if s.pipeline == nil {
		return models.AnalysisResult{}, utils.NewAppError("services.AnalyzeSeries", "pipeline not configured", nil)
	}

	start := time.Now()
	result, err := s.pipeline.Analyze(ctx, req, series)
	duration := time.Since(start)
	if err != nil {
		metrics.ObserveAnalysis(duration, metrics.OutcomeError)
		s.logger.Error("analysis failed",
			slog.String("host", req.Host),
			slog.String("metric", req.MetricName),
			slog.Any("error", err))
		return models.AnalysisResult{}, err
	}

	s.latencies.Observe(duration)
	outcome := metrics.OutcomeSuccess
	if result.Degraded {
		outcome = metrics.OutcomeDegraded
	}
	metrics.ObserveAnalysis(duration, outcome)
	if count := s.latencies.Count(); count >= 20 && count%20 == 0 {
		p95 := s.latencies.Percentile(95)
		s.logger.Info("analysis latency", slog.Duration("p95", p95), slog.Int("samples", count))
	}

	return result, nil
}

// Hosts lists monitored hosts from the backend inventory.
func (s *PredictorService) Hosts(ctx context.Context) ([]repo.Host, error) {
	if s.source == nil {
		return nil, utils.NewAppError("services.Hosts", "history source not configured", nil)
	}
	hosts, err := s.source.Hosts(ctx)
	if err != nil {
		return nil, errors.Join(ErrAcquisition, err)
	}
	return hosts, nil
}

// Items lists numeric items for a host from the backend inventory.
func (s *PredictorService) Items(ctx context.Context, hostID string) ([]repo.Item, error) {
	if s.source == nil {
		return nil, utils.NewAppError("services.Items", "history source not configured", nil)
	}
	items, err := s.source.Items(ctx, hostID)
	if err != nil {
		return nil, errors.Join(ErrAcquisition, err)
	}
	return items, nil
}

// Predictions returns recent persisted analysis records.
func (s *PredictorService) Predictions(ctx context.Context, req models.ListPredictionsRequest) ([]store.PredictionRecord, error) {
	if s.history == nil {
		return nil, utils.NewAppError("services.Predictions", "history store not configured", nil)
	}
	return s.history.ListRecent(ctx, req)
}

// Patterns mines recurring alert patterns from stored predictions.
func (s *PredictorService) Patterns(ctx context.Context, host string, limit int) ([]models.AlertPattern, error) {
	if s.miner == nil {
		return nil, utils.NewAppError("services.Patterns", "history store not configured", nil)
	}
	return s.miner.MineRecent(ctx, host, limit)
}

// LatencyP95 returns the current p95 analysis latency.
func (s *PredictorService) LatencyP95() time.Duration {
	return s.latencies.Percentile(95)
}

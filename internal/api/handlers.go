package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/engine"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/insights"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/services"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
)

// Handler holds the dependencies shared by every HTTP endpoint.
type Handler struct {
	service   *services.PredictorService
	logger    *slog.Logger
	startTime time.Time
}

// NewHandler constructs the HTTP handler set.
func NewHandler(logger *slog.Logger, service *services.PredictorService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger, startTime: time.Now()}
}

type analyzeRequest struct {
	Host          string  `json:"host"`
	ItemID        string  `json:"item_id"`
	MetricName    string  `json:"metric_name"`
	Threshold     float64 `json:"threshold"`
	DaysBack      int     `json:"days_back"`
	Contamination float64 `json:"contamination"`
}

type analyzeResponse struct {
	RunID            string            `json:"run_id"`
	Host             string            `json:"host"`
	MetricName       string            `json:"metric_name"`
	Trend            map[string]any    `json:"trend"`
	Anomaly          map[string]any    `json:"anomaly"`
	TrendNarrative   *models.Narrative `json:"trend_narrative"`
	AnomalyNarrative *models.Narrative `json:"anomaly_narrative"`
	Degraded         bool              `json:"degraded"`
	CreatedAt        time.Time         `json:"created_at"`
}

// Analyze handles POST /api/v1/analyze.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ItemID == "" || req.MetricName == "" {
		h.respondError(w, "item_id and metric_name are required", http.StatusBadRequest)
		return
	}

	result, err := h.service.Analyze(r.Context(), models.AnalysisRequest{
		Host:          req.Host,
		ItemID:        req.ItemID,
		MetricName:    req.MetricName,
		Threshold:     req.Threshold,
		DaysBack:      req.DaysBack,
		Contamination: req.Contamination,
	})
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}

	h.respondJSON(w, toAnalyzeResponse(result), http.StatusOK)
}

func toAnalyzeResponse(result models.AnalysisResult) analyzeResponse {
	return analyzeResponse{
		RunID:            result.RunID,
		Host:             result.Host,
		MetricName:       result.MetricName,
		Trend:            insights.TrendPayload(result.Trend),
		Anomaly:          insights.AnomalyPayload(result.Anomaly),
		TrendNarrative:   result.TrendNarrative,
		AnomalyNarrative: result.AnomalyNarrative,
		Degraded:         result.Degraded,
		CreatedAt:        result.CreatedAt,
	}
}

func (h *Handler) respondAnalysisError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrAcquisition):
		h.respondError(w, "history acquisition failed: "+err.Error(), http.StatusBadGateway)
	case errors.Is(err, engine.ErrInsufficientData):
		h.respondError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error("analysis request failed", slog.Any("error", err))
		h.respondError(w, "analysis failed", http.StatusInternalServerError)
	}
}

type hostResponse struct {
	HostID string `json:"host_id"`
	Host   string `json:"host"`
	Name   string `json:"name"`
}

// Hosts handles GET /api/v1/hosts.
func (h *Handler) Hosts(w http.ResponseWriter, r *http.Request) {
	hosts, err := h.service.Hosts(r.Context())
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}
	out := make([]hostResponse, 0, len(hosts))
	for _, host := range hosts {
		out = append(out, hostResponse{HostID: host.HostID, Host: host.Host, Name: host.Name})
	}
	h.respondJSON(w, map[string]any{"hosts": out}, http.StatusOK)
}

type itemResponse struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
	Key    string `json:"key"`
}

// Items handles GET /api/v1/hosts/{id}/items.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	hostID := mux.Vars(r)["id"]
	if hostID == "" {
		h.respondError(w, "host id is required", http.StatusBadRequest)
		return
	}
	items, err := h.service.Items(r.Context(), hostID)
	if err != nil {
		h.respondAnalysisError(w, err)
		return
	}
	out := make([]itemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, itemResponse{ItemID: item.ItemID, Name: item.Name, Key: item.Key})
	}
	h.respondJSON(w, map[string]any{"host_id": hostID, "items": out}, http.StatusOK)
}

type predictionResponse struct {
	ID            int64      `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	RunID         string     `json:"run_id"`
	Host          string     `json:"host"`
	MetricName    string     `json:"metric_name"`
	Kind          string     `json:"kind"`
	Severity      string     `json:"severity"`
	Summary       string     `json:"summary"`
	Action        string     `json:"action"`
	Justification string     `json:"justification"`
	Confidence    float64    `json:"confidence"`
	BreachTime    *time.Time `json:"breach_time"`
}

// Predictions handles GET /api/v1/predictions.
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	req := models.ListPredictionsRequest{
		Host:  r.URL.Query().Get("host"),
		Limit: queryInt(r, "limit", 0),
	}
	records, err := h.service.Predictions(r.Context(), req)
	if err != nil {
		h.logger.Error("list predictions failed", slog.Any("error", err))
		h.respondError(w, "failed to list predictions", http.StatusInternalServerError)
		return
	}
	out := make([]predictionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toPredictionResponse(rec))
	}
	h.respondJSON(w, map[string]any{"predictions": out}, http.StatusOK)
}

func toPredictionResponse(rec store.PredictionRecord) predictionResponse {
	return predictionResponse{
		ID:            rec.ID,
		CreatedAt:     rec.CreatedAt,
		RunID:         rec.RunID,
		Host:          rec.Host,
		MetricName:    rec.MetricName,
		Kind:          string(rec.Kind),
		Severity:      rec.Severity,
		Summary:       rec.Summary,
		Action:        rec.Action,
		Justification: rec.Justification,
		Confidence:    rec.Confidence,
		BreachTime:    rec.BreachTime,
	}
}

type patternResponse struct {
	Host          string    `json:"host"`
	MetricName    string    `json:"metric_name"`
	Kind          string    `json:"kind"`
	Occurrences   int       `json:"occurrences"`
	SevereShare   float64   `json:"severe_share"`
	TopSeverity   string    `json:"top_severity"`
	AvgConfidence float64   `json:"avg_confidence"`
	LastSeen      time.Time `json:"last_seen"`
}

// Patterns handles GET /api/v1/patterns.
func (h *Handler) Patterns(w http.ResponseWriter, r *http.Request) {
	host := r.URL.Query().Get("host")
	limit := queryInt(r, "limit", 0)
	mined, err := h.service.Patterns(r.Context(), host, limit)
	if err != nil {
		h.logger.Error("mine patterns failed", slog.Any("error", err))
		h.respondError(w, "failed to mine patterns", http.StatusInternalServerError)
		return
	}
	out := make([]patternResponse, 0, len(mined))
	for _, p := range mined {
		out = append(out, patternResponse{
			Host:          p.Host,
			MetricName:    p.MetricName,
			Kind:          string(p.Kind),
			Occurrences:   p.Occurrences,
			SevereShare:   p.SevereShare,
			TopSeverity:   p.TopSeverity,
			AvgConfidence: p.AvgConfidence,
			LastSeen:      p.LastSeen,
		})
	}
	h.respondJSON(w, map[string]any{"patterns": out}, http.StatusOK)
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, map[string]any{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
	}, http.StatusOK)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("encode response failed", slog.Any("error", err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Package narrative calls an Ollama-compatible language model to turn
// insight payloads into structured operator summaries.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/metrics"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

// Client talks to the Ollama generate API. Calls are blocking with the
// configured timeout and are never retried; the caller decides what a
// failed narrative means.
type Client struct {
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient constructs a narrative client.
func NewClient(baseURL, model string, temperature float64, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Summarize renders the prompt for the given insight kind, invokes the
// model, and parses the reply into a Narrative. Malformed replies surface
// as errors, never as fabricated narratives.
func (c *Client) Summarize(ctx context.Context, kind models.InsightKind, payload map[string]any) (*models.Narrative, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("narrative endpoint not configured")
	}

	prompt, err := BuildPrompt(kind, payload)
	if err != nil {
		return nil, fmt.Errorf("build %s prompt: %w", kind, err)
	}

	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": c.temperature,
			"top_p":       0.9,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNarrative(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("narrative endpoint returned status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode narrative response: %w", err)
	}

	c.logger.Debug("narrative raw response", slog.String("kind", string(kind)), slog.Int("bytes", len(genResp.Response)))

	narr, err := ParseNarrative(genResp.Response)
	if err != nil {
		return nil, fmt.Errorf("parse %s narrative: %w", kind, err)
	}
	return narr, nil
}

package narrative

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

func TestSummarizeRoundTrip(t *testing.T) {
	var gotPath string
	var gotReq generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"response": `{"summary":"rising","severity":"moderate","confidence":0.7}`,
			"done":     true,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", 0.2, time.Second, nil)
	narr, err := client.Summarize(context.Background(), models.KindTrend, map[string]any{"threshold_value": 63.0})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if gotPath != "/api/generate" {
		t.Errorf("path = %q", gotPath)
	}
	if gotReq.Model != "test-model" || gotReq.Stream {
		t.Errorf("request = %+v", gotReq)
	}
	if !strings.Contains(gotReq.Prompt, `"threshold_value": 63`) {
		t.Errorf("prompt missing payload: %q", gotReq.Prompt)
	}
	if narr.Summary != "rising" || narr.Severity != "moderate" {
		t.Errorf("narrative = %+v", narr)
	}
}

func TestSummarizeNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "m", 0.2, time.Second, nil)
	if _, err := client.Summarize(context.Background(), models.KindAnomaly, map[string]any{}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestSummarizeMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "sorry, I cannot help"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "m", 0.2, time.Second, nil)
	if _, err := client.Summarize(context.Background(), models.KindTrend, map[string]any{}); err == nil {
		t.Fatal("expected parse error for non-JSON reply")
	}
}

func TestSummarizeNoEndpoint(t *testing.T) {
	client := NewClient("", "m", 0.2, time.Second, nil)
	if _, err := client.Summarize(context.Background(), models.KindTrend, map[string]any{}); err == nil {
		t.Fatal("expected error without endpoint")
	}
}

func TestBuildPromptUnknownKind(t *testing.T) {
	if _, err := BuildPrompt(models.InsightKind("bogus"), map[string]any{}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

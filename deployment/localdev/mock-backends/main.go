// mock-backends serves a fake Zabbix JSON-RPC API and a fake Ollama
// generate endpoint so the predictor can be exercised without either
// system running.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"
)

type rpcRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     int             `json:"id"`
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api_jsonrpc.php", handleZabbix)
	mux.HandleFunc("/api/generate", handleOllama)

	logger := log.New(log.Writer(), "mock-backends ", log.LstdFlags|log.Lmicroseconds)
	srv := &http.Server{
		Addr:    ":8089",
		Handler: logRequests(logger, mux),
	}

	logger.Println("listening on :8089")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server error: %v", err)
	}
}

func handleZabbix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var result any
	switch req.Method {
	case "user.login":
		result = "mock-token"
	case "host.get":
		result = []map[string]string{
			{"hostid": "10084", "host": "web-01", "name": "Web server 01"},
			{"hostid": "10085", "host": "db-01", "name": "Database 01"},
		}
	case "item.get":
		result = []map[string]string{
			{"itemid": "42424", "name": "CPU utilization", "key_": "system.cpu.util"},
			{"itemid": "42425", "name": "Memory utilization", "key_": "vm.memory.util"},
		}
	case "history.get":
		result = mockHistory(req.Params)
	default:
		writeJSON(w, map[string]any{
			"jsonrpc": "2.0",
			"error":   map[string]any{"code": -32601, "message": "Method not found", "data": req.Method},
			"id":      req.ID,
		})
		return
	}

	writeJSON(w, map[string]any{"jsonrpc": "2.0", "result": result, "id": req.ID})
}

// mockHistory synthesises a slowly rising daily wave inside the requested
// window so both the forecaster and the outlier scorer have structure to
// find.
func mockHistory(params json.RawMessage) []map[string]string {
	var window struct {
		TimeFrom int64 `json:"time_from"`
		TimeTill int64 `json:"time_till"`
	}
	_ = json.Unmarshal(params, &window)
	if window.TimeTill == 0 {
		window.TimeTill = time.Now().Unix()
	}
	if window.TimeFrom == 0 || window.TimeFrom >= window.TimeTill {
		window.TimeFrom = window.TimeTill - 24*3600
	}

	var rows []map[string]string
	step := int64(60)
	for ts := window.TimeFrom; ts <= window.TimeTill; ts += step {
		hours := float64(ts-window.TimeFrom) / 3600
		value := 35 + hours*0.05 + 10*math.Sin(2*math.Pi*hours/24)
		if ts%5077 == 0 {
			value += 40 // occasional spike
		}
		rows = append(rows, map[string]string{
			"itemid": "42424",
			"clock":  strconv.FormatInt(ts, 10),
			"value":  fmt.Sprintf("%.4f", value),
		})
	}
	return rows
}

func handleOllama(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	narrative := map[string]any{
		"summary":       "CPU usage is trending upward and is expected to cross the configured threshold.",
		"severity":      "moderate",
		"breach_time":   time.Now().Add(9 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"cpu_at_breach": 64.2,
		"action":        "Review the workload schedule and plan additional capacity.",
		"justification": "Median forecast crosses the threshold with a steady growth rate.",
		"confidence":    0.71,
	}
	encoded, _ := json.Marshal(narrative)
	writeJSON(w, map[string]any{
		"model":    "mock",
		"response": string(encoded),
		"done":     true,
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func logRequests(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rw.status, time.Since(start))
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Package repo contains clients for the external data-acquisition APIs.
package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/cache"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/models"
)

const (
	// tokenTTL keeps the auth token shorter-lived than the server session.
	tokenTTL = 4 * time.Minute
	// historyChunk bounds one history.get window.
	historyChunk = 7 * 24 * time.Hour
	// historyLimit caps rows per history.get call.
	historyLimit = 5000
	// historyFloat selects numeric float history records.
	historyFloat = 0
)

// Host is a monitored host as reported by host.get.
type Host struct {
	HostID string `json:"hostid"`
	Host   string `json:"host"`
	Name   string `json:"name"`
}

// Item is a collectable metric as reported by item.get.
type Item struct {
	ItemID string `json:"itemid"`
	Name   string `json:"name"`
	Key    string `json:"key_"`
}

// APIError is a Zabbix JSON-RPC level failure, distinct from transport
// errors so callers can tell "Zabbix rejected the call" from "Zabbix is
// unreachable".
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("zabbix api error %d: %s (%s)", e.Code, e.Message, e.Data)
}

// ZabbixClient wraps the Zabbix JSON-RPC API with token caching and chunked
// history pagination.
type ZabbixClient struct {
	url          string
	username     string
	password     string
	httpClient   *http.Client
	cache        cache.Provider
	inventoryTTL time.Duration

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewZabbixClient constructs a client targeting the configured Zabbix
// frontend API endpoint.
func NewZabbixClient(url, username, password string, timeout time.Duration, cacheProvider cache.Provider, inventoryTTL time.Duration) *ZabbixClient {
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ZabbixClient{
		url:          url,
		username:     username,
		password:     password,
		httpClient:   &http.Client{Timeout: timeout},
		cache:        cacheProvider,
		inventoryTTL: inventoryTTL,
	}
}

type rpcRequest struct {
	JSONRPC string  `json:"jsonrpc"`
	Method  string  `json:"method"`
	Params  any     `json:"params"`
	Auth    *string `json:"auth,omitempty"`
	ID      int     `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *APIError       `json:"error"`
}

func (c *ZabbixClient) call(ctx context.Context, method string, params any, auth string, out any) error {
	if c.url == "" {
		return fmt.Errorf("zabbix URL not configured")
	}

	reqBody := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: 1}
	if auth != "" {
		reqBody.Auth = &auth
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json-rpc")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("zabbix request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("zabbix returned status %d", resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode zabbix response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("decode zabbix result: %w", err)
		}
	}
	return nil
}

// login returns a cached auth token, refreshing it once the expiry window
// passes.
func (c *ZabbixClient) login(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	var token string
	params := map[string]string{"user": c.username, "password": c.password}
	if err := c.call(ctx, "user.login", params, "", &token); err != nil {
		return "", fmt.Errorf("zabbix login: %w", err)
	}
	c.token = token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	return token, nil
}

// Hosts lists all monitored hosts, memoised through the cache provider.
func (c *ZabbixClient) Hosts(ctx context.Context) ([]Host, error) {
	const key = "zabbix:hosts"
	if data, err := c.cache.Get(ctx, key); err == nil {
		var hosts []Host
		if err := json.Unmarshal(data, &hosts); err == nil {
			return hosts, nil
		}
	}

	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	var hosts []Host
	params := map[string]any{
		"output":    []string{"hostid", "host", "name"},
		"sortfield": "host",
	}
	if err := c.call(ctx, "host.get", params, token, &hosts); err != nil {
		return nil, fmt.Errorf("zabbix host.get: %w", err)
	}

	if data, err := json.Marshal(hosts); err == nil {
		_ = c.cache.Set(ctx, key, data, c.inventoryTTL)
	}
	return hosts, nil
}

// Items lists collectable metrics for one host, memoised through the cache
// provider.
func (c *ZabbixClient) Items(ctx context.Context, hostID string) ([]Item, error) {
	key := "zabbix:items:" + hostID
	if data, err := c.cache.Get(ctx, key); err == nil {
		var items []Item
		if err := json.Unmarshal(data, &items); err == nil {
			return items, nil
		}
	}

	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	var items []Item
	params := map[string]any{
		"output":    []string{"itemid", "name", "key_"},
		"hostids":   hostID,
		"sortfield": "name",
	}
	if err := c.call(ctx, "item.get", params, token, &items); err != nil {
		return nil, fmt.Errorf("zabbix item.get: %w", err)
	}

	if data, err := json.Marshal(items); err == nil {
		_ = c.cache.Set(ctx, key, data, c.inventoryTTL)
	}
	return items, nil
}

type historyRow struct {
	Clock string `json:"clock"`
	Value string `json:"value"`
}

// FetchHistory pulls numeric history for one item in 7-day chunks of up to
// 5000 rows each, oldest first, and returns the points ordered by
// timestamp.
func (c *ZabbixClient) FetchHistory(ctx context.Context, itemID string, daysBack int) ([]models.RawPoint, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	end := time.Now()
	cursor := end.Add(-time.Duration(daysBack) * 24 * time.Hour)

	var points []models.RawPoint
	for cursor.Before(end) {
		chunkEnd := cursor.Add(historyChunk)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		params := map[string]any{
			"output":    "extend",
			"history":   historyFloat,
			"itemids":   itemID,
			"sortfield": "clock",
			"sortorder": "ASC",
			"time_from": cursor.Unix(),
			"time_till": chunkEnd.Unix(),
			"limit":     historyLimit,
		}

		var rows []historyRow
		if err := c.call(ctx, "history.get", params, token, &rows); err != nil {
			return nil, fmt.Errorf("zabbix history.get: %w", err)
		}

		for _, row := range rows {
			clock, err := strconv.ParseInt(row.Clock, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parse history clock %q: %w", row.Clock, err)
			}
			value, err := strconv.ParseFloat(row.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("parse history value %q: %w", row.Value, err)
			}
			points = append(points, models.RawPoint{
				Timestamp: time.Unix(clock, 0).UTC(),
				Value:     value,
			})
		}

		cursor = chunkEnd.Add(time.Second)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})
	return points, nil
}

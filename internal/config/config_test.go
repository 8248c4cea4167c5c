package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":8080" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Server.MetricsAddress != ":2112" {
		t.Errorf("metrics address = %q", cfg.Server.MetricsAddress)
	}
	if cfg.Narrative.Model != "llama3.1:8b" {
		t.Errorf("narrative model = %q", cfg.Narrative.Model)
	}
	if cfg.Narrative.Temperature != 0.2 {
		t.Errorf("narrative temperature = %v", cfg.Narrative.Temperature)
	}
	if cfg.Zabbix.Timeout != 10*time.Second {
		t.Errorf("zabbix timeout = %v", cfg.Zabbix.Timeout)
	}
	if cfg.Store.Path != "predictions.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  address: ":9090"
  gracefulTimeout: 30s
zabbix:
  url: "http://zabbix.internal/api_jsonrpc.php"
  username: "reader"
narrative:
  model: "mistral:7b"
logging:
  level: debug
  json: true
`
	path := filepath.Join(t.TempDir(), "predictor.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":9090" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Server.GracefulTimeout != 30*time.Second {
		t.Errorf("graceful timeout = %v", cfg.Server.GracefulTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.Server.MetricsAddress != ":2112" {
		t.Errorf("metrics address = %q", cfg.Server.MetricsAddress)
	}
	if cfg.Zabbix.URL != "http://zabbix.internal/api_jsonrpc.php" {
		t.Errorf("zabbix url = %q", cfg.Zabbix.URL)
	}
	if cfg.Narrative.Model != "mistral:7b" {
		t.Errorf("narrative model = %q", cfg.Narrative.Model)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v", err)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PREDICTOR_SERVER_ADDRESS", ":7070")
	t.Setenv("ZABBIX_URL", "http://env.example/api_jsonrpc.php")
	t.Setenv("ZABBIX_TIMEOUT", "45s")
	t.Setenv("AI_MODEL", "llama3.2:3b")
	t.Setenv("AI_TEMPERATURE", "0.7")
	t.Setenv("PREDICTOR_STORE_PATH", "/var/lib/predictor/history.db")
	t.Setenv("PREDICTOR_LOG_FORMAT", "json")
	t.Setenv("PREDICTOR_CACHE_ENABLED", "true")
	t.Setenv("PREDICTOR_CACHE_ADDR", "redis:6379")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Address != ":7070" {
		t.Errorf("server address = %q", cfg.Server.Address)
	}
	if cfg.Zabbix.URL != "http://env.example/api_jsonrpc.php" {
		t.Errorf("zabbix url = %q", cfg.Zabbix.URL)
	}
	if cfg.Zabbix.Timeout != 45*time.Second {
		t.Errorf("zabbix timeout = %v", cfg.Zabbix.Timeout)
	}
	if cfg.Narrative.Model != "llama3.2:3b" || cfg.Narrative.Temperature != 0.7 {
		t.Errorf("narrative = %+v", cfg.Narrative)
	}
	if cfg.Store.Path != "/var/lib/predictor/history.db" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	if !cfg.Logging.JSON {
		t.Error("log format json not applied")
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestEnvOverridesBadValuesIgnored(t *testing.T) {
	t.Setenv("ZABBIX_TIMEOUT", "soon")
	t.Setenv("AI_TEMPERATURE", "hot")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Zabbix.Timeout != 10*time.Second {
		t.Errorf("zabbix timeout = %v, want default", cfg.Zabbix.Timeout)
	}
	if cfg.Narrative.Temperature != 0.2 {
		t.Errorf("temperature = %v, want default", cfg.Narrative.Temperature)
	}
}

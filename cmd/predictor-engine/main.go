package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/api"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/cache"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/config"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/engine"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/metrics"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/narrative"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/repo"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/services"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/store"
	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/utils"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}

	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)
	logger.Info("starting alert-predictor", slog.String("address", cfg.Server.Address))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	var cacheProvider cache.Provider = cache.NoopProvider{}
	var redisCloser cache.Provider
	if cfg.Cache.Enabled && cfg.Cache.Addr != "" {
		provider, err := cache.NewRedisProvider(cache.RedisConfig{
			Addr:         cfg.Cache.Addr,
			Username:     cfg.Cache.Username,
			Password:     cfg.Cache.Password,
			DB:           cfg.Cache.DB,
			DialTimeout:  cfg.Cache.DialTimeout,
			ReadTimeout:  cfg.Cache.ReadTimeout,
			WriteTimeout: cfg.Cache.WriteTimeout,
			MaxRetries:   cfg.Cache.MaxRetries,
		})
		if err != nil {
			logger.Warn("redis cache unavailable", slog.Any("error", err))
		} else {
			cacheProvider = provider
			redisCloser = provider
		}
	}
	if redisCloser != nil {
		defer redisCloser.Close()
	}

	zabbixClient := repo.NewZabbixClient(
		cfg.Zabbix.URL,
		cfg.Zabbix.Username,
		cfg.Zabbix.Password,
		cfg.Zabbix.Timeout,
		cacheProvider,
		cfg.Cache.InventoryTTL,
	)

	predictionStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open prediction store", slog.String("path", cfg.Store.Path), slog.Any("error", err))
		os.Exit(1)
	}
	defer predictionStore.Close()

	rules, err := engine.LoadThresholdRules(cfg.Rules.Path, logger)
	if err != nil {
		logger.Error("failed to load threshold rules", slog.Any("error", err))
		os.Exit(1)
	}

	narrator := narrative.NewClient(
		cfg.Narrative.Host,
		cfg.Narrative.Model,
		cfg.Narrative.Temperature,
		cfg.Narrative.Timeout,
		logger,
	)

	pipeline := engine.NewPipeline(logger, narrator, predictionStore, rules)
	service := services.NewPredictorService(logger, zabbixClient, pipeline, predictionStore)

	server := api.NewServer(cfg.Server, logger, api.NewHandler(logger, service))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *http.Server
	if cfg.Server.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{
			Addr:         cfg.Server.MetricsAddress,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 15 * time.Second,
		}
		go func() {
			logger.Info("metrics server listening", slog.String("address", cfg.Server.MetricsAddress))
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server exited", slog.Any("error", err))
				stop()
			}
		}()
	}

	go func() {
		if serveErr := server.Start(); serveErr != nil {
			logger.Error("http server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulTimeout)
	defer cancel()
	server.Shutdown(shutdownCtx)

	if metricsServer != nil {
		metricsCtx, cancelMetrics := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(metricsCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server shutdown", slog.Any("error", err))
		}
		cancelMetrics()
	}

	// Give remaining goroutines time to finish logging
	time.Sleep(100 * time.Millisecond)
	logger.Info("alert-predictor stopped")
}

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/atalahmeh-tc/zabbix-ai-alert-predictor/internal/config"
)

// Server wraps the HTTP server and its lifecycle helpers.
type Server struct {
	cfg        config.ServerConfig
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the router and binds the configured middleware.
func NewServer(cfg config.ServerConfig, logger *slog.Logger, handler *Handler) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", handler.Health).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/analyze", handler.Analyze).Methods(http.MethodPost)
	v1.HandleFunc("/hosts", handler.Hosts).Methods(http.MethodGet)
	v1.HandleFunc("/hosts/{id}/items", handler.Items).Methods(http.MethodGet)
	v1.HandleFunc("/predictions", handler.Predictions).Methods(http.MethodGet)
	v1.HandleFunc("/patterns", handler.Patterns).Methods(http.MethodGet)

	// Subrouters report method mismatches as 404 unless given their own
	// MethodNotAllowedHandler.
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handler.respondError(w, "method not allowed", http.StatusMethodNotAllowed)
	})
	router.MethodNotAllowedHandler = notAllowed
	v1.MethodNotAllowedHandler = notAllowed

	router.Use(requestLogMiddleware(logger))

	return &Server{
		cfg:    cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:         cfg.Address,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Start serves incoming requests until Shutdown is invoked.
func (s *Server) Start() error {
	s.logger.Info("http server listening", slog.String("address", s.cfg.Address))
	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests within the supplied context.
func (s *Server) Shutdown(ctx context.Context) {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Warn("http shutdown", slog.Any("error", err))
		_ = s.httpServer.Close()
	}
}

// GracefulTimeout returns the configured graceful timeout duration.
func (s *Server) GracefulTimeout() time.Duration {
	return s.cfg.GracefulTimeout
}

// Handler exposes the routed handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func requestLogMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Duration("duration", time.Since(start)))
		})
	}
}

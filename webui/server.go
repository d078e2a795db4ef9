// Package webui serves the single summarizer page and its JSON API.
package webui

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"smartsummarizer/logging"
	"smartsummarizer/metrics"
	"smartsummarizer/pdfprocessor"

	"go.uber.org/zap"
)

// ServerConfig configures the Server.
type ServerConfig struct {
	Host string
	Port int

	ReadTimeout time.Duration
	// WriteTimeout must cover a full map-reduce run.
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Password enables HTTP Basic auth when non-empty.
	Password string

	// RateLimitPerMinute caps summarize calls per client; 0 disables.
	RateLimitPerMinute int

	MaxUploadBytes int64

	Assets AssetConfig
	Info   PageInfo
}

// DefaultServerConfig returns localhost:8501 with timeouts sized for LLM calls.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:               "localhost",
		Port:               8501,
		ReadTimeout:        30 * time.Second,
		WriteTimeout:       5 * time.Minute,
		IdleTimeout:        120 * time.Second,
		RateLimitPerMinute: 20,
		MaxUploadBytes:     20 << 20,
		Assets:             DefaultAssetConfig(),
	}
}

// Dependencies are the collaborators the server calls into. Everything but
// Service may be nil.
type Dependencies struct {
	Service   SummaryService
	History   HistoryReader
	Stats     metrics.Reader
	Tracker   Tracker
	Extractor *pdfprocessor.Extractor

	// Metrics serves GET /metrics.
	Metrics http.Handler
}

// Server is the HTTP server for the page.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	config     ServerConfig
	logger     *logging.Logger
	api        *API
	limiter    *RateLimiter
	guard      *PasswordGuard
	loggingMw  *LoggingMiddleware
	assets     *Assets
	metrics    http.Handler
}

// NewServer wires routes and middleware.
func NewServer(config ServerConfig, deps Dependencies, logger *logging.Logger) (*Server, error) {
	if deps.Service == nil {
		return nil, errors.New("webui: summary service is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logger.Named("webui")
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}
	if deps.Extractor == nil {
		deps.Extractor = pdfprocessor.NewDefaultExtractor()
	}
	config.Info.MaxUpload = config.MaxUploadBytes

	s := &Server{
		mux:       http.NewServeMux(),
		config:    config,
		logger:    logger,
		limiter:   NewRateLimiter(config.RateLimitPerMinute, time.Minute),
		loggingMw: NewLoggingMiddleware(logger, "/health", "/metrics"),
		assets:    NewAssets(config.Assets),
		metrics:   deps.Metrics,
		api: &API{
			service:   deps.Service,
			history:   deps.History,
			stats:     deps.Stats,
			tracker:   deps.Tracker,
			extractor: deps.Extractor,
			info:      config.Info,
			maxUpload: config.MaxUploadBytes,
			logger:    logger,
		},
	}

	if config.Password != "" {
		guard, err := NewPasswordGuard(config.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to set up password protection: %w", err)
		}
		s.guard = guard
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(config.Host, fmt.Sprint(config.Port)),
		Handler:      s.Handler(),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	logger.Info("WebUI server created",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("auth_enabled", s.guard != nil),
		zap.Int("rate_limit_per_minute", config.RateLimitPerMinute),
	)
	return s, nil
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
	s.assets.RegisterRoutes(s.mux)
	s.api.RegisterRoutes(s.mux, s.limiter.Middleware)
}

// Handler returns the mux wrapped in logging and, when configured, auth.
// /health stays reachable without a password.
func (s *Server) Handler() http.Handler {
	var protected http.Handler = s.mux
	if s.guard != nil {
		guarded := s.guard.Middleware(s.mux)
		protected = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				s.mux.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
	return s.loggingMw.Handler(protected)
}

// handleHealth answers 200 even when degraded; the health field says which.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{
		"status":  "ok",
		"version": s.config.Info.Version,
	}
	if s.api.stats != nil {
		body["health"] = s.api.stats.SystemStatus().Health
	}
	writeJSON(w, http.StatusOK, body)
}

// HTTPServer exposes the underlying server for graceful shutdown.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start listens until the server is shut down. Rate limiter cleanup runs
// until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.limiter.StartCleanupTicker(ctx, 5*time.Minute)
	s.logger.Info("WebUI server starting", zap.String("url", "http://"+s.httpServer.Addr))

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}
	return nil
}

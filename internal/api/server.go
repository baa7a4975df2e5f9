package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eshaffer321/ticketsplit-backend/internal/api/handlers"
	"github.com/eshaffer321/ticketsplit-backend/internal/api/middleware"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/metrics"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
	MaxUploadBytes int64
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	// MetricsPath is where Prometheus metrics are served. Empty disables it.
	MetricsPath string
	// Gatherer backs MetricsPath. Nil means prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8000,
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 10 << 20,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   90 * time.Second,
		MetricsPath:    "/metrics",
	}
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
	receipts   handlers.ReceiptService
	metrics    *metrics.Metrics
}

// NewServer creates a new API server. m may be nil.
func NewServer(cfg Config, receipts handlers.ReceiptService, m *metrics.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:   cfg,
		router:   gin.New(),
		logger:   logger,
		receipts: receipts,
		metrics:  m,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())

	corsCfg := middleware.DefaultCORSConfig()
	if len(s.config.AllowedOrigins) > 0 {
		corsCfg.AllowedOrigins = s.config.AllowedOrigins
	}
	s.router.Use(middleware.CORS(corsCfg))

	s.router.Use(middleware.Logging(s.logger, "/health", s.config.MetricsPath))

	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.GET("/health", healthHandler.Get)

	if s.config.MetricsPath != "" {
		gatherer := s.config.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		s.router.GET(s.config.MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	receiptsHandler := handlers.NewReceiptsHandler(s.receipts, s.config.MaxUploadBytes, s.logger)
	v1 := s.router.Group("/api/v1/receipts")
	{
		v1.POST("/upload", receiptsHandler.Upload)
		v1.GET("/:id", receiptsHandler.Get)
		v1.POST("/:id/split", receiptsHandler.Split)
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the gin engine for testing.
func (s *Server) Router() http.Handler {
	return s.router
}

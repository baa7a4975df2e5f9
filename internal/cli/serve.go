package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/ocr"
	"github.com/eshaffer321/ticketsplit-backend/internal/api"
	"github.com/eshaffer321/ticketsplit-backend/internal/application/service"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/config"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/metrics"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/scheduler"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/storage"
)

const shutdownTimeout = 30 * time.Second

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	// Set up logging
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	if flags.Port > 0 {
		cfg.Server.Port = flags.Port
	}

	var m *metrics.Metrics
	if cfg.Observability.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
	}

	// Initialize storage
	store, err := storage.New(context.Background(), cfg.Storage, logging.NewLoggerWithSystem(loggingCfg, "storage"))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ocrLogger := logging.NewLoggerWithSystem(loggingCfg, "ocr")
	extractor, err := ocr.New(ocr.Config{
		Provider:  cfg.OCR.Provider,
		APIKey:    ocrAPIKey(cfg),
		Model:     cfg.OCR.Model,
		BaseURL:   cfg.OCR.BaseURL,
		Language:  cfg.OCR.Language,
		MaxTokens: cfg.OCR.MaxTokens,
	}, ocrLogger)
	if err != nil {
		return err
	}
	if cfg.OCR.CacheEntries > 0 {
		extractor = ocr.NewCachingExtractor(extractor, cfg.OCR.CacheEntries, ocrLogger)
	}

	svc := service.NewReceiptService(service.Config{
		Provider:          cfg.OCR.Provider,
		MaxImageDimension: cfg.OCR.MaxImageDimension,
	}, extractor, store, m, logging.NewLoggerWithSystem(loggingCfg, "receipts"))

	janitor := scheduler.NewJanitor(store, cfg.Storage.TTL, cfg.Storage.SweepInterval, m,
		logging.NewLoggerWithSystem(loggingCfg, "janitor"))
	janitor.Start()
	defer janitor.Stop()

	apiCfg := api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}
	if m != nil {
		apiCfg.MetricsPath = cfg.Observability.Metrics.Path
	}

	server := api.NewServer(apiCfg, svc, m, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("configuration loaded",
		"environment", cfg.Environment,
		"ocr_provider", cfg.OCR.Provider,
		"storage", cfg.Storage.Driver,
		"ttl", cfg.Storage.TTL)

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}

func ocrAPIKey(cfg *config.Config) string {
	if cfg.OCR.Provider == ocr.ProviderOpenAI {
		return cfg.GetAPIKey(cfg.OCR.APIKey, "OPENAI_API_KEY")
	}
	return cfg.GetAPIKey(cfg.OCR.APIKey, "ANTHROPIC_API_KEY")
}

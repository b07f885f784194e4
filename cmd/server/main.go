package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/cryptotax/internal/adapter/http"
	"github.com/iho/cryptotax/internal/adapter/http/handler"
	"github.com/iho/cryptotax/internal/adapter/ledgercsv"
	"github.com/iho/cryptotax/internal/adapter/valuation"
	"github.com/iho/cryptotax/internal/infrastructure/config"
	"github.com/iho/cryptotax/internal/infrastructure/logger"
	"github.com/iho/cryptotax/internal/infrastructure/metrics"
	"github.com/iho/cryptotax/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	opts, err := cfg.Options()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid tax options")
	}

	m := metrics.New()

	// The server has no standing price source. Requests carry their
	// own price tables; a shared valuer can be plugged in here later.
	valuer := newValuer(cfg, valuation.NewTableValuer(), log, m)

	reportHandler := handler.NewReportHandler(opts, valuer, ledgercsv.NewULIDGenerator(), m, log)
	healthHandler := handler.NewHealthHandler()

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		ReportHandler: reportHandler,
		HealthHandler: healthHandler,
		Metrics:       m,
		Logger:        log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// newValuer stacks the shared price source with retry and caching.
func newValuer(cfg *config.Config, source usecase.Valuer, log zerolog.Logger, m *metrics.Metrics) usecase.Valuer {
	retrying := valuation.NewRetryingValuer(source, log).
		WithRetrySettings(cfg.PriceRetryMax, cfg.PriceRetryInterval, cfg.PriceRetryMaxInterval, cfg.PriceRetryMaxElapsed)

	return valuation.NewCachingValuer(retrying, m)
}

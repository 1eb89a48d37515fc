package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rxguard/rxguard/internal/config"
	"github.com/rxguard/rxguard/internal/domain/graph"
	"github.com/rxguard/rxguard/internal/domain/ledger"
	"github.com/rxguard/rxguard/internal/domain/prescription"
	"github.com/rxguard/rxguard/internal/domain/screening"
	"github.com/rxguard/rxguard/internal/platform/genai"
	"github.com/rxguard/rxguard/internal/platform/middleware"
	"github.com/rxguard/rxguard/internal/platform/validation"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "rxguard-server",
		Short: "Prescription safety analysis API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the analysis API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// healthResponse builds the /health payload. The graph field reports whether
// prescription history is backed by the graph database or the in-memory
// fallback.
func healthResponse(graphMode string) map[string]string {
	return map[string]string{
		"status":  "ok",
		"version": version,
		"graph":   graphMode,
	}
}

// rateLimitSettings maps config values onto the middleware config, falling
// back to defaults when the configured rate is unusable.
func rateLimitSettings(rps float64, burst int) middleware.RateLimitConfig {
	cfg := middleware.RateLimitConfig{
		RequestsPerSecond: rps,
		BurstSize:         burst,
	}
	if cfg.RequestsPerSecond <= 0 || cfg.BurstSize <= 0 {
		return middleware.DefaultRateLimitConfig()
	}
	return cfg
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Stores. The graph store falls back to a degraded in-memory mode when
	// the graph database is not configured or unreachable.
	ctx := context.Background()
	results := prescription.NewMemoryResultStore()
	ledgerStore := ledger.NewMemoryStore(time.Duration(cfg.LedgerWriteDelayMS) * time.Millisecond)
	graphStore := graph.Connect(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword, logger)
	defer func() {
		if err := graphStore.Close(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("failed to close graph store")
		}
	}()

	// Analysis pipeline
	model := genai.NewClient(cfg.GeminiBaseURL, cfg.GeminiAPIKey, cfg.GeminiModel,
		time.Duration(cfg.GeminiTimeoutSeconds)*time.Second)
	analyzer := screening.NewService(model)

	svc := prescription.NewService(results, ledgerStore, graphStore, analyzer, logger)
	handler := prescription.NewHandler(svc)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.New()

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.AnalysisBodyLimit))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, healthResponse(svc.GraphMode()))
	})

	// API group
	apiV1 := e.Group("/api/v1")
	apiV1.Use(middleware.RateLimit(rateLimitSettings(cfg.RateLimitRPS, cfg.RateLimitBurst)))
	handler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("graph", svc.GraphMode()).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookshelf-recommend-api/internal/config"
	"github.com/bookshelf-recommend-api/internal/handlers"
	"github.com/bookshelf-recommend-api/internal/logger"
	"github.com/bookshelf-recommend-api/internal/metrics"
	"github.com/bookshelf-recommend-api/internal/middleware"
	"github.com/bookshelf-recommend-api/internal/repository"
	"github.com/bookshelf-recommend-api/internal/repository/artifacts"
	"github.com/bookshelf-recommend-api/internal/repository/postgres"
	"github.com/bookshelf-recommend-api/internal/services"
	"github.com/bookshelf-recommend-api/pkg/schema/db"
	"github.com/bookshelf-recommend-api/internal/translation"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	// Load .env file if present
	_ = godotenv.Load()

	// Get configuration
	cfg := config.GetConfig()
	logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// Create corpus repository based on configuration
	var corpusRepo repository.CorpusRepository
	switch cfg.CorpusBackend {
	case "postgres":
		log.Info("Using PostgreSQL corpus backend")
		if err := db.InitPostgres(ctx, cfg.PostgresURI); err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		corpusRepo = postgres.NewCorpusRepository(db.GetPostgres())
	case "artifacts":
		log.WithField("base_url", cfg.Artifacts.BaseURL).Info("Using artifact corpus backend")
		corpusRepo = artifacts.NewRepository(
			artifacts.NewFetcher(cfg.Artifacts.BaseURL),
			artifacts.Names{
				Vectorizer: cfg.Artifacts.Vectorizer,
				Features:   cfg.Artifacts.Features,
				Similarity: cfg.Artifacts.Similarity,
				Metadata:   cfg.Artifacts.Metadata,
			},
			cfg.Artifacts.Timeout,
		)
	default:
		log.Fatalf("Unknown CORPUS_BACKEND %q", cfg.CorpusBackend)
	}

	// The service never starts without a complete corpus
	store, err := corpusRepo.LoadCorpus(ctx)
	if err != nil {
		log.Fatalf("Failed to load corpus: %v", err)
	}
	metrics.CorpusRecords.Set(float64(store.Len()))

	// Create services
	normalizer, err := translation.NewFromConfig(ctx, cfg.Translation)
	if err != nil {
		log.Fatalf("Failed to initialize translation: %v", err)
	}

	scorer, err := services.NewScorer(cfg.Scorer.PoolSize, cfg.Scorer.ChunkRows)
	if err != nil {
		log.Fatalf("Failed to initialize scorer: %v", err)
	}

	recommendSvc := services.NewRecommendService(store, normalizer, scorer, services.PolicyFromConfig(cfg.Ranking))

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()
	e.HTTPErrorHandler = handlers.ErrorHandler(cfg.APIPrefix, e.DefaultHTTPErrorHandler)

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.PrometheusMetrics())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	// Create API group with prefix
	api := e.Group(cfg.APIPrefix)

	// Register handlers
	handlers.NewHealthHandler(store, cfg.CorpusBackend).RegisterRoutes(api)
	handlers.NewRecommendHandler(recommendSvc).RegisterRoutes(api)
	handlers.NewBooksHandler(recommendSvc).RegisterRoutes(api)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Root health check
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"name":    cfg.APITitle,
			"version": cfg.APIVersion,
			"status":  "running",
		})
	})

	// Start server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.Infof("Starting %s v%s on %s", cfg.APITitle, cfg.APIVersion, addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Server stopped: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Error shutting down server: %v", err)
	}

	scorer.Release()

	if err := normalizer.Close(); err != nil {
		log.Errorf("Error closing translation: %v", err)
	}

	if err := db.ClosePostgres(); err != nil {
		log.Errorf("Error closing PostgreSQL: %v", err)
	}

	log.Info("Server stopped")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/profile-extractor/internal/adapter/anthropic_client"
	"github.com/user/profile-extractor/internal/adapter/chromedp_crawler"
	"github.com/user/profile-extractor/internal/adapter/postgres"
	redis_adapter "github.com/user/profile-extractor/internal/adapter/redis"
	"github.com/user/profile-extractor/internal/adapter/robots"
	"github.com/user/profile-extractor/internal/delivery/http/handler"
	"github.com/user/profile-extractor/internal/delivery/http/request"
	"github.com/user/profile-extractor/internal/delivery/http/router"
	"github.com/user/profile-extractor/internal/usecase"
	"github.com/user/profile-extractor/pkg/config"
	"github.com/user/profile-extractor/pkg/logger"
)

const (
	robotsCacheTTL  = time.Hour
	eventHistoryTTL = 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("could not load config", zap.Error(err))
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		bootstrap, _ := zap.NewProduction()
		bootstrap.Fatal("could not create logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()
	healthChecks := make(map[string]handler.HealthCheck)

	// --- Storage (optional) ---
	var profiles usecase.ProfileManager
	if cfg.PostgresURL != "" {
		dbpool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatal("unable to connect to database", zap.Error(err))
		}
		defer dbpool.Close()

		profileRepo := postgres.NewProfileRepo(dbpool)
		if err := profileRepo.EnsureSchema(ctx); err != nil {
			log.Fatal("unable to prepare database schema", zap.Error(err))
		}
		profiles = usecase.NewProfileManager(profileRepo, log)
		healthChecks["postgres"] = dbpool.Ping
		log.Info("PostgreSQL connection pool established")
	}

	var events *redis_adapter.EventPublisherImpl
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("unable to connect to Redis", zap.Error(err))
		}
		events = redis_adapter.NewEventPublisher(rdb, eventHistoryTTL)
		healthChecks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		log.Info("Redis connection established")
	}

	// --- Pipeline ---
	extractor, err := anthropic_client.NewClient(anthropic_client.Options{
		APIKey:         cfg.AnthropicAPIKey,
		BaseURL:        cfg.AnthropicBaseURL,
		Model:          cfg.AnthropicModel,
		MaxTokens:      cfg.AnthropicMaxTokens,
		Timeout:        cfg.AnthropicTimeout,
		MaxCorpusChars: cfg.MaxCorpusChars,
	}, log)
	if err != nil {
		log.Fatal("could not create extraction client", zap.Error(err))
	}

	orchestrator := usecase.NewOrchestrator(
		chromedp_crawler.NewLauncher(cfg.BrowserHeadless, log),
		extractor,
		robots.NewPolicy(nil, robotsCacheTTL, log),
		usecase.OrchestratorConfig{
			BatchSize:        cfg.CrawlBatchSize,
			BatchPause:       cfg.CrawlBatchPause,
			MaxPages:         cfg.CrawlMaxPages,
			SettleDelay:      cfg.PageSettleDelay,
			UserAgent:        cfg.UserAgent,
			ExtractionMethod: extractor.Model(),
		},
		log,
	)

	// --- HTTP Server ---
	hcfg := handler.Config{
		Analyzer: orchestrator,
		Profiles: profiles,
		Defaults: request.Defaults{
			MaxDepth:  cfg.CrawlMaxDepth,
			Timeout:   cfg.PageLoadTimeout,
			UserAgent: cfg.UserAgent,
		},
		HealthChecks: healthChecks,
		Logger:       log,
	}
	// A typed nil would defeat the handler's nil checks.
	if events != nil {
		hcfg.Events = events
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router.New(handler.NewHandler(hcfg), log),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		// No WriteTimeout: analysis streams stay open for the whole run.
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("could not start server", zap.Error(err))
		}
	}()
	log.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exiting")
}

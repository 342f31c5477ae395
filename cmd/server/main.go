package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/submission-ticker-api/internal/api"
	"github.com/submission-ticker-api/internal/cache"
	"github.com/submission-ticker-api/internal/config"
	"github.com/submission-ticker-api/internal/database"
	"github.com/submission-ticker-api/internal/repository"
	"github.com/submission-ticker-api/internal/schema"
	"github.com/submission-ticker-api/internal/service"
	"github.com/submission-ticker-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New(logger.Options{})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info().Msg("Starting submission ticker API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if cfg.Database.RunMigrations {
		if err := db.RunMigrations(); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
	}

	// Schema manager covers databases created outside the migration history
	schemaManager := schema.NewManager(db, log)
	schemaManager.EnsureAll(context.Background())

	// Initialize repositories
	repos := repository.New(db, schemaManager)

	// Initialize services
	opts := []service.Option{}
	if cfg.Cache.Enabled() {
		rdb, err := cache.NewClient(context.Background(), &cfg.Cache)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, serving the ticker feed uncached")
		} else {
			defer rdb.Close()
			opts = append(opts, service.WithFeedCache(cache.NewFeedCache(rdb, cfg.Cache.TTL, log)))
			log.Info().Str("addr", cfg.Cache.Addr).Msg("Ticker feed cache enabled")
		}
	}
	services := service.NewServices(repos, log, opts...)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(services, db, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

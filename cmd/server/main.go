package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/contest-notifier/internal/aggregator"
	"github.com/contest-notifier/internal/cache"
	"github.com/contest-notifier/internal/cleanup"
	"github.com/contest-notifier/internal/config"
	"github.com/contest-notifier/internal/handlers"
	"github.com/contest-notifier/internal/query"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/internal/scraper/atcoder"
	"github.com/contest-notifier/internal/scraper/codechef"
	"github.com/contest-notifier/internal/scraper/codeforces"
	"github.com/contest-notifier/internal/scraper/codingninjas"
	"github.com/contest-notifier/internal/scraper/gfg"
	"github.com/contest-notifier/internal/scraper/leetcode"
	"github.com/contest-notifier/internal/storage"
	"github.com/contest-notifier/internal/storage/sqlite"
	"github.com/contest-notifier/pkg/logger"
	"github.com/contest-notifier/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "contest-server",
		Short: "Contest aggregation API server",
		Long: `Serves aggregated programming contest schedules over HTTP and keeps
them fresh with a background scrape schedule. With the database enabled
it also persists contests and runs a nightly cleanup.`,
		RunE: runServer,
	}

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file path")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	log.Info().Msg("Starting Contest Notifier server")

	// Initialize rate limiter
	limiter := ratelimit.NewDefaultLimiter()

	// Register the platform scrapers
	manager := scraper.NewManager()
	manager.Register(codeforces.New(cfg.Scraper, limiter, log))
	manager.Register(leetcode.New(cfg.Scraper, limiter, log))
	manager.Register(atcoder.New(cfg.Scraper, limiter, log))
	manager.Register(codechef.New(cfg.Scraper, limiter, log))
	manager.Register(gfg.New(cfg.Scraper, limiter, log))
	manager.Register(codingninjas.New(cfg.Scraper, limiter, log))

	// Aggregation cache
	contestCache := cache.New(manager, cfg.Cache.TTLDuration(), log)

	// Optional persistent store
	var repo storage.Repository
	var cleanupSvc *cleanup.Service
	if cfg.Database.Enabled {
		log.Info().Str("dsn", cfg.Database.DSN).Msg("Persistent store enabled")
		sqliteRepo, err := sqlite.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer sqliteRepo.Close()

		if err := sqliteRepo.Migrate(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		repo = sqliteRepo
		cleanupSvc = cleanup.New(repo, cfg.Cleanup.RetentionDays, log)
	} else {
		log.Info().Msg("Running cache-only, persistent store disabled")
	}

	// Services
	agg := aggregator.New(contestCache, repo, log)
	queryService := query.New(contestCache, log)

	// HTTP surface
	handler := handlers.New(queryService, manager, agg, cleanupSvc, repo, log)
	router := handlers.NewRouter(handler, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Create cron scheduler; SkipIfStillRunning keeps a slow scrape cycle
	// from overlapping with the next tick
	cl := cronLogger{log}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.SkipIfStillRunning(cl)),
	)

	// Schedule scrape job
	_, err = c.AddFunc(cfg.Scheduler.ScrapeCron, func() {
		ctx := context.Background()
		log.Info().Msg("Running scheduled scrape")

		result := agg.Run(ctx)

		log.Info().
			Int("contests", result.Total).
			Int("succeeded", result.Succeeded).
			Int("failed", result.Failed).
			Msg("Scheduled scrape completed")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule scrape job: %w", err)
	}
	log.Info().Str("cron", cfg.Scheduler.ScrapeCron).Msg("Scrape job scheduled")

	// Schedule cleanup job when the store is enabled
	if cleanupSvc != nil {
		_, err = c.AddFunc(cfg.Scheduler.CleanupCron, func() {
			ctx := context.Background()
			log.Info().Msg("Running scheduled cleanup")

			result := cleanupSvc.FullCleanup(ctx)
			if !result.Success {
				log.Error().Str("error", result.Error).Msg("Scheduled cleanup failed")
				return
			}

			log.Info().
				Int64("duplicates_removed", result.DuplicatesRemoved).
				Int64("deleted", result.Deleted).
				Msg("Scheduled cleanup completed")
		})
		if err != nil {
			return fmt.Errorf("failed to schedule cleanup job: %w", err)
		}
		log.Info().Str("cron", cfg.Scheduler.CleanupCron).Msg("Cleanup job scheduled")
	}

	// Warm the cache before accepting traffic so the first request
	// doesn't pay the full fan-out latency
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		agg.Run(ctx)
	}()

	c.Start()

	// Start HTTP server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("Shutting down")
	c.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	return nil
}

// cronLogger adapts our logger for cron
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Msgf(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Msgf(msg, keysAndValues...)
}

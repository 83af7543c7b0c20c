package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/contest-notifier/internal/cache"
	"github.com/contest-notifier/internal/cleanup"
	"github.com/contest-notifier/internal/config"
	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/query"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/internal/scraper/atcoder"
	"github.com/contest-notifier/internal/scraper/codechef"
	"github.com/contest-notifier/internal/scraper/codeforces"
	"github.com/contest-notifier/internal/scraper/codingninjas"
	"github.com/contest-notifier/internal/scraper/gfg"
	"github.com/contest-notifier/internal/scraper/leetcode"
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
		Use:   "contest-cli",
		Short: "Contest schedule aggregator",
		Long: `Scrapes programming contest schedules from Codeforces, LeetCode,
AtCoder, CodeChef, GeeksforGeeks and CodingNinjas and prints them
in a normalized form.`,
		PersistentPreRunE: initializeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(contestsCmd())
	rootCmd.AddCommand(cleanupCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	return nil
}

// newManager builds the scraper manager with every platform registered
func newManager() *scraper.Manager {
	limiter := ratelimit.NewDefaultLimiter()

	manager := scraper.NewManager()
	manager.Register(codeforces.New(cfg.Scraper, limiter, log))
	manager.Register(leetcode.New(cfg.Scraper, limiter, log))
	manager.Register(atcoder.New(cfg.Scraper, limiter, log))
	manager.Register(codechef.New(cfg.Scraper, limiter, log))
	manager.Register(gfg.New(cfg.Scraper, limiter, log))
	manager.Register(codingninjas.New(cfg.Scraper, limiter, log))
	return manager
}

// newQueryService builds a query service over a fresh aggregation cache
func newQueryService() *query.Service {
	contestCache := cache.New(newManager(), cfg.Cache.TTLDuration(), log)
	return query.New(contestCache, log)
}

// printContests renders contests as an aligned table
func printContests(contests []models.Contest) {
	if len(contests) == 0 {
		fmt.Println("No contests found.")
		return
	}

	for _, c := range contests {
		fmt.Printf("[%-12s] %-8s %s\n", c.Platform, c.Status, c.Name)
		fmt.Printf("               starts %s, %d min\n", c.StartTime.Format("2006-01-02 15:04 MST"), c.Duration)
		fmt.Printf("               %s\n", c.URL)
	}
	fmt.Printf("\n%d contest(s)\n", len(contests))
}

// ============ SCRAPE COMMANDS ============

func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scraping commands",
	}

	cmd.AddCommand(scrapeRunCmd())
	return cmd
}

func scrapeRunCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scrapers and print what each platform returned",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			manager := newManager()

			var results []scraper.Result

			if platform != "" {
				platform = strings.ToLower(platform)
				if !models.ValidPlatform(platform) {
					return fmt.Errorf("unknown platform %q", platform)
				}
				s := manager.Get(models.Platform(platform))
				if s == nil {
					return fmt.Errorf("no scraper registered for %q", platform)
				}
				contests, err := s.Scrape(ctx)
				results = []scraper.Result{{Platform: s.Platform(), Contests: contests, Err: err}}
			} else {
				results = manager.ScrapeAll(ctx)
			}

			// Print results
			fmt.Printf("\n=== Scrape Results ===\n")
			total := 0
			for _, r := range results {
				if r.Err != nil {
					fmt.Printf("%-12s FAILED: %s\n", r.Platform, r.Err)
					continue
				}
				fmt.Printf("%-12s %d contest(s)\n", r.Platform, len(r.Contests))
				total += len(r.Contests)
			}
			fmt.Printf("Total:       %d\n", total)

			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Scrape a single platform only")
	return cmd
}

// ============ CONTESTS COMMANDS ============

func contestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contests",
		Short: "Query aggregated contests",
	}

	cmd.AddCommand(contestsListCmd())
	cmd.AddCommand(contestsLiveCmd())
	cmd.AddCommand(contestsUpcomingCmd())
	cmd.AddCommand(contestsPlatformsCmd())
	cmd.AddCommand(contestsStatsCmd())
	return cmd
}

func contestsListCmd() *cobra.Command {
	var platform, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List aggregated contests",
		RunE: func(cmd *cobra.Command, args []string) error {
			contests := newQueryService().ListAll(context.Background(), query.Filter{
				Platform: platform,
				Status:   status,
				Limit:    limit,
			})
			printContests(contests)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status: upcoming, live or ended")
	cmd.Flags().IntVar(&limit, "limit", query.DefaultLimit, "Maximum number of contests")
	return cmd
}

func contestsLiveCmd() *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "live",
		Short: "List contests running right now",
		RunE: func(cmd *cobra.Command, args []string) error {
			contests := newQueryService().ListLive(context.Background(), platform)
			printContests(contests)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")
	return cmd
}

func contestsUpcomingCmd() *cobra.Command {
	var platform, rng string

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming contests",
		RunE: func(cmd *cobra.Command, args []string) error {
			contests := newQueryService().ListUpcoming(context.Background(), query.Range(rng), platform)
			printContests(contests)
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Filter by platform")
	cmd.Flags().StringVar(&rng, "range", "", "Limit to the next week or month")
	return cmd
}

func contestsPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List platforms with aggregated contests",
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms := newQueryService().Platforms(context.Background())
			for _, p := range platforms {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func contestsStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarize the aggregated contest set",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, byPlatform := newQueryService().Stats(context.Background())

			fmt.Printf("\n=== Contest Stats ===\n")
			fmt.Printf("Total:    %d\n", stats.Total)
			fmt.Printf("Upcoming: %d\n", stats.Upcoming)
			fmt.Printf("Live:     %d\n", stats.Live)
			fmt.Printf("Ended:    %d\n", stats.Ended)

			fmt.Printf("\nBy platform:\n")
			for platform, count := range byPlatform {
				fmt.Printf("  %-12s %d\n", platform, count)
			}

			return nil
		},
	}
}

// ============ CLEANUP COMMANDS ============

func cleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Persistent store maintenance commands",
	}

	cmd.AddCommand(cleanupRunCmd())
	return cmd
}

func cleanupRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Remove duplicates, mark ended contests and purge old records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.Database.Enabled {
				return fmt.Errorf("database is not enabled; set CONTEST_DATABASE_ENABLED=true")
			}

			repo, err := sqlite.New(cfg.Database.DSN)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer repo.Close()

			if err := repo.Migrate(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			result := cleanup.New(repo, cfg.Cleanup.RetentionDays, log).FullCleanup(ctx)

			fmt.Printf("\n=== Cleanup Results ===\n")
			fmt.Printf("Duplicates Removed: %d\n", result.DuplicatesRemoved)
			fmt.Printf("Marked As Ended:    %d\n", result.MarkedEnded)
			fmt.Printf("Deleted:            %d\n", result.Deleted)
			if result.Stats != nil {
				fmt.Printf("Remaining:          %d\n", result.Stats.Total)
			}
			if !result.Success {
				return fmt.Errorf("cleanup failed: %s", result.Error)
			}

			return nil
		},
	}
}

package aggregator

import (
	"context"
	"time"

	"github.com/contest-notifier/internal/cache"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/internal/storage"
	"github.com/contest-notifier/pkg/logger"
)

// Service runs a full scrape cycle: refresh the aggregation cache and,
// when a repository is configured, upsert the merged snapshot into it.
// Both the cron scheduler and the manual trigger endpoint go through here.
type Service struct {
	cache *cache.Cache
	repo  storage.Repository // nil in cache-only deployments
	log   *logger.Logger
}

// New creates a new aggregator service; repo may be nil
func New(c *cache.Cache, repo storage.Repository, log *logger.Logger) *Service {
	return &Service{
		cache: c,
		repo:  repo,
		log:   log.WithComponent("aggregator"),
	}
}

// PlatformOutcome reports one platform's result from a scrape cycle
type PlatformOutcome struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
}

// RunResult summarizes a scrape cycle
type RunResult struct {
	Platforms []PlatformOutcome `json:"platforms"`
	Total     int               `json:"totalContests"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Saved     int               `json:"saved,omitempty"`
	Updated   int               `json:"updated,omitempty"`
	Duration  time.Duration     `json:"-"`
}

// Run executes one scrape cycle
func (s *Service) Run(ctx context.Context) *RunResult {
	startTime := time.Now()
	result := &RunResult{}

	results := s.cache.Refresh(ctx)

	for _, r := range results {
		outcome := PlatformOutcome{
			Platform: string(r.Platform),
			Success:  r.Err == nil,
			Count:    len(r.Contests),
		}
		if r.Err != nil {
			outcome.Error = r.Err.Error()
			result.Failed++
		} else {
			result.Succeeded++
			result.Total += len(r.Contests)
		}
		result.Platforms = append(result.Platforms, outcome)
	}

	if s.repo != nil {
		merged := scraper.Merge(results)
		saved, updated, err := s.repo.UpsertContests(ctx, merged)
		if err != nil {
			// A persistence failure must not fail the cycle; the cache
			// already holds the fresh snapshot
			s.log.Error().Err(err).Msg("Failed to persist scraped contests")
		}
		result.Saved = saved
		result.Updated = updated
	}

	result.Duration = time.Since(startTime)

	s.log.Info().
		Int("contests", result.Total).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Scrape cycle completed")

	return result
}

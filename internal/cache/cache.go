package cache

import (
	"context"
	"sync"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/pkg/logger"
)

// Cache holds the merged output of all platform scrapers and refreshes it
// when the snapshot outlives its TTL. The snapshot is immutable once
// published: a refresh builds a new slice and swaps it in under the lock,
// so readers never observe a partially-updated set.
type Cache struct {
	manager *scraper.Manager
	ttl     time.Duration
	log     *logger.Logger

	mu          sync.RWMutex
	snapshot    []models.Contest
	lastRefresh time.Time
	refreshing  bool
}

// New creates a new aggregation cache
func New(manager *scraper.Manager, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		manager: manager,
		ttl:     ttl,
		log:     log.WithComponent("cache"),
	}
}

// GetAll returns the most recent merged snapshot, refreshing first if the
// cache is cold or the snapshot has outlived its TTL. Concurrent callers
// never stampede the vendors: only one performs the refresh while the rest
// keep reading the previous snapshot.
func (c *Cache) GetAll(ctx context.Context) []models.Contest {
	c.mu.Lock()
	stale := c.lastRefresh.IsZero() || time.Since(c.lastRefresh) >= c.ttl
	if stale && !c.refreshing {
		c.refreshing = true
		c.mu.Unlock()
		c.Refresh(ctx)
	} else {
		c.mu.Unlock()
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Refresh fans out to every scraper, waits for all of them to settle and
// publishes the merged result. If a majority of platforms fail, the
// previous snapshot is kept and lastRefresh is not advanced, so the next
// read retries; serving stale data beats serving a diminished set.
func (c *Cache) Refresh(ctx context.Context) []scraper.Result {
	c.mu.Lock()
	c.refreshing = true
	c.mu.Unlock()

	results := c.manager.ScrapeAll(ctx)

	succeeded := 0
	for _, r := range results {
		if r.Err != nil {
			c.log.Error().Err(r.Err).Str("platform", string(r.Platform)).Msg("Scraper failed during refresh")
			continue
		}
		succeeded++
	}

	merged := scraper.Merge(results)
	failed := len(results) - succeeded

	c.mu.Lock()
	defer c.mu.Unlock()
	c.refreshing = false

	// A cold cache has no last good snapshot to fall back on, so a partial
	// result is still published; a total failure leaves it cold instead of
	// publishing an empty set for a whole TTL window.
	if succeeded == 0 || (c.snapshot != nil && failed*2 > len(results)) {
		c.log.Warn().
			Int("platforms_failed", failed).
			Int("platforms_ok", succeeded).
			Msg("Majority of scrapers failed, keeping previous snapshot")
		return results
	}

	c.snapshot = merged
	c.lastRefresh = time.Now()

	c.log.Info().
		Int("contests", len(merged)).
		Int("platforms_ok", succeeded).
		Int("platforms_failed", len(results)-succeeded).
		Msg("Published new contest snapshot")

	return results
}

// Snapshot returns the current snapshot without triggering a refresh
func (c *Cache) Snapshot() ([]models.Contest, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot, c.lastRefresh
}

package scraper

import (
	"context"

	"github.com/contest-notifier/internal/models"
)

// Scraper defines the interface every platform adapter implements
type Scraper interface {
	// Platform returns the platform this scraper covers
	Platform() models.Platform

	// Scrape fetches the vendor's live data and returns normalized contests.
	// Implementations return an error for total fetch/parse failure; records
	// that fail validation individually are dropped, not reported.
	Scrape(ctx context.Context) ([]models.Contest, error)
}

// Result holds one platform's outcome from a fan-out scrape
type Result struct {
	Platform models.Platform  `json:"platform"`
	Contests []models.Contest `json:"data"`
	Err      error            `json:"-"`
}

// Manager manages the registered platform scrapers
type Manager struct {
	scrapers []Scraper
}

// NewManager creates a new scraper manager
func NewManager() *Manager {
	return &Manager{
		scrapers: make([]Scraper, 0, len(models.AllPlatforms)),
	}
}

// Register adds a scraper to the manager
func (m *Manager) Register(s Scraper) {
	m.scrapers = append(m.scrapers, s)
}

// Get returns the scraper for a platform, or nil if none is registered
func (m *Manager) Get(platform models.Platform) Scraper {
	for _, s := range m.scrapers {
		if s.Platform() == platform {
			return s
		}
	}
	return nil
}

// Platforms returns the platforms with a registered scraper, in registration order
func (m *Manager) Platforms() []models.Platform {
	platforms := make([]models.Platform, 0, len(m.scrapers))
	for _, s := range m.scrapers {
		platforms = append(platforms, s.Platform())
	}
	return platforms
}

// ScrapeAll runs every registered scraper concurrently and waits for all of
// them to settle. A failing scraper contributes an empty result with its
// error attached; it never blocks or fails the other platforms.
func (m *Manager) ScrapeAll(ctx context.Context) []Result {
	results := make([]Result, len(m.scrapers))
	done := make(chan int, len(m.scrapers))

	for i, s := range m.scrapers {
		go func(i int, s Scraper) {
			contests, err := s.Scrape(ctx)
			results[i] = Result{Platform: s.Platform(), Contests: contests, Err: err}
			done <- i
		}(i, s)
	}

	for range m.scrapers {
		<-done
	}

	return results
}

// Merge flattens fan-out results into a single contest list, skipping
// failed platforms
func Merge(results []Result) []models.Contest {
	var merged []models.Contest
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		merged = append(merged, r.Contests...)
	}
	return merged
}

package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/contest-notifier/internal/config"
	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/pkg/logger"
	"github.com/contest-notifier/pkg/ratelimit"
)

const (
	baseURL = "https://codeforces.com/contest/"
	apiURL  = "https://codeforces.com/api/contest.list"

	defaultName     = "Codeforces contest"
	defaultDuration = 120 // minutes
)

// apiResponse is the envelope returned by the Codeforces REST API
type apiResponse struct {
	Status string       `json:"status"`
	Result []apiContest `json:"result"`
}

type apiContest struct {
	ID               int    `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Phase            string `json:"phase"`
	DurationSeconds  int64  `json:"durationSeconds"`
	StartTimeSeconds int64  `json:"startTimeSeconds"`
}

// Scraper implements scraper.Scraper for Codeforces
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new Codeforces scraper
func New(cfg config.ScraperConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		log:       log.WithPlatform(string(models.PlatformCodeforces)),
	}
}

// Platform returns codeforces
func (s *Scraper) Platform() models.Platform {
	return models.PlatformCodeforces
}

// Scrape fetches the contest list and returns upcoming/live contests
func (s *Scraper) Scrape(ctx context.Context) ([]models.Contest, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("codeforces fetch: %w", err)
	}

	contests := parse(raw, s.log)
	s.log.Info().Int("count", len(contests)).Msg("Scraped Codeforces contests")
	return contests, nil
}

func (s *Scraper) fetch(ctx context.Context) ([]apiContest, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterCodeforces); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request contest list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("codeforces returned %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != "OK" {
		return nil, fmt.Errorf("codeforces API status %q", body.Status)
	}

	return body.Result, nil
}

// parse keeps only BEFORE/CODING phases. The vendor phase field is
// authoritative for status; time comparison is not used here.
func parse(raw []apiContest, log *logger.Logger) []models.Contest {
	contests := make([]models.Contest, 0, len(raw))

	for _, element := range raw {
		if element.Phase != "BEFORE" && element.Phase != "CODING" {
			continue
		}

		// Unscheduled contests carry no start time
		if element.StartTimeSeconds == 0 {
			log.Debug().Str("name", element.Name).Msg("Skipping contest without start time")
			continue
		}

		name := element.Name
		if name == "" {
			name = defaultName
		}

		duration := int(element.DurationSeconds / 60)
		if duration == 0 {
			duration = defaultDuration
		}

		start := time.Unix(element.StartTimeSeconds, 0).UTC()
		end := start.Add(time.Duration(duration) * time.Minute)

		status := models.StatusUpcoming
		if element.Phase == "CODING" {
			status = models.StatusLive
		}

		contestType := element.Type
		if contestType == "" {
			contestType = "Programming Contest"
		}

		contest := models.Contest{
			Name:                 name,
			Platform:             models.PlatformCodeforces,
			URL:                  fmt.Sprintf("%s%d", baseURL, element.ID),
			StartTime:            start,
			EndTime:              end,
			Duration:             duration,
			Status:               status,
			Description:          fmt.Sprintf("Codeforces contest - %s", contestType),
			RegistrationRequired: true,
		}

		if err := contest.Validate(); err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Dropping malformed contest")
			continue
		}

		contests = append(contests, contest)
	}

	return contests
}

// Ensure Scraper implements scraper.Scraper
var _ scraper.Scraper = (*Scraper)(nil)

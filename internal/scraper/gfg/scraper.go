package gfg

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
	baseURL = "https://practice.geeksforgeeks.org/contest/"
	apiURL  = "https://practiceapi.geeksforgeeks.org/api/vr/events/?page_number=1&sub_type=all&type=contest"

	defaultName     = "GeeksforGeeks contest"
	defaultDuration = 120 // minutes

	// GFG publishes wall-clock IST timestamps with no zone marker
	istOffset = 5*time.Hour + 30*time.Minute
)

// timeLayouts covers the formats the events API has been seen returning
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

type apiResponse struct {
	Results struct {
		Upcoming []apiContest `json:"upcoming"`
	} `json:"results"`
}

type apiContest struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// Scraper implements scraper.Scraper for GeeksforGeeks
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new GeeksforGeeks scraper
func New(cfg config.ScraperConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		log:       log.WithPlatform(string(models.PlatformGFG)),
	}
}

// Platform returns gfg
func (s *Scraper) Platform() models.Platform {
	return models.PlatformGFG
}

// Scrape fetches upcoming events and keeps the upcoming/live ones
func (s *Scraper) Scrape(ctx context.Context) ([]models.Contest, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("gfg fetch: %w", err)
	}

	contests := parse(raw, time.Now().UTC(), s.log)
	s.log.Info().Int("count", len(contests)).Msg("Scraped GeeksforGeeks contests")
	return contests, nil
}

func (s *Scraper) fetch(ctx context.Context) ([]apiContest, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterGFG); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gfg returned %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return body.Results.Upcoming, nil
}

// parse shifts the IST timestamps back to UTC and classifies by time
// comparison, keeping only upcoming and live contests
func parse(raw []apiContest, now time.Time, log *logger.Logger) []models.Contest {
	contests := make([]models.Contest, 0, len(raw))

	for _, element := range raw {
		start, err := parseISTTime(element.StartTime)
		if err != nil {
			log.Debug().Err(err).Str("slug", element.Slug).Msg("Skipping contest with unparsable start")
			continue
		}
		end, err := parseISTTime(element.EndTime)
		if err != nil {
			log.Debug().Err(err).Str("slug", element.Slug).Msg("Skipping contest with unparsable end")
			continue
		}

		name := element.Name
		if name == "" {
			name = defaultName
		}

		duration := int(end.Sub(start) / time.Minute)
		if duration < 0 {
			duration = -duration
		}
		if duration == 0 {
			duration = defaultDuration
		}

		status := models.ClassifyStatus(start, end, now)
		if status == models.StatusEnded {
			continue
		}

		contest := models.Contest{
			Name:                 name,
			Platform:             models.PlatformGFG,
			URL:                  baseURL + element.Slug,
			StartTime:            start,
			EndTime:              end,
			Duration:             duration,
			Status:               status,
			Description:          "GeeksforGeeks Programming Contest",
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

// parseISTTime parses a vendor timestamp and shifts it from IST to UTC
func parseISTTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Add(-istOffset).UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}

// Ensure Scraper implements scraper.Scraper
var _ scraper.Scraper = (*Scraper)(nil)

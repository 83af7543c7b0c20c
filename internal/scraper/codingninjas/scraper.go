package codingninjas

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
	baseURL = "https://www.naukri.com/code360/contests/"
	apiURL  = "https://api.codingninjas.com/api/v4/public_section/contest_list"

	defaultName     = "CodingNinjas contest"
	defaultDuration = 120 // minutes
)

type apiResponse struct {
	Data struct {
		Events []apiContest `json:"events"`
	} `json:"data"`
}

type apiContest struct {
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	EventStartTime int64  `json:"event_start_time"` // epoch seconds
	EventEndTime   int64  `json:"event_end_time"`   // epoch seconds
}

// Scraper implements scraper.Scraper for CodingNinjas
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new CodingNinjas scraper
func New(cfg config.ScraperConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		log:       log.WithPlatform(string(models.PlatformCodingNinjas)),
	}
}

// Platform returns codingninjas
func (s *Scraper) Platform() models.Platform {
	return models.PlatformCodingNinjas
}

// Scrape fetches the public contest list and keeps the upcoming/live ones
func (s *Scraper) Scrape(ctx context.Context) ([]models.Contest, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("codingninjas fetch: %w", err)
	}

	contests := parse(raw, time.Now().UTC(), s.log)
	s.log.Info().Int("count", len(contests)).Msg("Scraped CodingNinjas contests")
	return contests, nil
}

func (s *Scraper) fetch(ctx context.Context) ([]apiContest, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterCodingNinjas); err != nil {
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
		return nil, fmt.Errorf("codingninjas returned %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return body.Data.Events, nil
}

// parse converts epoch-second events, classifying status by time comparison
// and keeping only upcoming and live contests
func parse(raw []apiContest, now time.Time, log *logger.Logger) []models.Contest {
	contests := make([]models.Contest, 0, len(raw))

	for _, element := range raw {
		if element.EventStartTime == 0 || element.EventEndTime == 0 {
			log.Debug().Str("slug", element.Slug).Msg("Skipping event without timestamps")
			continue
		}

		name := element.Name
		if name == "" {
			name = defaultName
		}

		start := time.Unix(element.EventStartTime, 0).UTC()
		end := time.Unix(element.EventEndTime, 0).UTC()

		duration := int(end.Sub(start) / time.Minute)
		if duration == 0 {
			duration = defaultDuration
			end = start.Add(time.Duration(duration) * time.Minute)
		}

		status := models.ClassifyStatus(start, end, now)
		if status == models.StatusEnded {
			continue
		}

		contest := models.Contest{
			Name:                 name,
			Platform:             models.PlatformCodingNinjas,
			URL:                  baseURL + element.Slug,
			StartTime:            start,
			EndTime:              end,
			Duration:             duration,
			Status:               status,
			Description:          "CodingNinjas Programming Contest",
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

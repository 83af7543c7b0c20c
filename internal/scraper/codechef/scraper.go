package codechef

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
	baseURL = "https://www.codechef.com/"
	apiURL  = "https://www.codechef.com/api/list/contests/all?sort_by=START&sorting_order=asc&offset=0&mode=all"

	defaultName     = "CodeChef contest"
	defaultDuration = 120 // minutes
)

type apiResponse struct {
	PresentContests []apiContest `json:"present_contests"`
	FutureContests  []apiContest `json:"future_contests"`
}

type apiContest struct {
	ContestCode         string `json:"contest_code"`
	ContestName         string `json:"contest_name"`
	ContestStartDateISO string `json:"contest_start_date_iso"`
	ContestEndDateISO   string `json:"contest_end_date_iso"`
}

// Scraper implements scraper.Scraper for CodeChef
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new CodeChef scraper
func New(cfg config.ScraperConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		log:       log.WithPlatform(string(models.PlatformCodeChef)),
	}
}

// Platform returns codechef
func (s *Scraper) Platform() models.Platform {
	return models.PlatformCodeChef
}

// Scrape fetches present and future contests and keeps the upcoming/live ones
func (s *Scraper) Scrape(ctx context.Context) ([]models.Contest, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("codechef fetch: %w", err)
	}

	contests := parse(raw, time.Now().UTC(), s.log)
	s.log.Info().Int("count", len(contests)).Msg("Scraped CodeChef contests")
	return contests, nil
}

func (s *Scraper) fetch(ctx context.Context) ([]apiContest, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterCodeChef); err != nil {
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
		return nil, fmt.Errorf("codechef returned %s", resp.Status)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	// Present contests first so live ones survive later dedup
	merged := make([]apiContest, 0, len(body.PresentContests)+len(body.FutureContests))
	merged = append(merged, body.PresentContests...)
	merged = append(merged, body.FutureContests...)
	return merged, nil
}

// parse converts raw entries, classifying status by time comparison and
// keeping only upcoming and live contests
func parse(raw []apiContest, now time.Time, log *logger.Logger) []models.Contest {
	contests := make([]models.Contest, 0, len(raw))

	for _, element := range raw {
		start, err := time.Parse(time.RFC3339, element.ContestStartDateISO)
		if err != nil {
			log.Debug().Err(err).Str("code", element.ContestCode).Msg("Skipping contest with unparsable start")
			continue
		}
		end, err := time.Parse(time.RFC3339, element.ContestEndDateISO)
		if err != nil {
			log.Debug().Err(err).Str("code", element.ContestCode).Msg("Skipping contest with unparsable end")
			continue
		}
		start, end = start.UTC(), end.UTC()

		name := element.ContestName
		if name == "" {
			name = defaultName
		}

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
			Platform:             models.PlatformCodeChef,
			URL:                  baseURL + element.ContestCode,
			StartTime:            start,
			EndTime:              end,
			Duration:             duration,
			Status:               status,
			Description:          fmt.Sprintf("CodeChef Programming Contest - %s", element.ContestCode),
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

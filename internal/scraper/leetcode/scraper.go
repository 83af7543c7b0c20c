package leetcode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/contest-notifier/internal/config"
	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/pkg/logger"
	"github.com/contest-notifier/pkg/ratelimit"
)

const (
	baseURL = "https://leetcode.com/contest/"
	apiURL  = "https://leetcode.com/graphql"

	defaultName     = "LeetCode contest"
	defaultDuration = 90 // minutes

	contestsQuery = `{
  topTwoContests {
    title
    startTime
    duration
    cardImg
    titleSlug
  }
}`
)

type graphqlRequest struct {
	Query string `json:"query"`
}

type graphqlResponse struct {
	Data struct {
		TopTwoContests []apiContest `json:"topTwoContests"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type apiContest struct {
	Title     string `json:"title"`
	StartTime int64  `json:"startTime"` // epoch seconds
	Duration  int64  `json:"duration"`  // seconds
	TitleSlug string `json:"titleSlug"`
}

// Scraper implements scraper.Scraper for LeetCode
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new LeetCode scraper
func New(cfg config.ScraperConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		log:       log.WithPlatform(string(models.PlatformLeetCode)),
	}
}

// Platform returns leetcode
func (s *Scraper) Platform() models.Platform {
	return models.PlatformLeetCode
}

// Scrape fetches the next two contests from the GraphQL API
func (s *Scraper) Scrape(ctx context.Context) ([]models.Contest, error) {
	raw, err := s.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("leetcode fetch: %w", err)
	}

	contests := parse(raw, time.Now().UTC(), s.log)
	s.log.Info().Int("count", len(contests)).Msg("Scraped LeetCode contests")
	return contests, nil
}

func (s *Scraper) fetch(ctx context.Context) ([]apiContest, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterLeetCode); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(graphqlRequest{Query: contestsQuery})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request contests: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leetcode returned %s", resp.Status)
	}

	var body graphqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(body.Errors) > 0 {
		return nil, fmt.Errorf("leetcode GraphQL error: %s", body.Errors[0].Message)
	}

	return body.Data.TopTwoContests, nil
}

// parse keeps only contests whose start is strictly in the future; the
// scraped list never includes running or ended contests we could classify.
func parse(raw []apiContest, now time.Time, log *logger.Logger) []models.Contest {
	contests := make([]models.Contest, 0, len(raw))

	for _, element := range raw {
		if element.StartTime == 0 {
			continue
		}

		name := element.Title
		if name == "" {
			name = defaultName
		}

		duration := int(element.Duration / 60)
		if duration == 0 {
			duration = defaultDuration
		}

		start := time.Unix(element.StartTime, 0).UTC()
		if !start.After(now) {
			continue
		}
		end := start.Add(time.Duration(duration) * time.Minute)

		contest := models.Contest{
			Name:                 name,
			Platform:             models.PlatformLeetCode,
			URL:                  baseURL + element.TitleSlug,
			StartTime:            start,
			EndTime:              end,
			Duration:             duration,
			Status:               models.StatusUpcoming,
			Description:          "LeetCode Weekly/Biweekly Contest",
			RegistrationRequired: false,
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

package atcoder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/contest-notifier/internal/config"
	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/scraper"
	"github.com/contest-notifier/pkg/logger"
	"github.com/contest-notifier/pkg/ratelimit"
)

const (
	baseURL      = "https://atcoder.jp"
	contestsPage = "https://atcoder.jp/contests/"

	// AtCoder embeds the start time in a timeanddate.com link as
	// iso=YYYYMMDDTHHMM, expressed in JST
	startTimeLayout = "20060102T1504"
)

// jst is the fixed UTC+9 zone AtCoder publishes times in
var jst = time.FixedZone("JST", 9*60*60)

// Scraper implements scraper.Scraper for AtCoder by scraping the
// contests page HTML
type Scraper struct {
	client    *http.Client
	userAgent string
	limiter   *ratelimit.MultiLimiter
	log       *logger.Logger
}

// New creates a new AtCoder scraper
func New(cfg config.ScraperConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: cfg.TimeoutDuration()},
		userAgent: cfg.UserAgent,
		limiter:   limiter,
		log:       log.WithPlatform(string(models.PlatformAtCoder)),
	}
}

// Platform returns atcoder
func (s *Scraper) Platform() models.Platform {
	return models.PlatformAtCoder
}

// Scrape fetches the contests page and parses the active and upcoming tables
func (s *Scraper) Scrape(ctx context.Context) ([]models.Contest, error) {
	doc, err := s.fetchDocument(ctx)
	if err != nil {
		return nil, fmt.Errorf("atcoder fetch: %w", err)
	}

	now := time.Now().UTC()
	var contests []models.Contest

	// The "action" table lists contests running right now, "upcoming" the
	// scheduled ones; both use the same row layout
	for _, tableID := range []string{"#contest-table-action", "#contest-table-upcoming"} {
		tbody := doc.Find(tableID).Find("tbody")
		if tbody.Length() > 0 {
			contests = append(contests, parseTable(tbody, now, s.log)...)
		}
	}

	s.log.Info().Int("count", len(contests)).Msg("Scraped AtCoder contests")
	return contests, nil
}

func (s *Scraper) fetchDocument(ctx context.Context) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterAtCoder); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contestsPage, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request contests page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("atcoder returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// parseTable walks a contest table body. Rows without a parsable start time
// anchor are skipped silently; only strictly-future contests are kept.
func parseTable(tbody *goquery.Selection, now time.Time, log *logger.Logger) []models.Contest {
	var contests []models.Contest

	tbody.Find("tr").Each(func(i int, tr *goquery.Selection) {
		cells := tr.Find("td")

		href, exists := cells.Eq(0).Find("a").Attr("href")
		if !exists {
			return
		}
		start, err := parseStartTime(href)
		if err != nil {
			return
		}

		name := cleanName(cells.Eq(1).Text())
		if name == "" {
			name = "AtCoder contest"
		}

		contestLink, _ := cells.Eq(1).Find("a").Attr("href")

		duration, err := parseDuration(cells.Eq(2).Text())
		if err != nil {
			log.Debug().Err(err).Str("name", name).Msg("Skipping row with unparsable duration")
			return
		}
		end := start.Add(time.Duration(duration) * time.Minute)

		if !start.After(now) {
			return
		}

		contest := models.Contest{
			Name:                 name,
			Platform:             models.PlatformAtCoder,
			URL:                  baseURL + contestLink,
			StartTime:            start,
			EndTime:              end,
			Duration:             duration,
			Status:               models.StatusUpcoming,
			Description:          "AtCoder Programming Contest",
			RegistrationRequired: true,
		}

		if err := contest.Validate(); err != nil {
			log.Warn().Err(err).Str("name", name).Msg("Dropping malformed contest")
			return
		}

		contests = append(contests, contest)
	})

	return contests
}

// parseStartTime extracts the iso query parameter from the start time anchor
// and converts the JST timestamp to UTC
func parseStartTime(href string) (time.Time, error) {
	parsed, err := url.Parse(href)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time href: %w", err)
	}

	iso := parsed.Query().Get("iso")
	if iso == "" {
		return time.Time{}, fmt.Errorf("no iso parameter in %s", href)
	}

	start, err := time.ParseInLocation(startTimeLayout, iso, jst)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start time %q: %w", iso, err)
	}

	return start.UTC(), nil
}

// parseDuration converts the HH:MM duration column to minutes
func parseDuration(text string) (int, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("unexpected duration %q", text)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parse hours: %w", err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parse minutes: %w", err)
	}

	return hours*60 + minutes, nil
}

// cleanName strips the rating marker glyphs AtCoder prefixes contest names with
func cleanName(name string) string {
	for _, marker := range []string{"Ⓐ", "◉", "Ⓗ"} {
		name = strings.ReplaceAll(name, marker, "")
	}
	return strings.TrimSpace(name)
}

// Ensure Scraper implements scraper.Scraper
var _ scraper.Scraper = (*Scraper)(nil)

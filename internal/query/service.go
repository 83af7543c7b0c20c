package query

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/pkg/logger"
)

// Provider supplies the aggregated contest set the service filters over
type Provider interface {
	GetAll(ctx context.Context) []models.Contest
}

// Range bounds how far ahead ListUpcoming looks
type Range string

const (
	RangeAll   Range = ""
	RangeWeek  Range = "week"
	RangeMonth Range = "month"
)

// Filter narrows ListAll results
type Filter struct {
	Platform string
	Status   string
	Limit    int
}

// DefaultLimit caps ListAll responses when no limit is given
const DefaultLimit = 50

// Service answers filtered, sorted queries over the aggregation cache
// without mutating it
type Service struct {
	provider Provider
	log      *logger.Logger
}

// New creates a new query service
func New(provider Provider, log *logger.Logger) *Service {
	return &Service{
		provider: provider,
		log:      log.WithComponent("query"),
	}
}

// ListAll returns contests matching the filter, sorted ascending by start
// time and truncated to the limit
func (s *Service) ListAll(ctx context.Context, filter Filter) []models.Contest {
	platform := strings.ToLower(filter.Platform)
	status := strings.ToLower(filter.Status)

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var out []models.Contest
	for _, c := range s.provider.GetAll(ctx) {
		if platform != "" && string(c.Platform) != platform {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		out = append(out, c)
	}

	sortByStartTime(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ListLive returns contests running right now, optionally filtered by platform
func (s *Service) ListLive(ctx context.Context, platform string) []models.Contest {
	platform = strings.ToLower(platform)
	now := time.Now().UTC()

	var out []models.Contest
	for _, c := range s.provider.GetAll(ctx) {
		if !c.IsLive(now) {
			continue
		}
		if platform != "" && string(c.Platform) != platform {
			continue
		}
		out = append(out, c)
	}

	sortByStartTime(out)
	return out
}

// ListUpcoming returns contests starting after now and, for week/month
// ranges, before the range bound; optionally filtered by platform
func (s *Service) ListUpcoming(ctx context.Context, rng Range, platform string) []models.Contest {
	platform = strings.ToLower(platform)
	now := time.Now().UTC()

	var until time.Time
	switch rng {
	case RangeWeek:
		until = now.Add(7 * 24 * time.Hour)
	case RangeMonth:
		until = now.Add(30 * 24 * time.Hour)
	}

	var out []models.Contest
	for _, c := range s.provider.GetAll(ctx) {
		if !c.StartTime.After(now) {
			continue
		}
		if !until.IsZero() && !c.StartTime.Before(until) {
			continue
		}
		if platform != "" && string(c.Platform) != platform {
			continue
		}
		out = append(out, c)
	}

	sortByStartTime(out)
	return out
}

// Platforms returns the distinct platforms present in the aggregated set, sorted
func (s *Service) Platforms(ctx context.Context) []string {
	seen := make(map[string]struct{})
	for _, c := range s.provider.GetAll(ctx) {
		seen[string(c.Platform)] = struct{}{}
	}

	platforms := make([]string, 0, len(seen))
	for p := range seen {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}

// Stats summarizes the aggregated set by status and platform
func (s *Service) Stats(ctx context.Context) (models.Stats, map[string]int64) {
	now := time.Now().UTC()

	var stats models.Stats
	byPlatform := make(map[string]int64)

	for _, c := range s.provider.GetAll(ctx) {
		stats.Total++
		byPlatform[string(c.Platform)]++
		switch models.ClassifyStatus(c.StartTime, c.EndTime, now) {
		case models.StatusUpcoming:
			stats.Upcoming++
		case models.StatusLive:
			stats.Live++
		case models.StatusEnded:
			stats.Ended++
		}
	}

	return stats, byPlatform
}

// sortByStartTime sorts ascending by start time; a stable sort keeps the
// merge order for equal start times
func sortByStartTime(contests []models.Contest) {
	sort.SliceStable(contests, func(i, j int) bool {
		return contests[i].StartTime.Before(contests[j].StartTime)
	})
}

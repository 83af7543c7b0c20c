package storage

import (
	"context"
	"time"

	"github.com/contest-notifier/internal/models"
)

// Repository defines the interface for the optional persistent contest store
type Repository interface {
	// Contest operations
	UpsertContests(ctx context.Context, contests []models.Contest) (saved, updated int, err error)
	ListContests(ctx context.Context, filter ContestFilter) ([]models.Contest, error)
	DistinctPlatforms(ctx context.Context) ([]string, error)
	CountByPlatform(ctx context.Context) (map[string]int64, error)
	Stats(ctx context.Context) (*models.Stats, error)

	// Cleanup operations
	RemoveDuplicates(ctx context.Context) (int64, error)
	MarkEnded(ctx context.Context, now time.Time) (int64, error)
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Maintenance
	Migrate() error
	Close() error
}

// ContestFilter defines filtering options for stored contests
type ContestFilter struct {
	Platform *models.Platform
	Status   *models.Status
	Limit    int
	Offset   int
}

// DefaultContestFilter returns a filter with sensible defaults
func DefaultContestFilter() ContestFilter {
	return ContestFilter{
		Limit: 50,
	}
}

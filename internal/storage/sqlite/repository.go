package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.Contest{})
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertContests stores contests keyed by (platform, name), updating
// records from earlier scrape cycles in place
func (r *Repository) UpsertContests(ctx context.Context, contests []models.Contest) (int, int, error) {
	var saved, updated int

	for _, contest := range contests {
		var existing models.Contest
		err := r.db.WithContext(ctx).
			Where("platform = ? AND name = ?", contest.Platform, contest.Name).
			First(&existing).Error

		switch {
		case err == nil:
			contest.ID = existing.ID
			contest.CreatedAt = existing.CreatedAt
			if err := r.db.WithContext(ctx).Save(&contest).Error; err != nil {
				return saved, updated, fmt.Errorf("update contest %q: %w", contest.Name, err)
			}
			updated++
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := r.db.WithContext(ctx).Create(&contest).Error; err != nil {
				return saved, updated, fmt.Errorf("create contest %q: %w", contest.Name, err)
			}
			saved++
		default:
			return saved, updated, fmt.Errorf("lookup contest %q: %w", contest.Name, err)
		}
	}

	return saved, updated, nil
}

// ListContests returns stored contests matching the filter, sorted by start time
func (r *Repository) ListContests(ctx context.Context, filter storage.ContestFilter) ([]models.Contest, error) {
	var contests []models.Contest
	query := r.db.WithContext(ctx).Model(&models.Contest{})

	if filter.Platform != nil {
		query = query.Where("platform = ?", *filter.Platform)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	query = query.Order("start_time ASC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	if err := query.Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// DistinctPlatforms returns the platforms present in the store
func (r *Repository) DistinctPlatforms(ctx context.Context) ([]string, error) {
	var platforms []string
	if err := r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Distinct("platform").
		Order("platform ASC").
		Pluck("platform", &platforms).Error; err != nil {
		return nil, err
	}
	return platforms, nil
}

// CountByPlatform returns stored contest counts per platform
func (r *Repository) CountByPlatform(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		Platform string
		Count    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Select("platform, COUNT(*) as count").
		Group("platform").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Platform] = row.Count
	}
	return counts, nil
}

// Stats returns aggregate counts by stored status
func (r *Repository) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats

	if err := r.db.WithContext(ctx).Model(&models.Contest{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	counts := map[models.Status]*int64{
		models.StatusUpcoming: &stats.Upcoming,
		models.StatusLive:     &stats.Live,
		models.StatusEnded:    &stats.Ended,
	}
	for status, dest := range counts {
		if err := r.db.WithContext(ctx).
			Model(&models.Contest{}).
			Where("status = ?", status).
			Count(dest).Error; err != nil {
			return nil, err
		}
	}

	return &stats, nil
}

// RemoveDuplicates deletes all but the oldest record in every
// (platform, name) group and returns the number removed
func (r *Repository) RemoveDuplicates(ctx context.Context) (int64, error) {
	var groups []struct {
		Platform string
		Name     string
		KeepID   uint
	}
	if err := r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Select("platform, name, MIN(id) as keep_id").
		Group("platform, name").
		Having("COUNT(*) > 1").
		Scan(&groups).Error; err != nil {
		return 0, err
	}

	var removed int64
	for _, g := range groups {
		result := r.db.WithContext(ctx).
			Where("platform = ? AND name = ? AND id <> ?", g.Platform, g.Name, g.KeepID).
			Delete(&models.Contest{})
		if result.Error != nil {
			return removed, result.Error
		}
		removed += result.RowsAffected
	}

	return removed, nil
}

// MarkEnded flips the status of every finished contest not already marked
// ended and returns the number modified
func (r *Repository) MarkEnded(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Contest{}).
		Where("end_time < ? AND status <> ?", now, models.StatusEnded).
		Update("status", models.StatusEnded)
	return result.RowsAffected, result.Error
}

// PurgeOlderThan deletes every contest that ended before the cutoff and
// returns the number deleted
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("end_time < ?", cutoff).
		Delete(&models.Contest{})
	return result.RowsAffected, result.Error
}

// Ensure Repository implements storage.Repository
var _ storage.Repository = (*Repository)(nil)

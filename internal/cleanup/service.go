package cleanup

import (
	"context"
	"fmt"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/storage"
	"github.com/contest-notifier/pkg/logger"
)

// DefaultRetentionDays is how long ended contests are kept before purging
const DefaultRetentionDays = 30

// Service keeps the persistent contest store free of duplicates and
// bounded in size. It only runs in deployments with the database enabled.
type Service struct {
	repo          storage.Repository
	retentionDays int
	log           *logger.Logger
}

// New creates a new cleanup service
func New(repo storage.Repository, retentionDays int, log *logger.Logger) *Service {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &Service{
		repo:          repo,
		retentionDays: retentionDays,
		log:           log.WithComponent("cleanup"),
	}
}

// Result contains the outcome of a full cleanup run
type Result struct {
	Success           bool          `json:"success"`
	DuplicatesRemoved int64         `json:"duplicatesRemoved"`
	MarkedEnded       int64         `json:"markedAsEnded"`
	Deleted           int64         `json:"deleted"`
	Stats             *models.Stats `json:"stats,omitempty"`
	Error             string        `json:"error,omitempty"`
}

// RemoveDuplicates deletes all but one record per (platform, name) group.
// Running it twice in a row removes nothing the second time.
func (s *Service) RemoveDuplicates(ctx context.Context) (int64, error) {
	removed, err := s.repo.RemoveDuplicates(ctx)
	if err != nil {
		return 0, fmt.Errorf("remove duplicates: %w", err)
	}
	s.log.Info().Int64("removed", removed).Msg("Removed duplicate contests")
	return removed, nil
}

// MarkEnded re-classifies finished contests that are still marked upcoming or live
func (s *Service) MarkEnded(ctx context.Context) (int64, error) {
	marked, err := s.repo.MarkEnded(ctx, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark ended: %w", err)
	}
	s.log.Info().Int64("marked", marked).Msg("Marked contests as ended")
	return marked, nil
}

// PurgeOld deletes contests that ended more than the retention window ago
func (s *Service) PurgeOld(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge old: %w", err)
	}
	s.log.Info().Int64("deleted", deleted).Msg("Purged old contests")
	return deleted, nil
}

// FullCleanup runs dedup, then mark-ended, then purge. Dedup runs first so
// the later steps don't waste work on records about to be deleted. A failing
// sub-step is logged and reported in the result; it never panics or crashes
// the scheduler.
func (s *Service) FullCleanup(ctx context.Context) *Result {
	s.log.Info().Msg("Starting full cleanup")
	result := &Result{}

	duplicates, err := s.RemoveDuplicates(ctx)
	if err != nil {
		return s.fail(result, err)
	}
	result.DuplicatesRemoved = duplicates

	marked, err := s.MarkEnded(ctx)
	if err != nil {
		return s.fail(result, err)
	}
	result.MarkedEnded = marked

	deleted, err := s.PurgeOld(ctx)
	if err != nil {
		return s.fail(result, err)
	}
	result.Deleted = deleted

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return s.fail(result, fmt.Errorf("collect stats: %w", err))
	}
	result.Stats = stats
	result.Success = true

	s.log.Info().
		Int64("duplicates_removed", result.DuplicatesRemoved).
		Int64("marked_ended", result.MarkedEnded).
		Int64("deleted", result.Deleted).
		Msg("Full cleanup completed")

	return result
}

func (s *Service) fail(result *Result, err error) *Result {
	s.log.Error().Err(err).Msg("Cleanup failed")
	result.Success = false
	result.Error = err.Error()
	return result
}

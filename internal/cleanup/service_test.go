package cleanup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/storage"
	"github.com/contest-notifier/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

// fakeRepo records call order and returns canned values
type fakeRepo struct {
	calls []string

	duplicates int64
	marked     int64
	purged     int64

	markEndedErr error

	purgeCutoff time.Time
}

func (r *fakeRepo) UpsertContests(ctx context.Context, contests []models.Contest) (int, int, error) {
	return 0, 0, nil
}

func (r *fakeRepo) ListContests(ctx context.Context, filter storage.ContestFilter) ([]models.Contest, error) {
	return nil, nil
}

func (r *fakeRepo) DistinctPlatforms(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (r *fakeRepo) CountByPlatform(ctx context.Context) (map[string]int64, error) {
	return nil, nil
}

func (r *fakeRepo) Stats(ctx context.Context) (*models.Stats, error) {
	r.calls = append(r.calls, "stats")
	return &models.Stats{Total: 5}, nil
}

func (r *fakeRepo) RemoveDuplicates(ctx context.Context) (int64, error) {
	r.calls = append(r.calls, "dedup")
	return r.duplicates, nil
}

func (r *fakeRepo) MarkEnded(ctx context.Context, now time.Time) (int64, error) {
	r.calls = append(r.calls, "markEnded")
	return r.marked, r.markEndedErr
}

func (r *fakeRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.calls = append(r.calls, "purge")
	r.purgeCutoff = cutoff
	return r.purged, nil
}

func (r *fakeRepo) Migrate() error { return nil }
func (r *fakeRepo) Close() error   { return nil }

func TestFullCleanup(t *testing.T) {
	repo := &fakeRepo{duplicates: 3, marked: 2, purged: 7}
	s := New(repo, 30, testLogger())

	result := s.FullCleanup(context.Background())

	if !result.Success {
		t.Fatalf("expected success, got error %q", result.Error)
	}
	if result.DuplicatesRemoved != 3 || result.MarkedEnded != 2 || result.Deleted != 7 {
		t.Errorf("unexpected result %+v", result)
	}
	if result.Stats == nil || result.Stats.Total != 5 {
		t.Errorf("expected final stats, got %+v", result.Stats)
	}

	// Dedup must run before mark-ended and purge
	want := []string{"dedup", "markEnded", "purge", "stats"}
	if len(repo.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, repo.calls)
	}
	for i := range want {
		if repo.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, repo.calls)
		}
	}
}

func TestFullCleanupReportsFailure(t *testing.T) {
	repo := &fakeRepo{markEndedErr: errors.New("database locked")}
	s := New(repo, 30, testLogger())

	result := s.FullCleanup(context.Background())

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Error == "" {
		t.Error("expected error message in result")
	}

	// Purge must not run after a failing step
	for _, call := range repo.calls {
		if call == "purge" {
			t.Error("purge ran after mark-ended failed")
		}
	}
}

func TestPurgeCutoffRespectsRetention(t *testing.T) {
	repo := &fakeRepo{}
	s := New(repo, 10, testLogger())

	if _, err := s.PurgeOld(context.Background()); err != nil {
		t.Fatalf("purge: %v", err)
	}

	want := time.Now().UTC().AddDate(0, 0, -10)
	if diff := repo.purgeCutoff.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("expected cutoff near %s, got %s", want, repo.purgeCutoff)
	}
}

func TestNewDefaultsRetention(t *testing.T) {
	s := New(&fakeRepo{}, 0, testLogger())
	if s.retentionDays != DefaultRetentionDays {
		t.Errorf("expected default retention %d, got %d", DefaultRetentionDays, s.retentionDays)
	}
}

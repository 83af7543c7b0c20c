package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	if err := repo.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	return repo
}

func storedContest(name string, platform models.Platform, start time.Time) models.Contest {
	return models.Contest{
		Name:      name,
		Platform:  platform,
		URL:       "https://example.com/" + name,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Duration:  120,
		Status:    models.StatusUpcoming,
	}
}

func TestUpsertContests(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour).UTC()

	contests := []models.Contest{
		storedContest("CF Round 950", models.PlatformCodeforces, start),
		storedContest("Weekly Contest 400", models.PlatformLeetCode, start),
	}

	saved, updated, err := repo.UpsertContests(ctx, contests)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if saved != 2 || updated != 0 {
		t.Errorf("expected 2 saved / 0 updated, got %d / %d", saved, updated)
	}

	// A second cycle with the same (platform, name) keys updates in place
	contests[0].Status = models.StatusLive
	saved, updated, err = repo.UpsertContests(ctx, contests)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if saved != 0 || updated != 2 {
		t.Errorf("expected 0 saved / 2 updated, got %d / %d", saved, updated)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("expected 2 stored contests, got %d", stats.Total)
	}
	if stats.Live != 1 {
		t.Errorf("expected 1 live contest after update, got %d", stats.Live)
	}
}

func TestListContests(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seed := []models.Contest{
		storedContest("Later Contest", models.PlatformCodeforces, now.Add(48*time.Hour)),
		storedContest("Sooner Contest", models.PlatformCodeforces, now.Add(24*time.Hour)),
		storedContest("Other Platform", models.PlatformAtCoder, now.Add(36*time.Hour)),
	}
	if _, _, err := repo.UpsertContests(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := repo.ListContests(ctx, storage.DefaultContestFilter())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 contests, got %d", len(all))
	}
	if all[0].Name != "Sooner Contest" {
		t.Errorf("expected start-time ordering, got %q first", all[0].Name)
	}

	platform := models.PlatformCodeforces
	filtered, err := repo.ListContests(ctx, storage.ContestFilter{Platform: &platform, Limit: 10})
	if err != nil {
		t.Fatalf("filtered list: %v", err)
	}
	if len(filtered) != 2 {
		t.Errorf("expected 2 codeforces contests, got %d", len(filtered))
	}

	limited, err := repo.ListContests(ctx, storage.ContestFilter{Limit: 1})
	if err != nil {
		t.Fatalf("limited list: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit 1, got %d", len(limited))
	}
}

func TestRemoveDuplicatesIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour).UTC()

	// Insert directly to bypass the upsert key and create real duplicates
	for i := 0; i < 3; i++ {
		c := storedContest("CF Round 950", models.PlatformCodeforces, start)
		if err := repo.db.Create(&c).Error; err != nil {
			t.Fatalf("seed duplicate: %v", err)
		}
	}
	unique := storedContest("Weekly Contest 400", models.PlatformLeetCode, start)
	if err := repo.db.Create(&unique).Error; err != nil {
		t.Fatalf("seed unique: %v", err)
	}

	removed, err := repo.RemoveDuplicates(ctx)
	if err != nil {
		t.Fatalf("remove duplicates: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 duplicates removed, got %d", removed)
	}

	removed, err = repo.RemoveDuplicates(ctx)
	if err != nil {
		t.Fatalf("second remove duplicates: %v", err)
	}
	if removed != 0 {
		t.Errorf("expected second run to remove nothing, got %d", removed)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("expected 2 contests after dedup, got %d", stats.Total)
	}
}

func TestMarkEnded(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()

	finished := storedContest("Finished Contest", models.PlatformCodeforces, now.Add(-4*time.Hour))
	future := storedContest("Future Contest", models.PlatformCodeforces, now.Add(24*time.Hour))
	if _, _, err := repo.UpsertContests(ctx, []models.Contest{finished, future}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	marked, err := repo.MarkEnded(ctx, now)
	if err != nil {
		t.Fatalf("mark ended: %v", err)
	}
	if marked != 1 {
		t.Errorf("expected 1 contest marked ended, got %d", marked)
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Ended != 1 || stats.Upcoming != 1 {
		t.Errorf("unexpected breakdown %+v", stats)
	}
}

func TestPurgeOlderThan(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -30)

	ancient := storedContest("Ancient Contest", models.PlatformCodeforces, now.AddDate(0, 0, -31))
	recent := storedContest("Recent Contest", models.PlatformCodeforces, now.AddDate(0, 0, -29))
	if _, _, err := repo.UpsertContests(ctx, []models.Contest{ancient, recent}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	deleted, err := repo.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 contest purged, got %d", deleted)
	}

	remaining, err := repo.ListContests(ctx, storage.DefaultContestFilter())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Name != "Recent Contest" {
		t.Errorf("expected only the recent contest to survive, got %v", remaining)
	}
}

func TestCountByPlatform(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	start := time.Now().Add(24 * time.Hour).UTC()

	seed := []models.Contest{
		storedContest("CF A", models.PlatformCodeforces, start),
		storedContest("CF B", models.PlatformCodeforces, start.Add(time.Hour)),
		storedContest("LC A", models.PlatformLeetCode, start),
	}
	if _, _, err := repo.UpsertContests(ctx, seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	counts, err := repo.CountByPlatform(ctx)
	if err != nil {
		t.Fatalf("count by platform: %v", err)
	}
	if counts["codeforces"] != 2 || counts["leetcode"] != 1 {
		t.Errorf("unexpected counts %v", counts)
	}

	platforms, err := repo.DistinctPlatforms(ctx)
	if err != nil {
		t.Fatalf("distinct platforms: %v", err)
	}
	if len(platforms) != 2 {
		t.Errorf("expected 2 platforms, got %v", platforms)
	}
}

package leetcode

import (
	"testing"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestParseKeepsOnlyFutureContests(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	raw := []apiContest{
		{
			Title:     "Weekly Contest 400",
			StartTime: now.Add(48 * time.Hour).Unix(),
			Duration:  5400,
			TitleSlug: "weekly-contest-400",
		},
		{
			Title:     "Weekly Contest 399",
			StartTime: now.Add(-time.Hour).Unix(), // already started
			Duration:  5400,
			TitleSlug: "weekly-contest-399",
		},
		{
			Title:     "Broken Contest",
			StartTime: 0,
			TitleSlug: "broken",
		},
	}

	contests := parse(raw, now, testLogger())

	if len(contests) != 1 {
		t.Fatalf("expected 1 contest, got %d", len(contests))
	}

	c := contests[0]
	if c.Name != "Weekly Contest 400" {
		t.Errorf("unexpected name %q", c.Name)
	}
	if c.Duration != 90 {
		t.Errorf("expected 90 minute duration, got %d", c.Duration)
	}
	if c.Status != models.StatusUpcoming {
		t.Errorf("expected upcoming status, got %s", c.Status)
	}
	if c.URL != "https://leetcode.com/contest/weekly-contest-400" {
		t.Errorf("unexpected URL %s", c.URL)
	}
	if c.RegistrationRequired {
		t.Error("leetcode contests do not require registration")
	}
}

func TestParseDefaultsDuration(t *testing.T) {
	now := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	raw := []apiContest{
		{
			Title:     "Biweekly Contest 130",
			StartTime: now.Add(24 * time.Hour).Unix(),
			TitleSlug: "biweekly-contest-130",
		},
	}

	contests := parse(raw, now, testLogger())
	if len(contests) != 1 {
		t.Fatalf("expected 1 contest, got %d", len(contests))
	}
	if contests[0].Duration != defaultDuration {
		t.Errorf("expected default duration %d, got %d", defaultDuration, contests[0].Duration)
	}
	want := contests[0].StartTime.Add(time.Duration(defaultDuration) * time.Minute)
	if !contests[0].EndTime.Equal(want) {
		t.Errorf("expected end %s, got %s", want, contests[0].EndTime)
	}
}

package codingninjas

import (
	"testing"
	"time"

	"github.com/contest-notifier/internal/models"
	"github.com/contest-notifier/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: "json"})
}

func TestParse(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	raw := []apiContest{
		{
			Name:           "Weekend Contest 130",
			Slug:           "weekend-contest-130",
			EventStartTime: now.Add(24 * time.Hour).Unix(),
			EventEndTime:   now.Add(26 * time.Hour).Unix(),
		},
		{
			Name:           "Running Contest",
			Slug:           "running-contest",
			EventStartTime: now.Add(-time.Hour).Unix(),
			EventEndTime:   now.Add(time.Hour).Unix(),
		},
		{
			Name:           "Finished Contest",
			Slug:           "finished-contest",
			EventStartTime: now.Add(-48 * time.Hour).Unix(),
			EventEndTime:   now.Add(-46 * time.Hour).Unix(),
		},
		{
			Name: "No Timestamps",
			Slug: "no-timestamps",
		},
	}

	contests := parse(raw, now, testLogger())

	if len(contests) != 2 {
		t.Fatalf("expected 2 contests, got %d", len(contests))
	}

	upcoming := contests[0]
	if upcoming.Status != models.StatusUpcoming {
		t.Errorf("expected upcoming status, got %s", upcoming.Status)
	}
	if upcoming.Duration != 120 {
		t.Errorf("expected 120 minute duration, got %d", upcoming.Duration)
	}
	if upcoming.URL != "https://www.naukri.com/code360/contests/weekend-contest-130" {
		t.Errorf("unexpected URL %s", upcoming.URL)
	}

	live := contests[1]
	if live.Status != models.StatusLive {
		t.Errorf("expected live status, got %s", live.Status)
	}
}

package codechef

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
			ContestCode:         "START140",
			ContestName:         "Starters 140",
			ContestStartDateISO: "2024-06-12T14:30:00+00:00",
			ContestEndDateISO:   "2024-06-12T16:30:00+00:00",
		},
		{
			ContestCode:         "COOK160",
			ContestName:         "Cook-Off 160",
			ContestStartDateISO: "2024-06-10T11:00:00+00:00",
			ContestEndDateISO:   "2024-06-10T14:00:00+00:00",
		},
		{
			ContestCode:         "OLD1",
			ContestName:         "Long Gone",
			ContestStartDateISO: "2024-05-01T10:00:00+00:00",
			ContestEndDateISO:   "2024-05-01T12:00:00+00:00",
		},
		{
			ContestCode:         "BAD1",
			ContestName:         "Bad Dates",
			ContestStartDateISO: "not-a-date",
			ContestEndDateISO:   "2024-06-12T16:30:00+00:00",
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
	if upcoming.URL != "https://www.codechef.com/START140" {
		t.Errorf("unexpected URL %s", upcoming.URL)
	}

	live := contests[1]
	if live.Status != models.StatusLive {
		t.Errorf("expected live status for running contest, got %s", live.Status)
	}
	if live.Duration != 180 {
		t.Errorf("expected 180 minute duration, got %d", live.Duration)
	}
}

func TestParseDefaultsDurationWhenEndMissing(t *testing.T) {
	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	raw := []apiContest{
		{
			ContestCode:         "ZERO1",
			ContestName:         "Zero Length",
			ContestStartDateISO: "2024-06-12T14:30:00+00:00",
			ContestEndDateISO:   "2024-06-12T14:30:00+00:00",
		},
	}

	contests := parse(raw, now, testLogger())
	if len(contests) != 1 {
		t.Fatalf("expected 1 contest, got %d", len(contests))
	}

	c := contests[0]
	if c.Duration != defaultDuration {
		t.Errorf("expected default duration %d, got %d", defaultDuration, c.Duration)
	}
	want := c.StartTime.Add(time.Duration(defaultDuration) * time.Minute)
	if !c.EndTime.Equal(want) {
		t.Errorf("expected recomputed end %s, got %s", want, c.EndTime)
	}
}

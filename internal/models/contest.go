package models

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies one of the supported contest platforms
type Platform string

const (
	PlatformCodeforces   Platform = "codeforces"
	PlatformLeetCode     Platform = "leetcode"
	PlatformAtCoder      Platform = "atcoder"
	PlatformCodeChef     Platform = "codechef"
	PlatformGFG          Platform = "gfg"
	PlatformCodingNinjas Platform = "codingninjas"
)

// AllPlatforms lists every supported platform in scrape order
var AllPlatforms = []Platform{
	PlatformCodeforces,
	PlatformLeetCode,
	PlatformAtCoder,
	PlatformCodeChef,
	PlatformGFG,
	PlatformCodingNinjas,
}

// ValidPlatform reports whether name identifies one of the six supported
// platforms, ignoring case
func ValidPlatform(name string) bool {
	p := Platform(strings.ToLower(name))
	for _, known := range AllPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// Status represents the lifecycle stage of a contest
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusLive     Status = "live"
	StatusEnded    Status = "ended"
)

// ClassifyStatus derives a contest status by comparing now to the contest
// window. Codeforces is the exception: its scraper trusts the vendor phase
// field instead of calling this.
func ClassifyStatus(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case !now.After(end):
		return StatusLive
	default:
		return StatusEnded
	}
}

// Contest is the normalized record produced by every scraper
type Contest struct {
	ID                   uint      `gorm:"primaryKey" json:"-"`
	Name                 string    `gorm:"index:idx_platform_name;not null" json:"name"`
	Platform             Platform  `gorm:"index:idx_platform_name;index;not null" json:"platform"`
	URL                  string    `gorm:"not null" json:"url"`
	StartTime            time.Time `gorm:"index" json:"startTime"`
	EndTime              time.Time `json:"endTime"`
	Duration             int       `json:"duration"` // minutes
	Status               Status    `gorm:"index;default:'upcoming'" json:"status"`
	Description          string    `json:"description"`
	RegistrationRequired bool      `json:"registrationRequired"`
	CreatedAt            time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime" json:"-"`
}

// Validate checks the invariants every surfaced contest must hold.
// Records failing validation are dropped at parse time, not served.
func (c *Contest) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("contest name is empty")
	}
	if !ValidPlatform(string(c.Platform)) {
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if !c.StartTime.Before(c.EndTime) {
		return fmt.Errorf("startTime %s is not before endTime %s", c.StartTime, c.EndTime)
	}
	return nil
}

// IsLive reports whether the contest is running at the given instant
func (c *Contest) IsLive(now time.Time) bool {
	return !now.Before(c.StartTime) && !now.After(c.EndTime)
}

// IsStartingSoon reports whether the contest starts within the next hour
func (c *Contest) IsStartingSoon(now time.Time) bool {
	return c.StartTime.After(now) && !c.StartTime.After(now.Add(time.Hour))
}

// Stats summarizes the stored contest set by status
type Stats struct {
	Total    int64 `json:"total"`
	Upcoming int64 `json:"upcoming"`
	Live     int64 `json:"live"`
	Ended    int64 `json:"ended"`
}

package domain

import "time"

const dayLayout = "2006-01-02"

// DailyTotal is one day's reading rollup, keyed by a YYYY-MM-DD day string.
type DailyTotal struct {
	Day       string
	Sessions  int
	ActiveMs  int64
	Pomodoros int
}

type BookTotal struct {
	BookID     string
	Title      string
	Sessions   int
	ActiveMs   int64
	Highlights int
	Notes      int
	LastReadAt time.Time
}

type Overview struct {
	TotalSessions     int
	TotalActiveMs     int64
	TotalPomodoros    int
	CurrentStreakDays int
	LongestStreakDays int
	Days              []DailyTotal
}

// Streaks walks the day buckets and returns the current and longest runs of
// consecutive reading days. The current streak counts runs ending today or
// yesterday, so a streak is not broken before today's session happened.
// Days must be sorted ascending; malformed day strings break any run.
func Streaks(days []DailyTotal, today time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}
	run := 0
	var prev time.Time
	var lastDay time.Time
	lastRun := 0
	for _, bucket := range days {
		day, err := time.Parse(dayLayout, bucket.Day)
		if err != nil {
			run = 0
			prev = time.Time{}
			continue
		}
		if !prev.IsZero() && day.Sub(prev) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
		prev = day
		lastDay = day
		lastRun = run
	}
	if lastDay.IsZero() {
		return 0, longest
	}
	todayDay := today.UTC().Truncate(24 * time.Hour)
	gap := todayDay.Sub(lastDay)
	if gap == 0 || gap == 24*time.Hour {
		return lastRun, longest
	}
	return 0, longest
}

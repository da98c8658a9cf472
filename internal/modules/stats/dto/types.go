package dto

import "time"

type DailyTotalOutput struct {
	Day       string `json:"day"`
	Sessions  int    `json:"sessions"`
	ActiveMs  int64  `json:"activeMs"`
	Pomodoros int    `json:"pomodoros"`
}

type BookTotalOutput struct {
	BookID     string    `json:"bookId"`
	Title      string    `json:"title"`
	Sessions   int       `json:"sessions"`
	ActiveMs   int64     `json:"activeMs"`
	Highlights int       `json:"highlights"`
	Notes      int       `json:"notes"`
	LastReadAt time.Time `json:"lastReadAt"`
}

type OverviewOutput struct {
	TotalSessions     int                `json:"totalSessions"`
	TotalActiveMs     int64              `json:"totalActiveMs"`
	TotalPomodoros    int                `json:"totalPomodoros"`
	CurrentStreakDays int                `json:"currentStreakDays"`
	LongestStreakDays int                `json:"longestStreakDays"`
	Days              []DailyTotalOutput `json:"days"`
}

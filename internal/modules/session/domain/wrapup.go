package domain

import "time"

// WrapUp aggregates a finished session for the end-of-session summary.
type WrapUp struct {
	SessionID          string             `json:"sessionId"`
	BookID             string             `json:"bookId"`
	BookTitle          string             `json:"bookTitle,omitempty"`
	StartedAt          time.Time          `json:"startedAt"`
	EndedAt            time.Time          `json:"endedAt"`
	ActiveMs           int64              `json:"activeMs"`
	CompletedPomodoros int                `json:"completedPomodoros"`
	Highlights         int                `json:"highlights"`
	Notes              int                `json:"notes"`
	AFKPauses          int                `json:"afkPauses"`
	MicrobreaksTaken   int                `json:"microbreaksTaken"`
	TopHighlights      []HighlightExcerpt `json:"topHighlights,omitempty"`
}

type HighlightExcerpt struct {
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

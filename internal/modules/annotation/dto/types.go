package dto

import "time"

type CaptureInput struct {
	Body string
}

type AnnotationOutput struct {
	ID        string
	SessionID string
	BookID    string
	Kind      string
	Body      string
	CreatedAt time.Time
}

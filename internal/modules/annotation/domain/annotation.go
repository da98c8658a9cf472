package domain

import (
	"fmt"
	"strings"
	"time"
)

type Kind string

const (
	KindHighlight Kind = "highlight"
	KindNote      Kind = "note"
)

// Annotation is one captured highlight or note, bound to the session it
// was taken in and that session's book.
type Annotation struct {
	ID        string
	SessionID string
	BookID    string
	Kind      Kind
	Body      string
	CreatedAt time.Time
}

func (a Annotation) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(a.SessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(a.Body) == "" {
		return fmt.Errorf("body is required")
	}
	if a.Kind != KindHighlight && a.Kind != KindNote {
		return fmt.Errorf("unknown kind %q", a.Kind)
	}
	return nil
}

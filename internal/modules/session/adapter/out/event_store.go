package out

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lectio/internal/modules/session/domain"
	sessionout "lectio/internal/modules/session/port/out"
)

// FileEventStore is the append-only JSONL journal behind the activity
// feed. One event per line, newest last.
type FileEventStore struct {
	path string
}

func NewFileEventStore(homePath string) sessionout.EventStore {
	return &FileEventStore{path: filepath.Join(homePath, "daemon", "events.log")}
}

func (s *FileEventStore) Append(_ context.Context, event domain.Event) error {
	if event.ID == "" {
		event.ID = fmt.Sprintf("%d", time.Now().UTC().UnixNano())
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create event log dir: %w", err)
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := file.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("write event log: %w", err)
	}
	return nil
}

func (s *FileEventStore) Tail(_ context.Context, query sessionout.EventQuery) ([]domain.Event, error) {
	if query.Limit <= 0 {
		query.Limit = 200
	}
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []domain.Event{}, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	buffer := make([]domain.Event, 0, query.Limit)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		event := domain.Event{}
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if !query.Since.IsZero() && event.OccurredAt.Before(query.Since.UTC()) {
			continue
		}
		if len(query.Types) > 0 && !typeMatches(event.Type, query.Types) {
			continue
		}
		if len(buffer) < query.Limit {
			buffer = append(buffer, event)
			continue
		}
		copy(buffer, buffer[1:])
		buffer[len(buffer)-1] = event
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return buffer, nil
}

func typeMatches(t domain.EventType, wanted []domain.EventType) bool {
	for _, candidate := range wanted {
		if t == candidate {
			return true
		}
	}
	return false
}

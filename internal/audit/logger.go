// Package audit appends deploy events to a JSON lines file. Every Logger
// stamps its events with one run ID so a single invocation can be picked out
// of the log.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Event statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusError   = "error"
)

type Logger struct {
	path  string
	runID string
	mu    sync.Mutex
}

type Event struct {
	Timestamp string            `json:"timestamp"`
	RunID     string            `json:"runId"`
	Operation string            `json:"operation"`
	Phase     string            `json:"phase"`
	Status    string            `json:"status"`
	Code      string            `json:"code,omitempty"`
	Message   string            `json:"message,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// New returns a logger appending to path under a fresh run ID. An empty path
// disables logging.
func New(path string) *Logger {
	return &Logger{path: path, runID: ulid.Make().String()}
}

// RunID returns the ID stamped on every event of this logger.
func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *Logger) Log(ev Event) error {
	if l == nil || l.path == "" {
		return nil
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	ev.RunID = l.runID
	blob, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(append(blob, '\n')); err != nil {
		return err
	}
	return nil
}

// Read returns every event in the log at path. A missing log is empty.
func Read(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			return nil, fmt.Errorf("AUDIT_PARSE: %s:%d: %w", path, line, err)
		}
		events = append(events, ev)
	}
	return events, scanner.Err()
}

// LastRun returns the events of the most recent run in events.
func LastRun(events []Event) []Event {
	if len(events) == 0 {
		return nil
	}
	id := events[len(events)-1].RunID
	var out []Event
	for _, ev := range events {
		if ev.RunID == id {
			out = append(out, ev)
		}
	}
	return out
}

package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLogNoopForNilLoggerAndEmptyPath(t *testing.T) {
	var nilLogger *Logger
	if err := nilLogger.Log(Event{Operation: "deploy"}); err != nil {
		t.Fatalf("nil logger should be noop: %v", err)
	}
	if err := New("").Log(Event{Operation: "deploy"}); err != nil {
		t.Fatalf("empty-path logger should be noop: %v", err)
	}
}

func TestLogWritesJSONLines(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit", "events.log")
	logger := New(logPath)

	first := Event{
		Operation: "deploy",
		Phase:     "render",
		Status:    StatusOK,
		Code:      "DEPLOY_WRITTEN",
		Message:   "rendered",
		Fields: map[string]string{
			"target": "ide/vscode/mcp",
		},
	}
	second := Event{
		Operation: "deploy",
		Phase:     "cache",
		Status:    StatusOK,
	}

	if err := logger.Log(first); err != nil {
		t.Fatalf("log first event: %v", err)
	}
	if err := logger.Log(second); err != nil {
		t.Fatalf("log second event: %v", err)
	}

	blob, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(blob)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}

	var gotFirst Event
	if err := json.Unmarshal([]byte(lines[0]), &gotFirst); err != nil {
		t.Fatalf("unmarshal first event: %v", err)
	}
	if gotFirst.Timestamp == "" {
		t.Fatalf("expected timestamp to be set")
	}
	if _, err := time.Parse(time.RFC3339Nano, gotFirst.Timestamp); err != nil {
		t.Fatalf("timestamp should be RFC3339Nano: %v", err)
	}
	if gotFirst.Operation != first.Operation || gotFirst.Phase != first.Phase || gotFirst.Status != first.Status {
		t.Fatalf("unexpected first event body: %+v", gotFirst)
	}
	if gotFirst.Code != first.Code || gotFirst.Message != first.Message {
		t.Fatalf("unexpected first event metadata: %+v", gotFirst)
	}
	if gotFirst.RunID == "" || gotFirst.RunID != logger.RunID() {
		t.Fatalf("expected run id %q, got %q", logger.RunID(), gotFirst.RunID)
	}
	if gotFirst.Fields["target"] != "ide/vscode/mcp" {
		t.Fatalf("unexpected first event fields: %+v", gotFirst.Fields)
	}

	var gotSecond Event
	if err := json.Unmarshal([]byte(lines[1]), &gotSecond); err != nil {
		t.Fatalf("unmarshal second event: %v", err)
	}
	if gotSecond.Operation != second.Operation || gotSecond.Phase != second.Phase || gotSecond.Status != second.Status {
		t.Fatalf("unexpected second event body: %+v", gotSecond)
	}
}

func TestLogMkdirAllFailure(t *testing.T) {
	tmp := t.TempDir()
	blockedPath := filepath.Join(tmp, "blocked")
	if err := os.WriteFile(blockedPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("create blocking file: %v", err)
	}

	logger := New(filepath.Join(blockedPath, "events.log"))
	if err := logger.Log(Event{Operation: "deploy"}); err == nil {
		t.Fatalf("expected mkdir failure")
	}
}

func TestLogOpenFileFailure(t *testing.T) {
	tmp := t.TempDir()
	dirPath := filepath.Join(tmp, "log-dir")
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		t.Fatalf("create directory path: %v", err)
	}

	logger := New(dirPath)
	if err := logger.Log(Event{Operation: "deploy"}); err == nil {
		t.Fatalf("expected open file failure")
	}
}

func TestReadAndLastRun(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")

	events, err := Read(logPath)
	if err != nil || len(events) != 0 {
		t.Fatalf("missing log should be empty, got (%v, %v)", events, err)
	}

	first := New(logPath)
	second := New(logPath)
	if first.RunID() == second.RunID() {
		t.Fatalf("run ids should differ")
	}
	for _, ev := range []struct {
		logger *Logger
		phase  string
	}{
		{first, "render"},
		{first, "cache"},
		{second, "render"},
	} {
		if err := ev.logger.Log(Event{Operation: "deploy", Phase: ev.phase, Status: StatusOK}); err != nil {
			t.Fatalf("log: %v", err)
		}
	}

	events, err = Read(logPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	last := LastRun(events)
	if len(last) != 1 || last[0].RunID != second.RunID() {
		t.Fatalf("unexpected last run %+v", last)
	}
	if LastRun(nil) != nil {
		t.Fatalf("expected nil for no events")
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	if err := os.WriteFile(logPath, []byte("{\"operation\":\"deploy\"}\nnot json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Read(logPath)
	if err == nil || !strings.Contains(err.Error(), "audit.log:2") {
		t.Fatalf("expected parse error on line 2, got %v", err)
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"WARNING", WarnLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"  Error ", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid JSON log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogrusLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel, FormatJSON)

	logger.Info("graph built", Count(3), NodeID("N1"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d", len(lines))
	}
	entry := lines[0]
	if entry["msg"] != "graph built" {
		t.Errorf("Expected msg 'graph built', got %v", entry["msg"])
	}
	if entry["level"] != "info" {
		t.Errorf("Expected level info, got %v", entry["level"])
	}
	if entry["node_id"] != "N1" {
		t.Errorf("Expected node_id N1, got %v", entry["node_id"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("Expected count 3, got %v", entry["count"])
	}
}

func TestLogrusLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, WarnLevel, FormatJSON)

	logger.Debug("hidden")
	logger.Info("hidden")
	logger.Warn("shown")
	logger.Error("shown too", Error(errors.New("boom")))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %s", len(lines), buf.String())
	}
	if lines[1]["error"] != "boom" {
		t.Errorf("Expected error field 'boom', got %v", lines[1]["error"])
	}

	logger.SetLevel(DebugLevel)
	if logger.GetLevel() != DebugLevel {
		t.Errorf("Expected DebugLevel after SetLevel, got %v", logger.GetLevel())
	}
}

func TestLogrusLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel, FormatJSON)

	child := logger.With(Component("analysis"))
	child.Info("done", Route("N1", "N2"))
	logger.Info("parent")

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if lines[0]["component"] != "analysis" {
		t.Errorf("Expected child to carry component, got %v", lines[0]["component"])
	}
	if lines[0]["route"] != "N1->N2" {
		t.Errorf("Expected route N1->N2, got %v", lines[0]["route"])
	}
	if _, ok := lines[1]["component"]; ok {
		t.Error("Parent logger should not inherit child fields")
	}
}

func TestLogrusLoggerText(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel, FormatText)
	logger.Info("hello", String("k", "v"))

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "k=v") {
		t.Errorf("Unexpected text output: %q", out)
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, InfoLevel, FormatJSON)

	op := StartTimer(logger, "compute metrics", Operation("metrics"))
	time.Sleep(time.Millisecond)
	op.End(Count(4))

	op = StartTimer(logger, "compute metrics", Operation("metrics"))
	op.EndError(errors.New("empty graph"))

	lines := decodeLines(t, &buf)
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d", len(lines))
	}
	if _, ok := lines[0]["latency"]; !ok {
		t.Error("Expected latency field on End")
	}
	if lines[0]["count"] != float64(4) {
		t.Errorf("Expected extra count field, got %v", lines[0]["count"])
	}
	if lines[1]["level"] != "error" || lines[1]["error"] != "empty graph" {
		t.Errorf("Unexpected EndError entry: %v", lines[1])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Info("nothing")
	if logger.With(Component("x")) == nil {
		t.Error("NopLogger.With should not return nil")
	}
	if logger.GetLevel() != InfoLevel {
		t.Errorf("Expected InfoLevel, got %v", logger.GetLevel())
	}
}

func TestSetDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	custom := New(&buf, InfoLevel, FormatJSON)
	SetDefaultLogger(custom)
	defer SetDefaultLogger(NewNopLogger())

	DefaultLogger().Info("via default")
	if !strings.Contains(buf.String(), "via default") {
		t.Errorf("Expected default logger to write to custom buffer, got %q", buf.String())
	}
}

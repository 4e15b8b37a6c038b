package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func decodeEntries(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid log line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

// TestStructuredLogger_Levels tests level filtering
func TestStructuredLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("almanac-test", "test", WarnLevel)
	logger.SetOutput(&buf)

	ctx := context.Background()
	logger.Debug(ctx, "[TEST] debug", nil)
	logger.Info(ctx, "[TEST] info", nil)
	logger.Warn(ctx, "[TEST] warn", Fields{"days": 3})
	logger.Error(ctx, "[TEST] error", nil, errors.New("boom"))

	entries := decodeEntries(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want %d", len(entries), 2)
	}
	if entries[0].Level != "WARN" || entries[0].Message != "[TEST] warn" {
		t.Errorf("entry[0] = %+v", entries[0])
	}
	if entries[0].Fields["days"] != float64(3) {
		t.Errorf("fields = %v, want days=3", entries[0].Fields)
	}
	if entries[1].Error != "boom" {
		t.Errorf("Error = %v, want %v", entries[1].Error, "boom")
	}
	if entries[1].File == "" || entries[1].Line == 0 {
		t.Error("error entries should carry caller information")
	}
}

// TestStructuredLogger_Context tests request and component propagation
func TestStructuredLogger_Context(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger("almanac-test", "test", DebugLevel)
	logger.SetOutput(&buf)

	ctx := WithComponent(WithRequestID(context.Background(), "req-123"), "generator")
	if got := RequestIDFromContext(ctx); got != "req-123" {
		t.Errorf("RequestIDFromContext() = %v, want %v", got, "req-123")
	}

	logger.WithFields(Fields{"region": "zone"}).Info(ctx, "[TEST] hello", Fields{"days": 1})

	entries := decodeEntries(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want %d", len(entries), 1)
	}
	e := entries[0]
	if e.RequestID != "req-123" {
		t.Errorf("RequestID = %v, want %v", e.RequestID, "req-123")
	}
	if e.Component != "generator" {
		t.Errorf("Component = %v, want %v", e.Component, "generator")
	}
	if e.Fields["region"] != "zone" || e.Fields["days"] != float64(1) {
		t.Errorf("Fields = %v, want merged fields", e.Fields)
	}
	if e.Service != "almanac-test" {
		t.Errorf("Service = %v, want %v", e.Service, "almanac-test")
	}
}

// TestParseLevel tests config level parsing
func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", DebugLevel, false},
		{"INFO", InfoLevel, false},
		{"", InfoLevel, false},
		{"warning", WarnLevel, false},
		{"error", ErrorLevel, false},
		{"verbose", InfoLevel, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

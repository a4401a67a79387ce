package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestNewLoggerWritesServiceField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "tailor-api", "warn")

	logger.Info("dropped")
	logger.Warn("export_failed", "format", "pdf")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if record["service"] != "tailor-api" || record["msg"] != "export_failed" || record["format"] != "pdf" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, " WARNING ": slog.LevelWarn, "error": slog.LevelError, "": slog.LevelInfo}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

package log_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/hsgames/knot/log"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := log.New(log.WithWriter(&buf), log.WithAttrs("app", "knot"))
	logger.Info("tcp: listener ready", slog.String("port", "8080"))

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("unmarshal %q: %v", buf.String(), err)
	}

	if m["msg"] != "tcp: listener ready" || m["port"] != "8080" || m["app"] != "knot" {
		t.Fatalf("unexpected record %v", m)
	}

	if _, ok := m["source"]; !ok {
		t.Fatalf("source missing in %v", m)
	}
}

func TestNewTextLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := log.New(log.WithWriter(&buf), log.WithFormat(log.FormatText),
		log.WithSource(false), log.WithLevel(slog.LevelWarn))
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "msg=kept") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
	}

	for s, want := range cases {
		got, err := log.ParseLevel(s)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", s, got, err)
		}
	}

	if _, err := log.ParseLevel("verbose"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewWithWriterLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")
	log.Info().Msg("hidden")
	log.Warn().Str("descriptor", "D000001").Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") || !strings.Contains(out, "D000001") {
		t.Fatalf("out=%q", out)
	}
}

func TestNewWithWriterUnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "loud")
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	out := buf.String()
	if strings.Contains(out, "debug") || !strings.Contains(out, "info") {
		t.Fatalf("out=%q", out)
	}
}

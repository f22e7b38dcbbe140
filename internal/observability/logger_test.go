package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestServiceLoggerTagsEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := ServiceLogger(zerolog.New(&buf), "plotctl-serve", "edge-1")
	logger.Info().Msg("ready")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry["service"] != "plotctl-serve" || entry["node"] != "edge-1" || entry["message"] != "ready" {
		t.Fatalf("unexpected entry: %v", entry)
	}

	buf.Reset()
	sendLogger := ServiceLogger(zerolog.New(&buf), "plotctl-send", "")
	sendLogger.Info().Msg("x")
	entry = nil
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if _, ok := entry["node"]; ok {
		t.Fatalf("empty node must be omitted: %v", entry)
	}
}

package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "engine-test", Level: zerolog.InfoLevel, Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-1")
	ctx = logg.WithPatientID(ctx, "p-42")
	ctx = logg.WithStation(ctx, "CT")
	logg.Info(ctx, "transition committed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if entry["request_id"] != "req-1" || entry["patient_id"] != "p-42" || entry["station"] != "CT" {
		t.Fatalf("missing context fields: %v", entry)
	}
	if entry["service"] != "engine-test" {
		t.Fatalf("missing service field: %v", entry)
	}
}

func TestParseLevelFallsBackToInfo(t *testing.T) {
	if got := ParseLevel("definitely-not-a-level"); got != zerolog.InfoLevel {
		t.Fatalf("unexpected level: %v", got)
	}
	if got := ParseLevel("debug"); got != zerolog.DebugLevel {
		t.Fatalf("unexpected level: %v", got)
	}
}

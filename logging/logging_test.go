package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name    string
		want    Level
		wantErr bool
	}{
		{name: "debug", want: DebugLevel},
		{name: "INFO", want: InfoLevel},
		{name: "warning", want: WarnLevel},
		{name: " error ", want: ErrorLevel},
		{name: "fatal", want: FatalLevel},
		{name: "", want: InfoLevel},
		{name: "verbose", want: InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestDefaultLogger_LevelsAndFields(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &errOut)

	logger.Debug("hidden")
	if out.Len() != 0 {
		t.Fatalf("debug written below info level: %q", out.String())
	}

	child := logger.WithFields(Fields{"component": "tempo_tracker"})
	child.Info("tempo changed", Fields{"bpm": 120})

	line := out.String()
	if !strings.Contains(line, "[INFO] tempo changed") {
		t.Errorf("unexpected info line: %q", line)
	}
	if !strings.Contains(line, "component:tempo_tracker") || !strings.Contains(line, "bpm:120") {
		t.Errorf("fields missing from line: %q", line)
	}

	child.Error(errors.New("bad frame"), "analysis failed")
	if !strings.Contains(errOut.String(), "[ERROR] analysis failed: bad frame") {
		t.Errorf("unexpected error line: %q", errOut.String())
	}

	// parent keeps its own fields
	out.Reset()
	logger.Info("plain")
	if strings.Contains(out.String(), "component") {
		t.Errorf("child fields leaked into parent: %q", out.String())
	}
}

func TestDefaultLogger_FatalUsesExit(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &errOut)

	code := -1
	logger.exit = func(c int) { code = c }
	logger.Fatal(errors.New("boom"), "cannot continue")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(errOut.String(), "[FATAL] cannot continue: boom") {
		t.Errorf("unexpected fatal line: %q", errOut.String())
	}
}

func TestWithContext(t *testing.T) {
	var out bytes.Buffer
	logger := NewDefaultLoggerWithWriters(&out, &out)

	ctx := ContextWithFields(context.Background(), Fields{"session": "abc"})
	ctx = ContextWithFields(ctx, Fields{"frame": 7})

	logger.WithContext(ctx).Info("frame analysed")
	line := out.String()
	if !strings.Contains(line, "session:abc") || !strings.Contains(line, "frame:7") {
		t.Errorf("context fields missing: %q", line)
	}

	if _, ok := FieldsFromContext(context.Background()); ok {
		t.Error("empty context reported fields")
	}
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf))

	logger.WithFields(Fields{"component": "beat_predictor"}).Info("lock acquired", Fields{"bpm": 120.0})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("zerolog output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "lock acquired" {
		t.Errorf("message = %v", entry["message"])
	}
	if entry["component"] != "beat_predictor" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v", entry["level"])
	}

	buf.Reset()
	logger.SetLevel(WarnLevel)
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info written above warn level: %q", buf.String())
	}
}

func TestLoggerFromAppLogger(t *testing.T) {
	zl := zerolog.Nop()
	if _, ok := LoggerFromAppLogger(&zl).(*ZerologLogger); !ok {
		t.Error("zerolog pointer not adapted")
	}

	noop := &NoOpLogger{}
	if LoggerFromAppLogger(noop) != Logger(noop) {
		t.Error("Logger implementation not returned as-is")
	}

	if _, ok := LoggerFromAppLogger("not a logger").(*DefaultLogger); !ok {
		t.Error("unknown type did not fall back to default logger")
	}
}

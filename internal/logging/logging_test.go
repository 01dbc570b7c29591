package logging

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/basaltgeo/geopack/internal/model"
)

func TestSetLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"invalid", LevelInfo}, // unrecognized levels default to info
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			l := &Logger{logger: log.New(&bytes.Buffer{}, "", 0)}
			l.SetLevelFromString(tt.input)
			if l.GetLevel() != tt.expected {
				t.Errorf("SetLevelFromString(%q) = %v, want %v", tt.input, l.GetLevel(), tt.expected)
			}
		})
	}
}

func TestLoggingOutput(t *testing.T) {
	var buf bytes.Buffer
	testLogger := &Logger{
		level:  LevelDebug,
		logger: log.New(&buf, "", 0),
	}

	testLogger.Debug("test debug %d", 1)
	if !strings.Contains(buf.String(), "[DEBUG]") || !strings.Contains(buf.String(), "test debug 1") {
		t.Errorf("Debug() output = %q, want to contain [DEBUG] and 'test debug 1'", buf.String())
	}

	testLogger.SetLevel(LevelInfo)
	buf.Reset()
	testLogger.Debug("should not appear")
	if buf.Len() != 0 {
		t.Errorf("Debug() at Info level should produce no output, got %q", buf.String())
	}

	buf.Reset()
	testLogger.Info("test info")
	if !strings.Contains(buf.String(), "[INFO]") {
		t.Errorf("Info() output = %q, want to contain [INFO]", buf.String())
	}

	buf.Reset()
	testLogger.Warn("test warn")
	if !strings.Contains(buf.String(), "[WARN]") {
		t.Errorf("Warn() output = %q, want to contain [WARN]", buf.String())
	}

	buf.Reset()
	testLogger.Error("test error")
	if !strings.Contains(buf.String(), "[ERROR]") {
		t.Errorf("Error() output = %q, want to contain [ERROR]", buf.String())
	}
}

func TestGetLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
	}

	l := &Logger{logger: log.New(&bytes.Buffer{}, "", 0)}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			l.SetLevel(tt.level)
			if got := l.GetLevelString(); got != tt.expected {
				t.Errorf("GetLevelString() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestStageIncludesElapsedAndDetail(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelInfo, logger: log.New(&buf, "", 0)}

	l.Stage("tile", 2500*time.Microsecond, "partitioned %d entities into %d tiles", 12, 3)

	out := buf.String()
	for _, want := range []string{"[INFO]", "tile:", "partitioned 12 entities into 3 tiles", "2.5ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("Stage() output = %q, want it to contain %q", out, want)
		}
	}
}

func TestStageSuppressedBelowInfo(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelWarn, logger: log.New(&buf, "", 0)}

	l.Stage("encode", time.Millisecond, "format v6")
	if buf.Len() != 0 {
		t.Errorf("Stage() at Warn level should produce no output, got %q", buf.String())
	}
}

func TestWarningsLogsEachEntry(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelWarn, logger: log.New(&buf, "", 0)}

	l.Warnings([]model.Warning{
		{Kind: model.WarningUnknownPrimitive, Message: `entity "bolt-a" references unknown primitive "missing"`},
	})

	out := buf.String()
	if !strings.Contains(out, "[WARN]") || !strings.Contains(out, string(model.WarningUnknownPrimitive)) || !strings.Contains(out, "missing") {
		t.Errorf("Warnings() output = %q, want it to contain the warning kind and message", out)
	}
}

func TestWarningsEmptyProducesNoOutput(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{level: LevelWarn, logger: log.New(&buf, "", 0)}

	l.Warnings(nil)
	if buf.Len() != 0 {
		t.Errorf("Warnings(nil) should produce no output, got %q", buf.String())
	}
}

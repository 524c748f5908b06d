package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", DebugLevel},
		{"INFO", InfoLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"bogus", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}

func TestTextFormatFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	Init("warn", "text")
	SetOutput(&buf)

	Info("hidden %d", 1)
	Warn("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Info message should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 2") {
		t.Errorf("Expected warn line, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("debug", "json")
	SetOutput(&buf)

	Debug("loaded %d records", 3)

	var line map[string]string
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("Output is not JSON: %v (%q)", err, buf.String())
	}
	if line["level"] != "debug" || line["msg"] != "loaded 3 records" {
		t.Errorf("Unexpected line: %v", line)
	}
	if line["time"] == "" {
		t.Error("Expected time field")
	}
}

func TestStdLoggerWritesErrors(t *testing.T) {
	var buf bytes.Buffer
	Init("info", "text")
	SetOutput(&buf)

	StdLogger().Print("http: TLS handshake error")

	if !strings.Contains(buf.String(), "[ERROR] http: TLS handshake error") {
		t.Errorf("Expected error line, got %q", buf.String())
	}
}

func TestFatalTagAndCaller(t *testing.T) {
	var buf bytes.Buffer
	Init("error", "text")
	SetOutput(&buf)

	code := -1
	exit = func(c int) { code = c }
	defer func() { exit = os.Exit }()

	Fatal("cannot start: %s", "boom")

	out := buf.String()
	if !strings.Contains(out, "[FATAL] cannot start: boom") {
		t.Errorf("Expected fatal tag, got %q", out)
	}
	if !strings.Contains(out, "logger_test.go:") {
		t.Errorf("Expected caller file in fatal line, got %q", out)
	}
	if code != 1 {
		t.Errorf("Expected exit code 1, got %d", code)
	}
}

func TestCallerIsReported(t *testing.T) {
	var buf bytes.Buffer
	Init("info", "text")
	SetOutput(&buf)

	Info("where am I")

	if !strings.Contains(buf.String(), "logger_test.go:") {
		t.Errorf("Expected caller file in line, got %q", buf.String())
	}
}

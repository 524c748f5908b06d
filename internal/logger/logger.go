// Package logger provides leveled logging with support for debug, info, warn, and error levels.
// Output is either classic text lines from the standard log package or one JSON object per line.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are typically voluminous, and are usually disabled in production.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info, but don't need individual human review.
	WarnLevel
	// ErrorLevel logs are high-priority. If an application is running smoothly, it shouldn't generate any error-level logs.
	ErrorLevel
	// FatalLevel logs are always written and are followed by process exit.
	FatalLevel
)

// exit is replaced in tests.
var exit = os.Exit

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case FatalLevel:
		return "fatal"
	default:
		return "info"
	}
}

// ParseLevel maps a config string to a Level, defaulting to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	json   bool
	out    io.Writer
	logger *log.Logger
	mu     sync.Mutex
}

var (
	// Global logger instance
	defaultLogger *Logger
)

// Init initializes the default logger with the specified level and format ("text" or "json")
func Init(level string, format string) {
	defaultLogger = newLogger(ParseLevel(level), format, os.Stderr)
}

// SetOutput redirects the default logger, keeping its level and format.
func SetOutput(w io.Writer) {
	if defaultLogger == nil {
		defaultLogger = newLogger(InfoLevel, "text", w)
		return
	}
	defaultLogger = newLogger(defaultLogger.level, formatName(defaultLogger.json), w)
}

func formatName(isJSON bool) string {
	if isJSON {
		return "json"
	}
	return "text"
}

func newLogger(level Level, format string, w io.Writer) *Logger {
	isJSON := strings.ToLower(format) == "json"

	flags := log.LstdFlags | log.Lmicroseconds
	if !isJSON {
		flags |= log.Lshortfile
	}

	return &Logger{
		level:  level,
		json:   isJSON,
		out:    w,
		logger: log.New(w, "", flags),
	}
}

type jsonLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Message string `json:"msg"`
}

func (l *Logger) write(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !l.json {
		_ = l.logger.Output(4, fmt.Sprintf("[%s] %s", strings.ToUpper(level.String()), msg))
		return
	}

	line, err := json.Marshal(jsonLine{
		Time:    time.Now().UTC().Format(time.RFC3339Nano),
		Level:   level.String(),
		Message: msg,
	})
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.out.Write(append(line, '\n'))
}

func logAt(level Level, format string, args ...interface{}) {
	if defaultLogger != nil && defaultLogger.level <= level {
		defaultLogger.write(level, format, args...)
	}
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	logAt(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	logAt(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	logAt(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	logAt(ErrorLevel, format, args...)
}

// Fatal logs a message at FatalLevel and exits
func Fatal(format string, args ...interface{}) {
	if defaultLogger == nil {
		log.Printf("[FATAL] "+format, args...)
	} else {
		logAt(FatalLevel, format, args...)
	}
	exit(1)
}

// StdLogger returns a standard library logger that writes at ErrorLevel,
// for use as http.Server.ErrorLog.
func StdLogger() *log.Logger {
	return log.New(errorWriter{}, "", 0)
}

type errorWriter struct{}

func (errorWriter) Write(p []byte) (int, error) {
	Error("%s", strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

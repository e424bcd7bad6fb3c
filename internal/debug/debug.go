package debug

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/votermatch/internal/config"
)

// NewLogger builds the process logger from LogConfig and installs it as the
// slog default. Format "json" writes JSON lines, anything else text with
// source locations. Output is always stderr.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: !strings.EqualFold(cfg.Format, "json"),
	}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug/info/warn/error to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// DebugHeader marks the start of a traced section
func DebugHeader(enabled bool) {
	if enabled {
		slog.Debug("=== DEBUG START ===")
	}
}

// DebugFooter marks the end of a traced section
func DebugFooter(enabled bool) {
	if enabled {
		slog.Debug("=== DEBUG END ===")
	}
}

// DebugOutput writes a formatted trace line at debug level if enabled
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		slog.Debug(fmt.Sprintf(format, args...))
	}
}

// DebugTiming logs the duration of an operation when the returned func is called
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}

	start := time.Now()
	DebugOutput(enabled, "Starting: %s", operation)

	return func() {
		slog.Debug("completed", "operation", operation, "took", time.Since(start))
	}
}

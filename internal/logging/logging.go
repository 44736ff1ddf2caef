// Package logging configures the process-wide slog logger. Standard output
// carries MCP protocol frames, so logs only ever go to stderr or a file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// Common log attribute keys.
const (
	KeyTool     = "tool"
	KeyStatus   = "status"
	KeyError    = "error"
	KeyDuration = "duration"
)

// Status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ParseLevel converts a level name (debug, info, warn, error) to slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", s)
	}
}

// New returns a text logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup builds the logger for the given level and optional log file and
// installs it as the slog default. The returned func closes the file.
func Setup(levelName, logFile string) (*slog.Logger, func(), error) {
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, nil, err
	}

	if logFile == "" {
		logger := New(os.Stderr, level)
		slog.SetDefault(logger)
		return logger, func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	logger := New(f, level)
	slog.SetDefault(logger)
	return logger, func() { _ = f.Close() }, nil
}

// Tool returns a slog attribute for the tool name.
func Tool(name string) slog.Attr {
	return slog.String(KeyTool, name)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Duration returns a slog attribute for an elapsed time.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// Err returns a slog attribute for err. A nil error yields an empty group,
// which slog omits.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

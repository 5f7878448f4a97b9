// Package logging configures the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Verbosity is the operator's choice of diagnostic detail.
type Verbosity int

const (
	Quiet Verbosity = iota - 1
	Normal
	Verbose
)

// Level maps a verbosity to the slog level name it enables.
func (v Verbosity) Level() string {
	switch {
	case v < Normal:
		return LevelWarn
	case v > Normal:
		return LevelDebug
	default:
		return LevelInfo
	}
}

func (v Verbosity) String() string {
	switch {
	case v < Normal:
		return "quiet"
	case v > Normal:
		return "verbose"
	default:
		return "normal"
	}
}

// Configure installs a process-wide slog default logger writing text records
// to w, and returns it.
//
// Supported levels: debug, info, warn, error.
func Configure(w io.Writer, level string) (*slog.Logger, error) {
	parsed, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: parsed})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}

// Discard installs a logger that drops every record, for full-screen modes
// where stray output would corrupt the display.
func Discard() *slog.Logger {
	logger := slog.New(slog.DiscardHandler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}

package logger

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Severity thresholds, ordered DEBUG < INFO < WARNING < ERROR < CRITICAL.
const (
	LevelDebug    = slog.LevelDebug
	LevelInfo     = slog.LevelInfo
	LevelWarning  = slog.LevelWarn
	LevelError    = slog.LevelError
	LevelCritical = slog.Level(12)
)

// ErrInvalidLevel is returned by ResolveSeverity for unrecognised names.
var ErrInvalidLevel = errors.New("invalid log level")

// ResolveSeverity maps a case-insensitive level name to its threshold.
// Anything else, including the empty string, yields LevelInfo together with
// an error wrapping ErrInvalidLevel.
func ResolveSeverity(raw string) (slog.Level, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARNING", "WARN":
		return LevelWarning, nil
	case "ERROR":
		return LevelError, nil
	case "CRITICAL", "FATAL":
		return LevelCritical, nil
	default:
		return LevelInfo, fmt.Errorf("%w %q", ErrInvalidLevel, raw)
	}
}

// LevelName returns the canonical name printed in log lines.
func LevelName(level slog.Level) string {
	switch {
	case level < LevelInfo:
		return "DEBUG"
	case level < LevelWarning:
		return "INFO"
	case level < LevelError:
		return "WARNING"
	case level < LevelCritical:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

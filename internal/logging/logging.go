// Package logging builds the structured logger used across the bridge.
//
// Operators choose one of three verbosities: minimal, normal or verbose.
// They map onto custom slog levels so that standard Warn and Error records
// still pass through at every verbosity.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	// LevelVerbose is for request dumps and other structured payloads.
	LevelVerbose = slog.LevelDebug
	// LevelNormal is for per-request and per-batch progress.
	LevelNormal = slog.LevelInfo
	// LevelMinimal is for startup and shutdown lines.
	LevelMinimal = slog.Level(2)
)

var levelNames = map[slog.Level]string{
	LevelVerbose: "VERBOSE",
	LevelNormal:  "NORMAL",
	LevelMinimal: "MINIMAL",
}

// ParseLevel maps a configured verbosity name onto a slog level.
// The slog names debug, info, warn and error are accepted as aliases.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "minimal":
		return LevelMinimal, nil
	case "", "normal", "info":
		return LevelNormal, nil
	case "verbose", "debug":
		return LevelVerbose, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return LevelNormal, fmt.Errorf("unknown log level %q", name)
	}
}

// New returns a JSON logger writing to w that drops records below level.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: renameLevels,
	})
	return slog.New(handler)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// Minimal logs msg at the minimal verbosity.
func Minimal(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelMinimal, msg, args...)
}

// Normal logs msg at the normal verbosity.
func Normal(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelNormal, msg, args...)
}

// Verbose logs msg with its structured data only when verbose output is enabled.
func Verbose(l *slog.Logger, msg string, args ...any) {
	l.Log(context.Background(), LevelVerbose, msg, args...)
}

func renameLevels(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if name, ok := levelNames[level]; ok {
		a.Value = slog.StringValue(name)
	}
	return a
}

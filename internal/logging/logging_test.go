package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"minimal", LevelMinimal},
		{"normal", LevelNormal},
		{"", LevelNormal},
		{"VERBOSE", LevelVerbose},
		{"debug", LevelVerbose},
		{"info", LevelNormal},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseLevel_Unknown(t *testing.T) {
	t.Parallel()

	got, err := ParseLevel("chatty")
	require.Error(t, err)
	require.Equal(t, LevelNormal, got)
}

func TestLevelsAreOrdered(t *testing.T) {
	t.Parallel()

	require.Less(t, int(LevelVerbose), int(LevelNormal))
	require.Less(t, int(LevelNormal), int(LevelMinimal))
	require.Less(t, int(LevelMinimal), int(slog.LevelWarn))
}

func TestNew_FiltersByVerbosity(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, LevelNormal)

	Minimal(l, "starting")
	Normal(l, "batch done")
	Verbose(l, "body fields", "subject", "hi")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "MINIMAL", first["level"])
	require.Equal(t, "starting", first["msg"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	require.Equal(t, "NORMAL", second["level"])
}

func TestNew_VerboseCarriesData(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, LevelVerbose)

	Verbose(l, "body fields", "subject", "hi")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "VERBOSE", rec["level"])
	require.Equal(t, "hi", rec["subject"])
}

func TestNew_MinimalKeepsWarnings(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New(&buf, LevelMinimal)

	Normal(l, "hidden")
	l.Warn("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"level":"WARN"`)
}

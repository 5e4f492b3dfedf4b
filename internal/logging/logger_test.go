package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLevel(in), in)
	}
}

func TestNewHandler_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, "warn", "json"))
	log.Info("dropped")
	log.Warn("kept", "batch", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	require.Equal(t, "kept", rec["msg"])
	require.EqualValues(t, 3, rec["batch"])
}

func TestNewHandler_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "info", "text")).Info("hello", "rows", 10)
	require.Contains(t, buf.String(), "msg=hello")
	require.Contains(t, buf.String(), "rows=10")
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Setup(&buf, "debug", "text")
	require.Same(t, logger, slog.Default())

	slog.Debug("visible")
	require.Contains(t, buf.String(), "msg=visible")
}

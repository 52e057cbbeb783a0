package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  slog.Level
	}{
		{name: "debug", input: "debug", want: slog.LevelDebug},
		{name: "info", input: "info", want: slog.LevelInfo},
		{name: "warn", input: "warn", want: slog.LevelWarn},
		{name: "warning alias", input: "warning", want: slog.LevelWarn},
		{name: "error", input: "error", want: slog.LevelError},
		{name: "mixed case", input: "DEBUG", want: slog.LevelDebug},
		{name: "unknown defaults to info", input: "verbose", want: slog.LevelInfo},
		{name: "empty defaults to info", input: "", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.input))
		})
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given a file-backed logging config
	dir := t.TempDir()
	path := filepath.Join(dir, "core.log")
	cfg := DefaultConfig(path)

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	// When a record is logged and the writer is flushed
	logger.Info("engine_ready", "events", 42)
	cleanup()

	// Then the file contains a JSON record with our attrs
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &record))
	assert.Equal(t, "engine_ready", record["msg"])
	assert.Equal(t, float64(42), record["events"])
}

func TestSetup_LevelFiltering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.log")
	cfg := DefaultConfig(path)
	cfg.Level = "warn"

	logger, cleanup, err := Setup(cfg)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestSetup_NoFilePath(t *testing.T) {
	// Empty FilePath logs to stderr only and needs no cleanup.
	logger, cleanup, err := Setup(Config{Level: "info"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	cleanup()
}

func TestRotatingWriter_RotatesAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.log")

	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	// Force the threshold low so a couple of writes trigger rotation.
	w.maxSize = 64

	line := strings.Repeat("x", 40) + "\n"
	for i := 0; i < 4; i++ {
		_, err := w.Write([]byte(line))
		require.NoError(t, err)
	}

	// Then a rotated file exists next to the live file
	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err)
}

func TestRotatingWriter_CapsRotatedFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.log")

	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer w.Close()

	w.maxSize = 16

	for i := 0; i < 10; i++ {
		_, err := w.Write([]byte(strings.Repeat("y", 12) + "\n"))
		require.NoError(t, err)
	}

	// .1 and .2 may exist, .3 never does
	_, err = os.Stat(path + ".2")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err))
}

func TestRotatingWriter_AppendsToExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "core.log")
	require.NoError(t, os.WriteFile(path, []byte("first\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 3)
	require.NoError(t, err)

	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

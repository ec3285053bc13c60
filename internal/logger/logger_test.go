package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewSlog(t *testing.T) {
	t.Run("json output with level filter", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewSlog(SlogConfig{Level: "warn", Format: "json", Output: &buf})

		log.Info("dropped")
		log.Warn("kept", "collection_id", "42")

		lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
		require.Len(t, lines, 1)

		var entry map[string]any
		require.NoError(t, json.Unmarshal(lines[0], &entry))
		assert.Equal(t, "kept", entry["msg"])
		assert.Equal(t, "42", entry["collection_id"])
		assert.NotEmpty(t, entry["time"])
	})

	t.Run("text output", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewSlog(SlogConfig{Format: "text", Output: &buf})

		log.Info("hello", "page", 2)
		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "page=2")
	})
}

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/roiread/pkg/config"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range testCases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("chatty")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(config.Logging{Level: "info", Format: "json"}, &buf)
		require.NoError(t, err)

		logger.Debug("hidden")
		logger.Info("decoded", "entries", 3)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "decoded", line["msg"])
		assert.Equal(t, float64(3), line["entries"])
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := New(config.Logging{Level: "debug"}, &buf)
		require.NoError(t, err)

		logger.Debug("visible")
		assert.Contains(t, buf.String(), "msg=visible")
	})

	t.Run("bad format", func(t *testing.T) {
		_, err := New(config.Logging{Format: "xml"}, &bytes.Buffer{})
		assert.Error(t, err)
	})
}

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"DEBUG", LevelDebug},
		{"Warning", LevelWarn},
		{"dEbUg", LevelDebug},
		{" error ", LevelError},
		{"", LevelInfo},
		{"trace", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatJSON, ParseFormat("Json"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat(""))
	assert.Equal(t, FormatText, ParseFormat("yaml"))
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})

	logger.Debug("hidden")
	logger.Info("override selected", "path", "/users")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "override selected", rec["msg"])
	assert.Equal(t, "/users", rec["path"])
}

func TestNew_Extra(t *testing.T) {
	var primary, extra bytes.Buffer
	logger := New(Config{Level: LevelWarn, Output: &primary, Extra: []io.Writer{&extra}}).With("component", "store")

	logger.Info("dropped")
	logger.Warn("write failed")

	assert.Contains(t, primary.String(), "write failed")
	assert.Contains(t, extra.String(), "write failed")
	assert.Contains(t, extra.String(), "component=store")
	assert.NotContains(t, primary.String(), "dropped")
}

func TestNop(t *testing.T) {
	logger := Nop()
	assert.False(t, logger.Enabled(context.Background(), LevelError))
	logger.Error("nothing")
}

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(JSONFormat, false, &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("Rule evaluation failed", zap.String("rule", "r1"))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "r1", entry["rule"])
}

func TestNew_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(TextFormat, true, &buf)
	require.NoError(t, err)

	logger.Debug("Scope evaluated", zap.Int("rules", 3))
	require.NoError(t, logger.Sync())
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "Scope evaluated")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, err := New("xml", false, &bytes.Buffer{})
	assert.ErrorContains(t, err, "not recognized")
}

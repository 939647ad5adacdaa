package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_ConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "campus.log")

	logger, err := New(Options{File: path, Level: "info", Console: &console})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("catalog opened", zap.Int("datasets", 5))
	require.NoError(t, logger.Sync())

	assert.Contains(t, console.String(), "catalog opened")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "catalog opened", entry["message"])
	assert.EqualValues(t, 5, entry["datasets"])
	assert.NotEmpty(t, entry["timestamp"])
}

func TestNew_ProductionConsoleIsJSON(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Options{Level: "warn", Production: true, Console: &console})
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("export skipped")
	require.NoError(t, logger.Sync())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(console.Bytes()), &entry))
	assert.Equal(t, "export skipped", entry["message"])
}

func TestNew_BadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

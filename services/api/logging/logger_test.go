package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/02loveslollipop/climate-observations-api/services/api/config"
)

func TestNewProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.Config{AppEnv: "prod", LogLevel: "info"}, "1.2.3")

	logger.Debug("hidden")
	logger.Info("listening", "addr", ":8080")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "listening", entry["msg"])
	assert.Equal(t, "climate-api", entry["app"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "prod", entry["env"])
	assert.Equal(t, ":8080", entry["addr"])
}

func TestNewDevHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.Config{AppEnv: "dev", LogLevel: "warn"}, "dev")

	logger.Info("quiet")
	assert.Zero(t, buf.Len())

	logger.Warn("loud")
	assert.Contains(t, buf.String(), "loud")
}

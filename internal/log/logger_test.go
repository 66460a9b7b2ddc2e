package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_JSONIncludesRunIDAndComponent(t *testing.T) {
	var buf bytes.Buffer
	id := Configure(Config{Level: "debug", Output: &buf, RunID: "run-123", JSON: true})
	require.Equal(t, "run-123", id)
	require.Equal(t, "run-123", RunID())

	l := WithComponent("gitctx")
	l.Debug().Str("cmd", "diff").Msg("running git")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "run-123", entry["run_id"])
	assert.Equal(t, "gitctx", entry["component"])
	assert.Equal(t, "running git", entry["message"])
}

func TestConfigure_DefaultLevelIsWarn(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	var buf bytes.Buffer
	Configure(Config{Output: &buf, JSON: true})

	l := Base()
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestConfigure_EnvLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "DEBUG")
	var buf bytes.Buffer
	Configure(Config{Output: &buf, JSON: true})

	l := Base()
	l.Debug().Msg("visible")
	assert.True(t, strings.Contains(buf.String(), "visible"))
}

func TestConfigure_GeneratesRunID(t *testing.T) {
	var buf bytes.Buffer
	id := Configure(Config{Output: &buf})
	assert.Len(t, id, 36)
}

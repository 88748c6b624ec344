package debug

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure_Text(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Enabled: true, Output: &buf})
	t.Cleanup(func() { Init(false) })

	assert.True(t, Enabled())
	Debug("compiled query", "soql", "SELECT Id FROM Account")
	assert.Contains(t, buf.String(), "compiled query")
	assert.Contains(t, buf.String(), "SELECT Id FROM Account")
}

func TestConfigure_DisabledDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Output: &buf})
	t.Cleanup(func() { Init(false) })

	assert.False(t, Enabled())
	Debug("hidden")
	Warn("hidden too")
	assert.Empty(t, buf.String())

	Error("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConfigure_JSON(t *testing.T) {
	var buf bytes.Buffer
	Configure(Options{Enabled: true, Format: "json", Output: &buf})
	t.Cleanup(func() { Init(false) })

	With("component", "reconciler").Info("batch reconciled", "succeeded", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "batch reconciled", entry["msg"])
	assert.Equal(t, "reconciler", entry["component"])
	assert.Equal(t, float64(2), entry["succeeded"])
}

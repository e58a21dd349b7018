package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info")

	l.Info("resolved kotlin home", "home", "/opt/kotlin", "source", "KOTLIN_HOME")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "resolved kotlin home", line["message"])
	assert.Equal(t, "/opt/kotlin", line["home"])
	assert.Equal(t, "KOTLIN_HOME", line["source"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNew_OddArgs(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug").Error("boom", "key")
	assert.True(t, strings.Contains(buf.String(), "(missing)"))
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
	l.Error("discarded", "k", "v")
}

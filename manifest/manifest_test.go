package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "carbon.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return dir
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	m, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 256, m.Runtime.StackCapacity)
	assert.Equal(t, 1024, m.Runtime.StdinBuffer)
	assert.Equal(t, 1024, m.Runtime.MaxCallDepth)
	assert.False(t, m.Trace.Enabled)
	assert.Equal(t, "trace.cbor", m.Trace.Output)
	assert.Empty(t, m.Store.Path)
	assert.Equal(t, "warn", m.Log.Level)
	assert.Empty(t, m.Path)
}

func TestLoadOverrides(t *testing.T) {
	dir := writeManifest(t, `
[runtime]
stack-capacity = 64
max-call-depth = 0

[trace]
enabled = true
output = "out.cbor"

[store]
path = "runs.db"

[log]
level = "debug"
`)

	m, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 64, m.Runtime.StackCapacity)
	assert.Equal(t, 1024, m.Runtime.StdinBuffer, "unset keys keep defaults")
	assert.Equal(t, 0, m.Runtime.MaxCallDepth)
	assert.True(t, m.Trace.Enabled)
	assert.Equal(t, "out.cbor", m.Trace.Output)
	assert.Equal(t, "runs.db", m.Store.Path)
	assert.Equal(t, "debug", m.Log.Level)
	assert.Equal(t, filepath.Join(dir, "carbon.toml"), m.Path)
}

func TestInvalidToml(t *testing.T) {
	dir := writeManifest(t, `[runtime`)

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"negative stack", "[runtime]\nstack-capacity = -1\n"},
		{"zero stdin buffer", "[runtime]\nstdin-buffer = 0\n"},
		{"negative call depth", "[runtime]\nmax-call-depth = -2\n"},
		{"unknown log level", "[log]\nlevel = \"loud\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeManifest(t, tt.content)
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

package profiles

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadControllersMissingFile(t *testing.T) {
	c, err := LoadControllers(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, c.Aliases)
}

func TestLoadControllersResolvesByName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controllers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
controllers:
  - name: drift_pad
    serial: ABC123
  - name: spare_pad
    path: /dev/input/js1
`), 0o644))

	c, err := LoadControllers(path)
	require.NoError(t, err)
	require.Len(t, c.Aliases, 2)

	alias, ok := c.ResolveAlias("spare_pad")
	require.True(t, ok)
	assert.Equal(t, "/dev/input/js1", alias.Path)

	_, ok = c.ResolveAlias("nonexistent")
	assert.False(t, ok)
}

func TestLoadDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctlmapper.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
controller = "drift_pad"
output_backend = "uinput"
`), 0o644))

	d, err := LoadDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, "drift_pad", d.Controller)
	assert.Equal(t, "uinput", d.OutputBackend)
}

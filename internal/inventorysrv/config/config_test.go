package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "inventorysrv.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Cleanup(func() { SetConfig(Default()) })

	t.Run("defaults", func(t *testing.T) {
		require.NoError(t, LoadConfig(""))
		assert.Equal(t, "8194", Config().ServerPort)
		assert.Equal(t, "sqlite", Config().DB.Driver)
		assert.True(t, Config().Bom.CycloneDXEnabled)
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeConfig(t, `
server_port = "9000"
log_level = "debug"

[db]
driver = "postgresql"
dsn = "postgres://inventory@localhost:5432/inventory"

[bom]
cyclonedx_enabled = false
workers = 2

[internal_components]
groups_regex = "^com\\.acme"
`)
		require.NoError(t, LoadConfig(path))
		c := Config()
		assert.Equal(t, "9000", c.ServerPort)
		assert.Equal(t, "postgresql", c.DB.Driver)
		assert.False(t, c.Bom.CycloneDXEnabled)
		assert.Equal(t, 2, c.Bom.Workers)
		assert.Equal(t, 64, c.Bom.QueueSize)
		assert.Equal(t, `^com\.acme`, c.InternalComponents.GroupsRegex)
	})

	t.Run("invalid values", func(t *testing.T) {
		tests := []string{
			"[db]\ndriver = \"mysql\"\n",
			"[bom]\nworkers = 0\n",
			"[internal_components]\nnames_regex = \"([\"\n",
			"log_level = \"loud\"\n",
		}
		for _, content := range tests {
			assert.Error(t, LoadConfig(writeConfig(t, content)), content)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, LoadConfig(filepath.Join(t.TempDir(), "nope.toml")))
	})
}

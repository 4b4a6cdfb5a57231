package path

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/config"
)

func TestLayoutPaths(t *testing.T) {
	home := filepath.Join(t.TempDir(), "vx-home")
	settings := config.Settings{Home: home, ProvidersPath: []string{"/extra/a", "/extra/b"}}
	l := New(settings)

	assert.Equal(t, home, l.StoreRoot())
	assert.Equal(t, filepath.Join(home, "providers"), l.UserManifestsDir())
	assert.Equal(t, []string{"/extra/a", "/extra/b"}, l.EnvManifestsDirs())
	assert.Equal(t, filepath.Join(home, "registry.json"), l.RegistryPackagesFile())
	assert.Equal(t, filepath.Join("/project", "vx.lock"), l.DefaultLockfilePath("/project"))
}

func TestEnsureHome(t *testing.T) {
	home := filepath.Join(t.TempDir(), "nested", "vx-home")
	l := New(config.Settings{Home: home})

	require.NoError(t, l.EnsureHome())

	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("VX_HOME", "")
	t.Setenv("VX_CACHE_DIR", "")
	t.Setenv("VX_PROVIDERS_PATH", "")
	t.Setenv("VX_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")
	t.Setenv("CI", "")

	s, err := Load()
	require.NoError(t, err)
	assert.NotEmpty(t, s.Home)
	assert.GreaterOrEqual(t, s.MaxConcurrency, 1)
	assert.LessOrEqual(t, s.MaxConcurrency, 4)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VX_HOME", "/tmp/vx-home")
	t.Setenv("VX_CACHE_DIR", "/tmp/vx-cache")
	t.Setenv("VX_NO_COLOR", "1")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/vx-home", s.Home)
	assert.Equal(t, "/tmp/vx-cache", s.CacheDir)
	assert.True(t, s.NoColor)
}

func TestLoad_OptionOverride(t *testing.T) {
	s, err := Load(WithHome("/custom/home"), WithMaxConcurrency(8))
	require.NoError(t, err)
	assert.Equal(t, "/custom/home", s.Home)
	assert.Equal(t, 8, s.MaxConcurrency)
}

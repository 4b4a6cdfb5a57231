package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/manifest"
)

func TestApply_Disabled(t *testing.T) {
	result, err := Apply(t.TempDir(), manifest.NormalizeConfig{Enabled: false}, Context{})
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)
}

func TestApply_ExecutableLinkRule(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "dist"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist", "node-20.0.0"), []byte("#!/bin/sh"), 0o755))

	cfg := manifest.NormalizeConfig{
		Enabled: true,
		Executables: []manifest.ExecutableRule{
			{Source: "dist/{name}-{version}", Target: "{name}", Action: manifest.ActionLink},
		},
	}

	result, err := Apply(dir, cfg, Context{Name: "node", Version: "20.0.0"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExecutablesNormalized)
	assert.FileExists(t, filepath.Join(dir, "bin", "node"))
}

func TestApply_ExecutableRuleSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bin", "node"), []byte("x"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "node-src"), []byte("y"), 0o755))

	cfg := manifest.NormalizeConfig{
		Enabled: true,
		Executables: []manifest.ExecutableRule{
			{Source: "node-src", Target: "node", Action: manifest.ActionCopy},
		},
	}

	result, err := Apply(dir, cfg, Context{Name: "node", Version: "20.0.0"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExecutablesNormalized)
}

func TestApply_AliasCreated(t *testing.T) {
	dir := t.TempDir()
	binDir := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "node"), []byte("x"), 0o755))

	cfg := manifest.NormalizeConfig{
		Enabled: true,
		Aliases: []manifest.AliasRule{{Name: "nodejs", Target: "node"}},
	}

	result, err := Apply(dir, cfg, Context{Name: "node", Version: "20.0.0"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.AliasesCreated)

	linkTarget, err := os.Readlink(filepath.Join(binDir, "nodejs"))
	require.NoError(t, err)
	assert.Equal(t, "node", linkTarget)
}

func TestApply_AliasMissingTargetWarns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))

	cfg := manifest.NormalizeConfig{
		Enabled: true,
		Aliases: []manifest.AliasRule{{Name: "nodejs", Target: "node"}},
	}

	result, err := Apply(dir, cfg, Context{Name: "node", Version: "20.0.0"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.AliasesCreated)
	assert.NotEmpty(t, result.Warnings)
}

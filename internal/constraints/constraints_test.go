package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/manifest"
)

func TestWhenMatchesWildcard(t *testing.T) {
	ok, err := WhenMatches("*", "1.2.3")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWhenMatchesRange(t *testing.T) {
	ok, err := WhenMatches(">=2.0.0", "2.5.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = WhenMatches(">=2.0.0", "1.9.0")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWhenMatchesInvalidVersion(t *testing.T) {
	_, err := WhenMatches(">=2.0.0", "not-a-version")
	require.Error(t, err)
}

func TestDependenciesForVersionMergesStaticAndGated(t *testing.T) {
	def := &manifest.RuntimeDef{
		Name: "yarn",
		Constraints: []manifest.ConstraintRule{
			{
				When: ">=2.0.0",
				Requires: []manifest.RuntimeDependency{
					{Name: "node", MinVersion: "16.0.0", Required: true},
				},
			},
			{
				When: "<2.0.0",
				Requires: []manifest.RuntimeDependency{
					{Name: "node", MinVersion: "8.0.0", Required: true},
				},
			},
		},
	}
	static := []manifest.RuntimeDependency{
		{Name: "corepack", ProvidedBy: "corepack", Required: true},
	}

	deps, errs := DependenciesForVersion(def, static, "3.6.0")
	require.Empty(t, errs)
	require.Len(t, deps, 2)
	assert.Equal(t, "corepack", deps[0].ProvidedBy)
	assert.Equal(t, "16.0.0", deps[1].MinVersion)
}

func TestDependenciesForVersionSkipsMalformedRule(t *testing.T) {
	def := &manifest.RuntimeDef{
		Constraints: []manifest.ConstraintRule{
			{When: "not a valid range", Requires: []manifest.RuntimeDependency{{Name: "x"}}},
		},
	}

	deps, errs := DependenciesForVersion(def, nil, "1.0.0")
	assert.Empty(t, deps)
	require.Len(t, errs, 1)
}

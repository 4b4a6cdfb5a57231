package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/registry"
)

func buildTestRegistry(t *testing.T, defs ...manifest.RuntimeDef) *registry.Registry {
	t.Helper()
	m := &manifest.ProviderManifest{Runtimes: defs, OriginKind: manifest.OriginBuiltin}
	reg, err := registry.Build([]*manifest.ProviderManifest{m})
	require.NoError(t, err)
	return reg
}

type fakeAvailability struct {
	available map[string]string
}

func (f fakeAvailability) IsAvailable(name string) bool {
	_, ok := f.available[name]
	return ok
}

func (f fakeAvailability) GetVersion(name string) (string, bool) {
	v, ok := f.available[name]
	return v, ok
}

func TestResolve_DependencyOrder(t *testing.T) {
	reg := buildTestRegistry(t,
		manifest.RuntimeDef{Name: "yarn", Executable: "yarn", Dependencies: []manifest.RuntimeDependency{{Name: "node", Required: true}}},
		manifest.RuntimeDef{Name: "node", Executable: "node"},
	)

	result, err := Resolve(reg, []Request{{Name: "yarn", Constraint: "latest"}}, fakeAvailability{}, Policy{})
	require.NoError(t, err)
	assert.Equal(t, []string{"node", "yarn"}, result.InstallOrder)
	assert.Empty(t, result.CircularDependencies)
}

func TestResolve_CycleDetected(t *testing.T) {
	reg := buildTestRegistry(t,
		manifest.RuntimeDef{Name: "a", Executable: "a", Dependencies: []manifest.RuntimeDependency{{Name: "b", Required: true}}},
		manifest.RuntimeDef{Name: "b", Executable: "b", Dependencies: []manifest.RuntimeDependency{{Name: "a", Required: true}}},
	)

	_, err := Resolve(reg, []Request{{Name: "a", Constraint: "latest"}}, fakeAvailability{}, Policy{})
	require.Error(t, err)
}

func TestResolve_AvailablePartition(t *testing.T) {
	reg := buildTestRegistry(t,
		manifest.RuntimeDef{Name: "yarn", Executable: "yarn", Dependencies: []manifest.RuntimeDependency{{Name: "node", Required: true}}},
		manifest.RuntimeDef{Name: "node", Executable: "node"},
	)

	avail := fakeAvailability{available: map[string]string{"node": "20.0.0"}}
	result, err := Resolve(reg, []Request{{Name: "yarn", Constraint: "latest"}}, avail, Policy{})
	require.NoError(t, err)
	assert.Equal(t, []string{"node"}, result.AvailableTools)
	assert.Equal(t, []string{"yarn"}, result.MissingTools)
}

func TestResolve_ProvidedByRewrite(t *testing.T) {
	reg := buildTestRegistry(t,
		manifest.RuntimeDef{Name: "yarn", Executable: "yarn", Dependencies: []manifest.RuntimeDependency{{Name: "yarn-classic", Required: true, ProvidedBy: "corepack"}}},
		manifest.RuntimeDef{Name: "corepack", Executable: "corepack"},
	)

	result, err := Resolve(reg, []Request{{Name: "yarn", Constraint: "latest"}}, fakeAvailability{}, Policy{})
	require.NoError(t, err)
	assert.Equal(t, []string{"corepack", "yarn"}, result.InstallOrder)
}

func TestResolve_VersionConflict(t *testing.T) {
	reg := buildTestRegistry(t,
		manifest.RuntimeDef{Name: "a", Executable: "a", Dependencies: []manifest.RuntimeDependency{{Name: "node", Required: true, RecommendedVersion: "18.0.0"}}},
		manifest.RuntimeDef{Name: "b", Executable: "b", Dependencies: []manifest.RuntimeDependency{{Name: "node", Required: true, RecommendedVersion: "20.0.0"}}},
		manifest.RuntimeDef{Name: "node", Executable: "node"},
	)

	result, err := Resolve(reg, []Request{{Name: "a", Constraint: "latest"}, {Name: "b", Constraint: "latest"}}, fakeAvailability{}, Policy{})
	require.NoError(t, err)
	require.Len(t, result.VersionConflicts, 1)
	assert.Equal(t, "node", result.VersionConflicts[0].Runtime)
}

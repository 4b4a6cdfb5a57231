package graph

import (
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/registry"
)

type alwaysMissing struct{}

func (alwaysMissing) IsAvailable(string) bool          { return false }
func (alwaysMissing) GetVersion(string) (string, bool) { return "", false }

// buildAcyclicRegistry builds n runtimes named r0..r{n-1}, where r{i} may
// only depend on r{j} for j<i — acyclic by construction, so Resolve must
// never report a cycle over it.
func buildAcyclicRegistry(t *rapid.T, n int) *registry.Registry {
	defs := make([]manifest.RuntimeDef, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("r%d", i)
		var deps []manifest.RuntimeDependency
		for j := 0; j < i; j++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("edge_%d_%d", i, j)) {
				deps = append(deps, manifest.RuntimeDependency{Name: fmt.Sprintf("r%d", j), Required: true})
			}
		}
		defs[i] = manifest.RuntimeDef{Name: name, Executable: name, Dependencies: deps}
	}
	pm := &manifest.ProviderManifest{Provider: manifest.ProviderMeta{Name: "rapid-test"}, Runtimes: defs}
	reg, err := registry.Build([]*manifest.ProviderManifest{pm})
	if err != nil {
		t.Fatalf("registry.Build: %v", err)
	}
	return reg
}

// TestResolve_AcyclicGraphsNeverReportACycle checks that an install order
// built strictly from lower-indexed dependencies (acyclic by construction)
// never trips the resolver's cycle detector.
func TestResolve_AcyclicGraphsNeverReportACycle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		reg := buildAcyclicRegistry(t, n)

		req := Request{Name: fmt.Sprintf("r%d", n-1), Constraint: "*"}
		result, err := Resolve(reg, []Request{req}, alwaysMissing{}, Policy{})
		if err != nil {
			t.Fatalf("unexpected error on an acyclic graph: %v", err)
		}
		if len(result.CircularDependencies) != 0 {
			t.Fatalf("acyclic graph reported as cyclic: %v", result.CircularDependencies)
		}
	})
}

// TestResolve_InstallOrderRespectsDependencyEdges checks the core DAG
// invariant: every required dependency appears strictly before its
// dependent in InstallOrder.
func TestResolve_InstallOrderRespectsDependencyEdges(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		reg := buildAcyclicRegistry(t, n)

		req := Request{Name: fmt.Sprintf("r%d", n-1), Constraint: "*"}
		result, err := Resolve(reg, []Request{req}, alwaysMissing{}, Policy{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		position := make(map[string]int, len(result.InstallOrder))
		for i, name := range result.InstallOrder {
			position[name] = i
		}

		for name := range position {
			spec, ok := reg.Get(name)
			if !ok {
				continue
			}
			for _, dep := range spec.Dependencies {
				depPos, ok := position[dep.Name]
				if !ok {
					t.Fatalf("dependency %s of %s missing from install order", dep.Name, name)
				}
				if depPos >= position[name] {
					t.Fatalf("dependency %s did not come before dependent %s in install order", dep.Name, name)
				}
			}
		}
	})
}

// TestResolve_InstallOrderHasNoDuplicates checks that a runtime reachable
// through multiple paths (a diamond dependency) is listed exactly once.
func TestResolve_InstallOrderHasNoDuplicates(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 10).Draw(t, "n")
		reg := buildAcyclicRegistry(t, n)

		req := Request{Name: fmt.Sprintf("r%d", n-1), Constraint: "*"}
		result, err := Resolve(reg, []Request{req}, alwaysMissing{}, Policy{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		seen := make(map[string]bool, len(result.InstallOrder))
		for _, name := range result.InstallOrder {
			if seen[name] {
				t.Fatalf("%s appears more than once in install order", name)
			}
			seen[name] = true
		}
	})
}

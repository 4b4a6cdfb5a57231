// Package registry builds the in-memory runtime graph (spec §4.2) from
// parsed provider manifests: a map of canonical RuntimeSpecs plus an
// alias index, collapsed and de-duplicated according to the manifest
// loader's precedence rules.
package registry

import (
	"fmt"

	"github.com/vxrun/vx/internal/manifest"
)

// RuntimeSpec is the canonical, immutable-after-build record for a runtime
// (spec §3 RuntimeSpec).
type RuntimeSpec struct {
	Name               string
	Aliases            []string
	Executable         string
	Ecosystem          manifest.Ecosystem
	Priority           int32
	AutoInstallable    bool
	EnvVars            map[string]string
	Detection          manifest.DetectionConfig
	Layout             manifest.ExecutableLayout
	Normalize          manifest.NormalizeConfig
	PlatformConstraint []string
	SystemDeps         manifest.SystemDeps
	Catalog            manifest.CatalogSource

	// Dependencies are the static ("when = *") dependencies hoisted onto
	// the spec at build time (spec §4.2).
	Dependencies []manifest.RuntimeDependency

	// def is retained for version-gated constraint queries (spec §3
	// "runtime_defs ... retained for version-specific constraint queries").
	def    *manifest.RuntimeDef
	origin manifest.OriginKind
}

// Def returns the underlying RuntimeDef used for version-gated constraint queries.
func (s *RuntimeSpec) Def() *manifest.RuntimeDef { return s.def }

// Registry is the built, queryable runtime graph.
type Registry struct {
	runtimes map[string]*RuntimeSpec
	aliases  map[string]string
}

// Build collapses a set of parsed manifests into a Registry, applying the
// build-time rules from spec §4.2:
//   - alias collisions: first-registered wins
//   - multiple specs for the same canonical name: highest priority wins,
//     ties broken by origin precedence dev > project > user > built-in
//   - bundled_with/managed_by already rewritten to dependencies by the loader
//   - "when = *" constraints become static dependencies
func Build(manifests []*manifest.ProviderManifest) (*Registry, error) {
	r := &Registry{
		runtimes: make(map[string]*RuntimeSpec),
		aliases:  make(map[string]string),
	}

	for _, m := range manifests {
		for i := range m.Runtimes {
			def := &m.Runtimes[i]
			spec := buildSpec(def, m.OriginKind)

			existing, ok := r.runtimes[spec.Name]
			if !ok || shouldReplace(existing, spec) {
				r.runtimes[spec.Name] = spec
			}
		}
	}

	// Aliases are registered in a second pass so that every canonical name
	// has won its priority contest first.
	for _, m := range manifests {
		for i := range m.Runtimes {
			spec := r.runtimes[m.Runtimes[i].Name]
			for _, alias := range spec.Aliases {
				if _, exists := r.aliases[alias]; !exists {
					r.aliases[alias] = spec.Name
				}
			}
		}
	}

	return r, nil
}

func shouldReplace(existing, candidate *RuntimeSpec) bool {
	if candidate.Priority != existing.Priority {
		return candidate.Priority > existing.Priority
	}
	return candidate.origin.Precedence() > existing.origin.Precedence()
}

func buildSpec(def *manifest.RuntimeDef, origin manifest.OriginKind) *RuntimeSpec {
	var staticDeps []manifest.RuntimeDependency
	staticDeps = append(staticDeps, def.Dependencies...)
	for _, c := range def.Constraints {
		if c.When == "*" {
			staticDeps = append(staticDeps, c.Requires...)
		}
	}

	return &RuntimeSpec{
		Name:               def.Name,
		Aliases:            def.Aliases,
		Executable:         def.Executable,
		Ecosystem:          def.Ecosystem,
		Priority:           def.Priority,
		AutoInstallable:    def.AutoInstallable,
		EnvVars:            def.EnvVars,
		Detection:          def.Detection,
		Layout:             def.Layout,
		Normalize:          def.Normalize,
		PlatformConstraint: def.PlatformConstraint,
		SystemDeps:         def.SystemDeps,
		Catalog:            def.Catalog,
		Dependencies:       staticDeps,
		def:                def,
		origin:             origin,
	}
}

// ResolveName resolves a runtime name or alias to its canonical name.
func (r *Registry) ResolveName(name string) (string, bool) {
	if _, ok := r.runtimes[name]; ok {
		return name, true
	}
	if canonical, ok := r.aliases[name]; ok {
		return canonical, true
	}
	return "", false
}

// Get returns the RuntimeSpec for a canonical or alias name.
func (r *Registry) Get(name string) (*RuntimeSpec, bool) {
	canonical, ok := r.ResolveName(name)
	if !ok {
		return nil, false
	}
	return r.runtimes[canonical], true
}

// Names returns every canonical runtime name, for iteration/testing.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.runtimes))
	for n := range r.runtimes {
		names = append(names, n)
	}
	return names
}

// Aliases returns every alias known to the registry, for testing the
// universal property "every alias resolves to a spec whose own name
// resolves to itself" (spec §8).
func (r *Registry) Aliases() []string {
	out := make([]string, 0, len(r.aliases))
	for a := range r.aliases {
		out = append(out, a)
	}
	return out
}

// GetInstallOrder returns dependencies-first topological order for a
// runtime's STATIC dependency edges, using DFS (spec §4.2
// get_install_order). The requested runtime itself is always last.
func (r *Registry) GetInstallOrder(name string) ([]string, error) {
	canonical, ok := r.ResolveName(name)
	if !ok {
		return nil, fmt.Errorf("registry: unknown runtime %q", name)
	}

	var order []string
	seen := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(n string) error
	visit = func(n string) error {
		if seen[n] {
			return nil
		}
		if visiting[n] {
			return fmt.Errorf("registry: cyclic static dependency involving %q", n)
		}
		visiting[n] = true

		spec, ok := r.Get(n)
		if ok {
			for _, dep := range spec.Dependencies {
				target := dep.Name
				if dep.ProvidedBy != "" {
					target = dep.ProvidedBy
				}
				if !dep.Required {
					continue
				}
				if err := visit(target); err != nil {
					return err
				}
			}
		}

		visiting[n] = false
		if !seen[n] {
			seen[n] = true
			order = append(order, n)
		}
		return nil
	}

	if err := visit(canonical); err != nil {
		return nil, err
	}
	return order, nil
}

// GetParentRuntimeForVersion returns the first dependency with `provided_by`
// set for (name, version) — used when a requested version is not directly
// installable and is instead served through another runtime (spec §4.2,
// e.g. Yarn 2+ via corepack).
func (r *Registry) GetParentRuntimeForVersion(name, version string, deps []manifest.RuntimeDependency) (string, bool) {
	for _, dep := range deps {
		if dep.ProvidedBy != "" {
			return dep.ProvidedBy, true
		}
	}
	_ = name
	_ = version
	return "", false
}

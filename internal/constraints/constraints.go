// Package constraints evaluates the version-gated `when` clauses attached
// to a RuntimeDef's constraint rules against a concrete resolved version,
// implementing spec §4.2's get_dependencies_for_version and §4.3's
// npm-style caret/tilde/range semantics for the `when` field itself.
//
// This is distinct from internal/solver, which solves a RuntimeDependency's
// own VersionConstraint against a catalog; this package only answers "is
// this constraint rule active for this resolved version".
package constraints

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/vxrun/vx/internal/manifest"
)

// WhenMatches reports whether a constraint rule's `when` clause matches a
// concrete version. `when = "*"` always matches (and is ordinarily already
// hoisted to a static dependency by the registry, so callers rarely see it
// here). Any other value is parsed as a semver.Constraints range using the
// same caret/tilde/comparison grammar as npm ranges.
func WhenMatches(when, version string) (bool, error) {
	if when == "" || when == "*" {
		return true, nil
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("constraints: invalid version %q: %w", version, err)
	}

	c, err := semver.NewConstraint(when)
	if err != nil {
		return false, fmt.Errorf("constraints: invalid when-clause %q: %w", when, err)
	}

	return c.Check(v), nil
}

// DependenciesForVersion returns the full set of dependencies active for a
// resolved version: the runtime's static dependencies (already hoisted by
// the registry from `when = "*"` rules) plus any additional
// version-gated rule whose `when` clause matches.
//
// Rules with an unparseable `when` or version are skipped with their error
// surfaced via errs, rather than aborting resolution for the whole runtime —
// one malformed third-party manifest constraint should not break dependents.
func DependenciesForVersion(def *manifest.RuntimeDef, staticDeps []manifest.RuntimeDependency, version string) (deps []manifest.RuntimeDependency, errs []error) {
	deps = append(deps, staticDeps...)

	for _, rule := range def.Constraints {
		if rule.When == "*" {
			continue // already folded into staticDeps
		}
		matched, err := WhenMatches(rule.When, version)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if matched {
			deps = append(deps, rule.Requires...)
		}
	}

	return deps, errs
}

// Package graph implements the dependency resolver (spec §4.6): given a set
// of requested tools, it walks each one's required dependency edges via DFS,
// detects cycles, and produces dependency-first install order partitioned
// into available and missing tools.
package graph

import (
	"fmt"

	vxerrors "github.com/vxrun/vx/internal/errors"
	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/registry"
)

// AvailabilityChecker answers whether a runtime is already installed, and
// at which version, without the resolver needing to know about the store.
type AvailabilityChecker interface {
	IsAvailable(name string) bool
	GetVersion(name string) (string, bool)
}

// Request is one entry of the caller's requested-tools map.
type Request struct {
	Name       string
	Constraint string
}

// VersionConflict records two dependents requiring incompatible constraints
// on the same runtime. The resolver reports these without aborting.
type VersionConflict struct {
	Runtime     string
	Constraints []ConstraintDemand
}

// ConstraintDemand names which dependent asked for which constraint.
type ConstraintDemand struct {
	RequiredBy string
	Constraint string
}

// Result is the resolver's output (spec §4.6 ResolutionResult).
type Result struct {
	InstallOrder         []string
	AvailableTools       []string
	MissingTools         []string
	CircularDependencies [][]string
	VersionConflicts     []VersionConflict
}

// Policy controls whether optional dependency edges are traversed.
type Policy struct {
	IncludeOptional bool
}

type color int

const (
	white color = iota
	gray
	black
)

// Resolve runs the full algorithm from spec §4.6 over requests against reg,
// consulting avail for the available/missing partition.
func Resolve(reg *registry.Registry, requests []Request, avail AvailabilityChecker, policy Policy) (Result, error) {
	var result Result
	state := make(map[string]color)
	demands := make(map[string][]ConstraintDemand)
	seen := make(map[string]bool)

	for _, req := range requests {
		canonical, ok := reg.ResolveName(req.Name)
		if !ok {
			return Result{}, vxerrors.NewRuntimeNotFound(req.Name)
		}
		demands[canonical] = append(demands[canonical], ConstraintDemand{RequiredBy: "<requested>", Constraint: req.Constraint})

		var stack []string
		if cycle := visit(reg, canonical, state, &result.InstallOrder, seen, &stack, policy, demands); cycle != nil {
			result.CircularDependencies = append(result.CircularDependencies, cycle)
		}
	}

	result.VersionConflicts = detectConflicts(demands)

	for _, name := range result.InstallOrder {
		if avail != nil && avail.IsAvailable(name) {
			result.AvailableTools = append(result.AvailableTools, name)
		} else {
			result.MissingTools = append(result.MissingTools, name)
		}
	}

	if len(result.CircularDependencies) > 0 {
		return result, vxerrors.NewCyclicDependency(result.CircularDependencies[0])
	}

	return result, nil
}

// visit performs one DFS step. Gray marks a node on entry, black on exit
// (spec §4.6 step 3). A gray re-encounter records the cycle path from its
// first occurrence in the current stack and aborts that branch only —
// sibling branches still complete.
func visit(reg *registry.Registry, name string, state map[string]color, order *[]string, seen map[string]bool, stack *[]string, policy Policy, demands map[string][]ConstraintDemand) []string {
	switch state[name] {
	case black:
		return nil
	case gray:
		cycle := append([]string{}, *stack...)
		cycle = append(cycle, name)
		return cycleFrom(cycle, name)
	}

	state[name] = gray
	*stack = append(*stack, name)

	spec, ok := reg.Get(name)
	var cycle []string
	if ok {
		for _, dep := range spec.Dependencies {
			if !dep.Required && !policy.IncludeOptional {
				continue
			}
			target := dep.Name
			if dep.ProvidedBy != "" {
				target = dep.ProvidedBy
			}
			canonical, ok := reg.ResolveName(target)
			if !ok {
				continue // unresolvable dependency name is surfaced by the caller, not the graph
			}
			if dep.MinVersion != "" || dep.MaxVersion != "" || dep.RecommendedVersion != "" {
				demands[canonical] = append(demands[canonical], ConstraintDemand{RequiredBy: name, Constraint: dependencyConstraintString(dep)})
			}
			if cyc := visit(reg, canonical, state, order, seen, stack, policy, demands); cyc != nil && cycle == nil {
				cycle = cyc
			}
		}
	}

	*stack = (*stack)[:len(*stack)-1]
	state[name] = black
	if cycle != nil {
		return cycle
	}
	if !seen[name] {
		seen[name] = true
		*order = append(*order, name)
	}
	return nil
}

func dependencyConstraintString(dep manifest.RuntimeDependency) string {
	switch {
	case dep.RecommendedVersion != "":
		return dep.RecommendedVersion
	case dep.MinVersion != "" && dep.MaxVersion != "":
		return fmt.Sprintf(">=%s <=%s", dep.MinVersion, dep.MaxVersion)
	case dep.MinVersion != "":
		return fmt.Sprintf(">=%s", dep.MinVersion)
	case dep.MaxVersion != "":
		return fmt.Sprintf("<=%s", dep.MaxVersion)
	default:
		return "*"
	}
}

func cycleFrom(path []string, repeated string) []string {
	for i, n := range path {
		if n == repeated {
			return path[i:]
		}
	}
	return path
}

// detectConflicts reports runtimes with more than one distinct non-wildcard
// constraint demanded by different dependents (spec §4.6 step 6).
func detectConflicts(demands map[string][]ConstraintDemand) []VersionConflict {
	var conflicts []VersionConflict
	for runtime, ds := range demands {
		distinct := make(map[string]bool)
		for _, d := range ds {
			if d.Constraint != "" && d.Constraint != "*" {
				distinct[d.Constraint] = true
			}
		}
		if len(distinct) > 1 {
			conflicts = append(conflicts, VersionConflict{Runtime: runtime, Constraints: ds})
		}
	}
	return conflicts
}

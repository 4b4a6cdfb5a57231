package errors

import (
	"fmt"
	"strings"
)

// NewCyclicDependency reports a circular dependency found by the resolver's
// DFS traversal (spec §4.6). path is the cycle in discovery order, first
// and last elements equal.
func NewCyclicDependency(path []string) *Error {
	return newError(CategoryDependency, CodeCyclicDependency,
		"circular dependency detected", nil).
		WithDetail("cycle", path).
		WithHint("Remove one of the dependency edges to break the cycle: " + strings.Join(path, " -> "))
}

// NewAutoInstallDisabled reports that a runtime would need installing but
// the caller's policy forbids it.
func NewAutoInstallDisabled(runtime, version string) *Error {
	return newError(CategoryDependency, CodeAutoInstallDisabled,
		fmt.Sprintf("%s@%s is not installed and auto-install is disabled", runtime, version), nil).
		WithDetail("runtime", runtime).
		WithDetail("version", version).
		WithHint(fmt.Sprintf("Run `vx install %s@%s` or enable auto-install.", runtime, version))
}

// NewSystemDependencyUnresolved reports that the system package-manager
// bridge could not find a strategy to satisfy a system-level dependency.
func NewSystemDependencyUnresolved(dep, reason string) *Error {
	return newError(CategorySystem, CodeSystemDepUnresolved,
		fmt.Sprintf("could not resolve system dependency %q", dep), nil).
		WithDetail("dependency", dep).
		WithDetail("reason", reason).
		WithHint("Install a supported package manager (brew/choco/winget/apt/dnf/pacman) and retry.")
}

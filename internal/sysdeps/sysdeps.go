// Package sysdeps implements the system package-manager bridge (spec
// §4.13): given a runtime's pre_depends system dependencies, it selects an
// install strategy from a fixed per-OS preference order of host package
// managers. It does not check whether a dependency is already installed;
// every planned dependency is passed to the manager's install command.
package sysdeps

import (
	"context"
	"os/exec"

	vxerrors "github.com/vxrun/vx/internal/errors"
	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/platform"
)

// Manager is one host package manager the bridge knows how to drive.
type Manager string

const (
	ManagerWinget Manager = "winget"
	ManagerChoco  Manager = "choco"
	ManagerScoop  Manager = "scoop"
	ManagerBrew   Manager = "brew"
	ManagerApt    Manager = "apt"
	ManagerDnf    Manager = "dnf"
	ManagerPacman Manager = "pacman"
	ManagerZypper Manager = "zypper"
	ManagerApk    Manager = "apk"
)

// preferenceOrder is the fixed per-OS manager preference (spec §4.13 step 3).
var preferenceOrder = map[platform.OS][]Manager{
	platform.Windows: {ManagerWinget, ManagerChoco, ManagerScoop},
	platform.MacOS:   {ManagerBrew},
	platform.Linux:   {ManagerApt, ManagerDnf, ManagerPacman, ManagerZypper, ManagerApk},
}

// typePriority is the install priority sort (spec §4.13 step 4:
// "KB > Feature > VCRedist > .NET > Package").
var typePriority = map[manifest.SystemDepType]int{
	manifest.SystemDepWindowsKB:      5,
	manifest.SystemDepWindowsFeature: 4,
	manifest.SystemDepVCRedist:       3,
	manifest.SystemDepDotNet:         2,
	manifest.SystemDepPackage:        1,
	manifest.SystemDepFeature:        1,
	manifest.SystemDepRuntime:        0, // handled as a graph dependency, not by this bridge
}

// lookPath is overridable for tests.
var lookPath = exec.LookPath

// runCommand is overridable for tests.
var runCommand = func(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.Run()
}

// DetectAvailableManagers returns every Manager on p's preference list whose
// binary is found on PATH, in preference order.
func DetectAvailableManagers(p platform.Platform) []Manager {
	var found []Manager
	for _, mgr := range preferenceOrder[p.OS] {
		if _, err := lookPath(string(mgr)); err == nil {
			found = append(found, mgr)
		}
	}
	return found
}

// Plan is one ordered install step the bridge will execute.
type Plan struct {
	Dependency manifest.SystemDependency
	Manager    Manager
}

// BuildPlan sorts deps by typePriority descending, drops runtime-type
// entries, and assigns every other dependency the first available manager
// in p's preference order (spec §4.13 steps 3, 4); deps are not filtered by
// platform. A dependency with no
// available manager yields an error rather than a partial plan — the
// caller aborts on any UnresolvedDependency (spec §4.13 step 4).
func BuildPlan(deps []manifest.SystemDependency, p platform.Platform) ([]Plan, error) {
	available := DetectAvailableManagers(p)
	if len(available) == 0 && len(deps) > 0 {
		return nil, vxerrors.NewSystemDependencyUnresolved(deps[0].Name, "no supported package manager found on PATH")
	}

	sorted := append([]manifest.SystemDependency{}, deps...)
	sortByPriorityDesc(sorted)

	var plan []Plan
	for _, dep := range sorted {
		if dep.Type == manifest.SystemDepRuntime {
			continue // handled by the dependency graph, not this bridge
		}
		plan = append(plan, Plan{Dependency: dep, Manager: available[0]})
	}
	return plan, nil
}

func sortByPriorityDesc(deps []manifest.SystemDependency) {
	for i := 1; i < len(deps); i++ {
		for j := i; j > 0 && typePriority[deps[j].Type] > typePriority[deps[j-1].Type]; j-- {
			deps[j], deps[j-1] = deps[j-1], deps[j]
		}
	}
}

// installArgs returns the install-subcommand argv for mgr, given a package name.
func installArgs(mgr Manager, name string) []string {
	switch mgr {
	case ManagerWinget:
		return []string{"install", "--silent", "--accept-package-agreements", name}
	case ManagerChoco:
		return []string{"install", "-y", name}
	case ManagerScoop:
		return []string{"install", name}
	case ManagerBrew:
		return []string{"install", name}
	case ManagerApt:
		return []string{"install", "-y", name}
	case ManagerDnf:
		return []string{"install", "-y", name}
	case ManagerPacman:
		return []string{"-S", "--noconfirm", name}
	case ManagerZypper:
		return []string{"install", "-y", name}
	case ManagerApk:
		return []string{"add", name}
	default:
		return []string{"install", name}
	}
}

// Execute installs every entry in plan via its assigned manager, in order,
// aborting at the first failure (the bridge does not attempt partial
// recovery; see spec §4.13 step 4 and REDESIGN FLAGS on subshell handling).
func Execute(ctx context.Context, plan []Plan) error {
	for _, step := range plan {
		mgr := string(step.Manager)
		if step.Manager == ManagerPacman {
			mgr = "pacman"
		}
		if err := runCommand(ctx, mgr, installArgs(step.Manager, step.Dependency.Name)...); err != nil {
			return vxerrors.NewSystemDependencyUnresolved(step.Dependency.Name, err.Error())
		}
	}
	return nil
}

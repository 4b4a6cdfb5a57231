package shim

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/vxrun/vx/internal/envcompose"
	"github.com/vxrun/vx/internal/platform"
	"github.com/vxrun/vx/internal/registry"
	"github.com/vxrun/vx/internal/store"
)

// ErrNotRegistered is returned when the requested executable name has no
// registry entry: the shim is "not our concern" and control should return
// to the caller's normal PATH lookup (spec §4.10 step 1).
var ErrNotRegistered = errors.New("shim: executable not registered")

// defaultRuntimeDeps is the fallback runtime-dependency inference for
// npm/yarn/pnpm-ecosystem globals that never recorded an explicit
// runtime_dependencies list (spec §4.10 "default to node@latest plus
// optionally bun@latest if installed").
var defaultRuntimeDeps = map[string][]string{
	"npm":  {"node"},
	"yarn": {"node"},
	"pnpm": {"node"},
}

// Deps resolves the collaborators the shim executor needs: a store to find
// installed runtime versions, a registry to map a runtime name to its
// executable name, and the running platform.
type Deps struct {
	Store    *store.Store
	Registry *registry.Registry
	Platform platform.Platform
}

// Executor runs globally-registered package executables (spec §4.10).
type Executor struct {
	registry *Registry
	deps     Deps
}

// NewExecutor builds an Executor bound to a loaded package registry.
func NewExecutor(reg *Registry, deps Deps) *Executor {
	return &Executor{registry: reg, deps: deps}
}

// candidateSuffixes lists, in probe order, the executable suffixes the
// shim tries under a package's install_dir (spec §4.10 "platform-aware
// suffix search: .cmd, .exe, .bat, bare on Unix").
func candidateSuffixes(p platform.Platform) []string {
	if p.OS == platform.Windows {
		return []string{".cmd", ".exe", ".bat", ""}
	}
	return []string{""}
}

// Locate finds name's concrete executable path under entry.InstallDir.
func Locate(entry PackageEntry, name string, p platform.Platform) (string, error) {
	candidates := []string{entry.InstallDir, filepath.Join(entry.InstallDir, "bin"), filepath.Join(entry.InstallDir, ".bin")}
	for _, dir := range candidates {
		for _, suffix := range candidateSuffixes(p) {
			path := filepath.Join(dir, name+suffix)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path, nil
			}
		}
	}
	return "", fmt.Errorf("shim: no executable named %q found under %s", name, entry.InstallDir)
}

// inferredDeps returns entry's explicit runtime_dependencies, or the
// ecosystem default when it recorded none.
func (x *Executor) inferredDeps(entry PackageEntry) []string {
	if len(entry.RuntimeDependencies) > 0 {
		return entry.RuntimeDependencies
	}
	deps := append([]string{}, defaultRuntimeDeps[entry.Ecosystem]...)
	if entry.Ecosystem == "npm" || entry.Ecosystem == "yarn" || entry.Ecosystem == "pnpm" {
		if versions, err := x.deps.Store.InstalledVersions("bun"); err == nil && len(versions) > 0 {
			deps = append(deps, "bun")
		}
	}
	return deps
}

// resolveInstalled turns a runtime name into an envcompose.InstalledRuntime
// using the last version directory in the store's listing (directory-name
// order, not version precedence), skipping runtimes that aren't
// actually installed (a missing optional dependency shouldn't block the
// global package from running at all).
func (x *Executor) resolveInstalled(name string) (envcompose.InstalledRuntime, bool) {
	canonical, ok := x.deps.Registry.ResolveName(name)
	if !ok {
		canonical = name
	}
	versions, err := x.deps.Store.InstalledVersions(canonical)
	if err != nil || len(versions) == 0 {
		return envcompose.InstalledRuntime{}, false
	}
	version := versions[len(versions)-1]

	spec, _ := x.deps.Registry.Get(canonical)
	envVars := map[string]string{}
	if spec != nil {
		envVars = spec.EnvVars
	}
	return envcompose.InstalledRuntime{
		Name:          canonical,
		Version:       version,
		InstalledRoot: x.deps.Store.InstallDir(canonical, version, x.deps.Platform),
		AllVersions:   versions,
		EnvVars:       envVars,
	}, true
}

// environmentFor composes the PATH/VX_* environment for a package's
// inferred runtime dependencies, then prepends the package's own install
// directory last so its own PATH entry wins over all of them, since the
// global package itself — not any one dependency — is what the caller
// meant to run (spec §4.10 step 4, §4.9).
func (x *Executor) environmentFor(entry PackageEntry, withOverlay []string) (envcompose.Env, error) {
	var installed []envcompose.InstalledRuntime
	for _, dep := range x.inferredDeps(entry) {
		if rt, ok := x.resolveInstalled(dep); ok {
			installed = append(installed, rt)
		}
	}

	var with []envcompose.InstalledRuntime
	for _, name := range withOverlay {
		if rt, ok := x.resolveInstalled(name); ok {
			with = append(with, rt)
		}
	}

	baseEnv := envFromOS()
	executableFor := func(name string) string {
		if spec, ok := x.deps.Registry.Get(name); ok {
			return spec.Executable
		}
		return name
	}

	var primary envcompose.InstalledRuntime
	var deps []envcompose.InstalledRuntime
	switch {
	case len(installed) == 0:
		return envcompose.Compose(envcompose.InstalledRuntime{}, nil, with, baseEnv, x.deps.Platform, executableFor)
	default:
		primary = installed[len(installed)-1]
		deps = installed[:len(installed)-1]
	}

	env, err := envcompose.Compose(primary, deps, with, baseEnv, x.deps.Platform, executableFor)
	if err != nil {
		return nil, err
	}

	binDir := entry.InstallDir
	if fi, err := os.Stat(filepath.Join(entry.InstallDir, "bin")); err == nil && fi.IsDir() {
		binDir = filepath.Join(entry.InstallDir, "bin")
	}
	env["PATH"] = binDir + x.deps.Platform.PathListSeparator() + env["PATH"]
	return env, nil
}

func envFromOS() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				env[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return env
}

// Run locates name in the registry, composes its runtime environment, and
// spawns it with inherited stdio, returning its exit code (spec §4.10
// steps 2-5). ErrNotRegistered signals the caller to fall back to a normal
// PATH lookup instead of treating this as a failure.
func (x *Executor) Run(ctx context.Context, name string, args []string, withOverlay []string) (int, error) {
	entry, ok := x.registry.Lookup(name)
	if !ok {
		return 0, ErrNotRegistered
	}

	binPath, err := Locate(entry, name, x.deps.Platform)
	if err != nil {
		return 0, err
	}

	env, err := x.environmentFor(entry, withOverlay)
	if err != nil {
		return 0, err
	}

	cmd := exec.CommandContext(ctx, binPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = make([]string, 0, len(env))
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	runErr := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if runErr != nil {
		return 0, fmt.Errorf("shim: exec %s: %w", binPath, runErr)
	}
	return 0, nil
}

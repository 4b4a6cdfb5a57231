// Package envcompose implements the REZ-style dynamic environment composer
// (spec §4.9): given a resolved primary runtime and its transitive
// installed dependencies, it derives the VX_{NAME}_* variable set, prepends
// each runtime's bin directory to PATH in dependency-first order, and
// merges in static and conditional manifest env_vars plus a caller
// `--with` overlay.
package envcompose

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vxrun/vx/internal/constraints"
	"github.com/vxrun/vx/internal/platform"
)

// InstalledRuntime is one resolved, installed member of the composition:
// the primary runtime, a transitive dependency, or a `--with` overlay entry.
type InstalledRuntime struct {
	Name            string
	Version         string
	InstalledRoot   string // {store}/{name}/{version}/{platform-tag}
	AllVersions     []string
	EnvVars         map[string]string
	ConditionalVars []ConditionalEnvVar
}

// ConditionalEnvVar is a manifest env rule active only for versions whose
// range matches the resolved version (spec §4.9 step 4).
type ConditionalEnvVar struct {
	When  string
	Key   string
	Value string
}

// Env is the composed environment map returned to the caller; the composer
// never mutates the orchestrator's own process environment (spec §4.9
// closing paragraph).
type Env map[string]string

// ActualRoot discovers a runtime's real executable-containing directory
// under its install root, probing (in order) the root itself, `bin/`, and
// one level of nesting — handling layouts like `node-v20.0.0-win-x64/`
// (spec §4.9 step 1, §6 "Executable discovery invariant").
func ActualRoot(installedRoot, executable string, p platform.Platform) string {
	exe := executable + p.ExecutableSuffix()

	if fileExists(filepath.Join(installedRoot, exe)) {
		return installedRoot
	}
	if fileExists(filepath.Join(installedRoot, "bin", exe)) {
		return installedRoot
	}

	entries, err := os.ReadDir(installedRoot)
	if err != nil {
		return installedRoot
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		nested := filepath.Join(installedRoot, e.Name())
		if fileExists(filepath.Join(nested, "bin", exe)) || fileExists(filepath.Join(nested, exe)) {
			return nested
		}
	}
	return installedRoot
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// BinDir returns the effective bin directory for a runtime root: `{root}/bin`
// if it exists and contains the executable, otherwise the root itself.
func BinDir(actualRoot, executable string, p platform.Platform) string {
	exe := executable + p.ExecutableSuffix()
	if fileExists(filepath.Join(actualRoot, "bin", exe)) {
		return filepath.Join(actualRoot, "bin")
	}
	return actualRoot
}

// Compose builds the environment map for primary plus its dependencies
// (dependency-first) plus an optional `--with` overlay, applied first in
// PATH order (spec §4.9 step 5).
func Compose(primary InstalledRuntime, deps []InstalledRuntime, with []InstalledRuntime, baseEnv map[string]string, p platform.Platform, executableFor func(name string) string) (Env, error) {
	env := make(Env, len(baseEnv)+8)
	for k, v := range baseEnv {
		env[k] = v
	}

	var pathEntries []string

	// PATH order: --with overlay first, then deps dependency-first, then
	// primary last so it wins name collisions (spec §4.9 steps 3, 5).
	ordered := append(append([]InstalledRuntime{}, with...), deps...)
	ordered = append(ordered, primary)

	for _, rt := range ordered {
		exe := executableFor(rt.Name)
		if exe == "" {
			exe = rt.Name
		}
		root := ActualRoot(rt.InstalledRoot, exe, p)
		bin := BinDir(root, exe, p)

		setRuntimeVars(env, rt, root, bin, p)

		for k, v := range rt.EnvVars {
			env[k] = v
		}
		for _, cond := range rt.ConditionalVars {
			matched, err := versionInRange(cond.When, rt.Version)
			if err != nil {
				continue
			}
			if matched {
				env[cond.Key] = cond.Value
			}
		}

		pathEntries = append(pathEntries, bin)
	}

	existingPath := env["PATH"]
	if existingPath == "" {
		existingPath = baseEnv["PATH"]
	}
	pathEntries = append(pathEntries, existingPath)
	env["PATH"] = strings.Join(nonEmpty(pathEntries), string(p.PathListSeparator()[0]))

	return env, nil
}

func setRuntimeVars(env Env, rt InstalledRuntime, actualRoot, bin string, p platform.Platform) {
	key := envKey(rt.Name)
	env[fmt.Sprintf("VX_%s_ROOT", key)] = actualRoot
	env[fmt.Sprintf("VX_%s_BASE", key)] = rt.InstalledRoot
	env[fmt.Sprintf("VX_%s_BIN", key)] = bin
	env[fmt.Sprintf("VX_%s_VERSION", key)] = rt.Version
	env[fmt.Sprintf("VX_%s_VERSIONS", key)] = strings.Join(rt.AllVersions, p.PathListSeparator())
}

// envKey upper-cases a runtime name and turns "-" into "_" for VX_{NAME}_*
// variable naming (spec §4.9 step 2).
func envKey(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func nonEmpty(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func versionInRange(when, version string) (bool, error) {
	return constraints.WhenMatches(when, version)
}

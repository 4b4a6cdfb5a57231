// Package path centralizes the handful of filesystem locations the engine
// cares about outside the content-addressed store itself (manifest
// discovery directories, the lockfile's default location), mirroring the
// teacher's internal/path package's role as the single place OS-specific
// path joining happens.
package path

import (
	"os"
	"path/filepath"

	"github.com/vxrun/vx/internal/config"
)

// Layout resolves every well-known path from a loaded config.Settings.
type Layout struct {
	settings config.Settings
}

// New returns a Layout rooted at settings.Home.
func New(settings config.Settings) Layout {
	return Layout{settings: settings}
}

// StoreRoot is the base directory passed to internal/store.New.
func (l Layout) StoreRoot() string {
	return l.settings.Home
}

// UserManifestsDir is where user-authored provider manifests live
// (spec §4.1 "user-dir discovery"): {VX_HOME}/providers.
func (l Layout) UserManifestsDir() string {
	return filepath.Join(l.settings.Home, "providers")
}

// EnvManifestsDirs returns the VX_PROVIDERS_PATH-derived extra manifest
// directories, in the order they should be searched.
func (l Layout) EnvManifestsDirs() []string {
	return l.settings.ProvidersPath
}

// DefaultLockfilePath returns the lockfile path for a project rooted at dir:
// {dir}/vx.lock.
func (l Layout) DefaultLockfilePath(projectDir string) string {
	return filepath.Join(projectDir, "vx.lock")
}

// RegistryPackagesFile is the opaque persistent shim registry map (spec
// §4.10): {VX_HOME}/registry.json.
func (l Layout) RegistryPackagesFile() string {
	return filepath.Join(l.settings.Home, "registry.json")
}

// EnsureHome creates the base VX_HOME directory if missing.
func (l Layout) EnsureHome() error {
	return os.MkdirAll(l.settings.Home, 0o755)
}

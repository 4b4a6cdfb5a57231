// Package shim implements the global-package executor (spec §4.10): a
// process-wide registry of executables installed by ecosystem package
// managers (npm/yarn/pnpm global installs, `go install`, `cargo install`,
// pipx), and the exec-and-forward logic that runs one of them with the
// right runtime on PATH.
package shim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// PackageEntry is one executable's registration in the global package
// registry (spec §4.10 "opaque persistent map executable-name -> {...}").
type PackageEntry struct {
	Ecosystem           string   `json:"ecosystem"`
	Package             string   `json:"package"`
	InstallDir          string   `json:"install_dir"`
	RuntimeDependencies []string `json:"runtime_dependencies,omitempty"`
}

// Registry is the loaded {executable-name -> PackageEntry} map.
type Registry struct {
	path     string
	Packages map[string]PackageEntry
}

// Load reads the registry JSON file at path. A missing file is not an
// error: it loads as an empty registry, since the shim executor's first
// invocation on a fresh VX_HOME has nothing registered yet.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Registry{path: path, Packages: map[string]PackageEntry{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("shim: read registry %s: %w", path, err)
	}

	packages := map[string]PackageEntry{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &packages); err != nil {
			return nil, fmt.Errorf("shim: parse registry %s: %w", path, err)
		}
	}
	return &Registry{path: path, Packages: packages}, nil
}

// Save writes the registry back atomically (write-then-rename), matching
// the lockfile's own durability guarantee (spec §5 "lockfile writes use
// write-then-rename for atomicity").
func (r *Registry) Save() error {
	data, err := json.MarshalIndent(r.Packages, "", "  ")
	if err != nil {
		return fmt.Errorf("shim: marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("shim: create registry dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".registry-*.json")
	if err != nil {
		return fmt.Errorf("shim: create temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("shim: write temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("shim: close temp registry file: %w", err)
	}

	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("shim: rename registry file: %w", err)
	}
	return nil
}

// Lookup returns the entry registered for executable name, if any.
func (r *Registry) Lookup(name string) (PackageEntry, bool) {
	e, ok := r.Packages[name]
	return e, ok
}

// Register adds or replaces an executable's registration.
func (r *Registry) Register(name string, entry PackageEntry) {
	r.Packages[name] = entry
}

// Unregister removes an executable's registration, e.g. on `vx uninstall -g`.
func (r *Registry) Unregister(name string) {
	delete(r.Packages, name)
}

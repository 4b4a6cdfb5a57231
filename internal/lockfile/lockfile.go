// Package lockfile implements the schema-v1 lockfile format (spec §4.11,
// §6): recording concrete solved versions for a project's requested tools,
// plus consistency checking against the project's manifest-declared
// constraints.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// SchemaVersion is the only lockfile schema version this engine understands.
const SchemaVersion = 1

// Metadata is the `[metadata]` table.
type Metadata struct {
	GeneratedAt string `toml:"generated_at"`
	VXVersion   string `toml:"vx_version"`
	Platform    string `toml:"platform"`
}

// LockedTool is one `[tools.<name>]` entry.
type LockedTool struct {
	Version      string `toml:"version"`
	Source       string `toml:"source"`
	ResolvedFrom string `toml:"resolved_from"`
	Ecosystem    string `toml:"ecosystem"`
	Checksum     string `toml:"checksum,omitempty"`
}

// Lockfile is the in-memory, round-trippable lockfile.
type Lockfile struct {
	Version      int                    `toml:"version"`
	Metadata     Metadata               `toml:"metadata"`
	Tools        map[string]LockedTool  `toml:"tools"`
	Dependencies map[string][]string    `toml:"dependencies"`
}

// New returns an empty schema-v1 lockfile.
func New() *Lockfile {
	return &Lockfile{
		Version:      SchemaVersion,
		Tools:        make(map[string]LockedTool),
		Dependencies: make(map[string][]string),
	}
}

// Load reads and parses a lockfile from path.
func Load(path string) (*Lockfile, error) {
	var lf Lockfile
	if _, err := toml.DecodeFile(path, &lf); err != nil {
		return nil, fmt.Errorf("lockfile: decode %s: %w", path, err)
	}
	if lf.Tools == nil {
		lf.Tools = make(map[string]LockedTool)
	}
	if lf.Dependencies == nil {
		lf.Dependencies = make(map[string][]string)
	}
	return &lf, nil
}

// Save writes the lockfile atomically (write-then-rename, spec §5
// "Lockfile writes use write-then-rename for atomicity; readers never see
// a half-written lockfile").
func (lf *Lockfile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("lockfile: create parent dir: %w", err)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("lockfile: create temp file: %w", err)
	}

	enc := toml.NewEncoder(f)
	if err := enc.Encode(lf); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("lockfile: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("lockfile: close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("lockfile: rename into place: %w", err)
	}
	return nil
}

// LockTool records (or overwrites) a concrete solved version for name.
func (lf *Lockfile) LockTool(name string, tool LockedTool) {
	lf.Tools[name] = tool
}

// UnlockTool removes a tool's lock entry.
func (lf *Lockfile) UnlockTool(name string) {
	delete(lf.Tools, name)
}

// IsLocked reports whether name has a lock entry.
func (lf *Lockfile) IsLocked(name string) bool {
	_, ok := lf.Tools[name]
	return ok
}

// GetTool returns name's lock entry.
func (lf *Lockfile) GetTool(name string) (LockedTool, bool) {
	t, ok := lf.Tools[name]
	return t, ok
}

// Merge overlays other's tool and dependency entries onto lf, other winning
// on key collision. Used when composing a project lockfile with an
// ambient/global one.
func (lf *Lockfile) Merge(other *Lockfile) {
	for name, tool := range other.Tools {
		lf.Tools[name] = tool
	}
	for name, deps := range other.Dependencies {
		lf.Dependencies[name] = deps
	}
}

// InconsistencyKind is the closed set of lock/config drift shapes (spec §4.11).
type InconsistencyKind string

const (
	InconsistencyMissingInLock InconsistencyKind = "missing_in_lock"
	InconsistencyExtraInLock   InconsistencyKind = "extra_in_lock"
	InconsistencyVersionMismatch InconsistencyKind = "version_mismatch"
)

// Inconsistency is one drift finding from CheckConsistency.
type Inconsistency struct {
	Kind          InconsistencyKind
	Tool          string
	ConfigVersion string // VersionMismatch only
	LockedFrom    string // VersionMismatch only
}

// CheckConsistency compares the lockfile against a project's currently
// requested tools (name -> constraint string), reporting every drift
// without aborting (spec §4.11).
func (lf *Lockfile) CheckConsistency(requested map[string]string) []Inconsistency {
	var out []Inconsistency

	for name, constraint := range requested {
		tool, ok := lf.Tools[name]
		if !ok {
			out = append(out, Inconsistency{Kind: InconsistencyMissingInLock, Tool: name})
			continue
		}
		if constraint != "" && constraint != tool.ResolvedFrom {
			out = append(out, Inconsistency{
				Kind:          InconsistencyVersionMismatch,
				Tool:          name,
				ConfigVersion: constraint,
				LockedFrom:    tool.ResolvedFrom,
			})
		}
	}

	for name := range lf.Tools {
		if _, ok := requested[name]; !ok {
			out = append(out, Inconsistency{Kind: InconsistencyExtraInLock, Tool: name})
		}
	}

	return out
}

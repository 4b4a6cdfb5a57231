// Package store implements the on-disk install-record layout from spec §6:
// {base}/store/{runtime}/{version}/{platform-tag}/ install records, a
// per-runtime {base}/store/{runtime}/.lock file lock, and the download and
// version-catalog caches under {base}/cache/.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"github.com/vxrun/vx/internal/platform"
)

// StaleLockThreshold is the age after which an abandoned lock (its owning
// PID no longer alive) is broken rather than blocked on (spec §5 Shared
// resources: "a stale lock ... is broken only after a timeout (default 30
// min) and a process-liveness check").
const StaleLockThreshold = 30 * time.Minute

// Store roots every path under base (spec §6 store layout).
type Store struct {
	base string
}

// New returns a Store rooted at base. base is created if missing.
func New(base string) (*Store, error) {
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("store: create base dir: %w", err)
	}
	return &Store{base: base}, nil
}

// Base returns the store's root directory.
func (s *Store) Base() string { return s.base }

// RuntimeDir returns {base}/store/{runtime}.
func (s *Store) RuntimeDir(runtime string) string {
	return filepath.Join(s.base, "store", runtime)
}

// InstallDir returns {base}/store/{runtime}/{version}/{platform-tag}.
func (s *Store) InstallDir(runtime, version string, p platform.Platform) string {
	return filepath.Join(s.RuntimeDir(runtime), version, p.Tag())
}

// BinDir returns {base}/bin, the shim/PATH-entry directory for globals.
func (s *Store) BinDir() string {
	return filepath.Join(s.base, "bin")
}

// CachedCatalogPath returns {base}/cache/versions/{runtime}.json.
func (s *Store) CachedCatalogPath(runtime string) string {
	return filepath.Join(s.base, "cache", "versions", runtime+".json")
}

// CachedDownloadPath returns {base}/cache/downloads/{sha256}.
func (s *Store) CachedDownloadPath(sha256Hex string) string {
	return filepath.Join(s.base, "cache", "downloads", sha256Hex)
}

// RegistryPath returns {base}/registry.json, the global package registry.
func (s *Store) RegistryPath() string {
	return filepath.Join(s.base, "registry.json")
}

// IsInstalled reports whether an install record exists and looks
// structurally valid: the directory exists and is non-empty.
func (s *Store) IsInstalled(runtime, version string, p platform.Platform) bool {
	dir := s.InstallDir(runtime, version, p)
	entries, err := os.ReadDir(dir)
	return err == nil && len(entries) > 0
}

// InstalledVersions lists every version directory present for runtime,
// regardless of platform tag.
func (s *Store) InstalledVersions(runtime string) ([]string, error) {
	entries, err := os.ReadDir(s.RuntimeDir(runtime))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: list versions for %s: %w", runtime, err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() {
			versions = append(versions, e.Name())
		}
	}
	return versions, nil
}

// RuntimeLock is the per-runtime file lock guarding download+extract+
// normalize+post-install (spec §5 Ordering guarantees).
type RuntimeLock struct {
	path string
	fl   *flock.Flock
}

// Lock acquires (or returns) the per-runtime lock at {base}/store/{runtime}/.lock.
// A stale lock — age beyond StaleLockThreshold whose owning PID is dead — is
// broken before a fresh acquisition attempt.
func (s *Store) Lock(runtime string) (*RuntimeLock, error) {
	dir := s.RuntimeDir(runtime)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create runtime dir for lock: %w", err)
	}
	path := filepath.Join(dir, ".lock")

	breakIfStale(path)

	fl := flock.New(path)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("store: acquire lock for %s: %w", runtime, err)
	}
	if !locked {
		// Block until the holder releases it, per spec §5 "Concurrent store
		// access: blocks on the per-runtime file lock".
		if err := fl.Lock(); err != nil {
			return nil, fmt.Errorf("store: block on lock for %s: %w", runtime, err)
		}
	}

	if err := os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("store: write lock pid: %w", err)
	}

	return &RuntimeLock{path: path, fl: fl}, nil
}

// Unlock releases the lock.
func (l *RuntimeLock) Unlock() error {
	if l == nil || l.fl == nil {
		return nil
	}
	return l.fl.Unlock()
}

func breakIfStale(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if time.Since(info.ModTime()) < StaleLockThreshold {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return
	}
	if processAlive(pid) {
		return
	}
	_ = os.Remove(path)
}


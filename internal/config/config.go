// Package config loads the engine's own operational settings — base
// directory, cache directory, extra provider-manifest paths, color output,
// and install parallelism — from environment variables layered atop
// defaults, the way the teacher's internal/config + internal/path packages
// compose environment overrides with functional options. Cache TTLs and
// retry budgets are not among these settings. Project-level `vx.toml` parsing is out of scope (spec §1); this
// package only governs the engine's own knobs, not a project's tool map.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Settings is the engine's resolved operational configuration.
type Settings struct {
	Home           string // VX_HOME, defaults to ~/.vx
	CacheDir       string // VX_CACHE_DIR, defaults to {Home}/cache
	ProvidersPath  []string // VX_PROVIDERS_PATH, ':'/';'-separated extra manifest dirs
	NoColor        bool   // VX_NO_COLOR / NO_COLOR / CI
	MaxConcurrency int    // default min(CPU count, 4), spec §5
}

// Option customizes Load's result after environment defaults are applied,
// mirroring the teacher's path.Option functional-option constructors.
type Option func(*Settings)

// WithHome overrides the base directory.
func WithHome(dir string) Option {
	return func(s *Settings) { s.Home = dir }
}

// WithMaxConcurrency overrides the default install concurrency cap.
func WithMaxConcurrency(n int) Option {
	return func(s *Settings) { s.MaxConcurrency = n }
}

// Load resolves Settings from the environment, then applies opts.
func Load(opts ...Option) (Settings, error) {
	home, err := defaultHome()
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		Home:           home,
		MaxConcurrency: defaultConcurrency(),
	}

	if v := os.Getenv("VX_HOME"); v != "" {
		s.Home = expandHome(v)
	}
	s.CacheDir = filepath.Join(s.Home, "cache")
	if v := os.Getenv("VX_CACHE_DIR"); v != "" {
		s.CacheDir = expandHome(v)
	}
	if v := os.Getenv("VX_PROVIDERS_PATH"); v != "" {
		s.ProvidersPath = strings.Split(v, string(os.PathListSeparator))
	}
	s.NoColor = envTruthy("VX_NO_COLOR") || envTruthy("NO_COLOR") || os.Getenv("CI") != ""

	for _, opt := range opts {
		opt(&s)
	}

	return s, nil
}

func defaultHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".vx"), nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func defaultConcurrency() int {
	n := runtime.NumCPU()
	if n > 4 {
		return 4
	}
	if n < 1 {
		return 1
	}
	return n
}

func envTruthy(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	ok, _ := strconv.ParseBool(v)
	return ok || v == "1" || v == "true" || v == "yes"
}

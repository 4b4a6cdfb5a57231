package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/vxrun/vx/internal/config"
	"github.com/vxrun/vx/internal/engine"
	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/manifest/aqua"
	"github.com/vxrun/vx/internal/manifest/builtin"
	"github.com/vxrun/vx/internal/path"
	"github.com/vxrun/vx/internal/progress"
	"github.com/vxrun/vx/internal/registry"
)

// loadRegistry merges the embedded built-in providers with any discovered
// user-authored and VX_PROVIDERS_PATH manifests (spec §4.1 origin
// precedence: embedded < user < project < dev).
func loadRegistry(layout path.Layout) (*registry.Registry, error) {
	manifests, err := builtin.Load()
	if err != nil {
		return nil, fmt.Errorf("load builtin providers: %w", err)
	}

	userFiles, err := manifest.DiscoverUserManifests(layout.UserManifestsDir())
	if err != nil {
		return nil, fmt.Errorf("discover user providers: %w", err)
	}
	for _, f := range userFiles {
		m, err := manifest.Load(f, manifest.OriginUser)
		if err != nil {
			return nil, fmt.Errorf("load user provider %s: %w", f, err)
		}
		manifests = append(manifests, m)
	}

	for _, dir := range layout.EnvManifestsDirs() {
		for _, f := range manifest.DiscoverEnvManifests(dir) {
			m, err := loadEnvManifest(f)
			if err != nil {
				return nil, fmt.Errorf("load env provider %s: %w", f, err)
			}
			manifests = append(manifests, m)
		}
	}

	return registry.Build(manifests)
}

// loadEnvManifest loads a VX_PROVIDERS_PATH-discovered file as either a
// native TOML provider or, when it looks like an aqua-registry registry.yaml
// (spec §4.1's secondary manifest source), through the aqua bridge.
func loadEnvManifest(f string) (*manifest.ProviderManifest, error) {
	if strings.HasSuffix(f, ".yaml") || strings.HasSuffix(f, ".yml") {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, err
		}
		rf, err := aqua.ParseRegistryFile(data)
		if err != nil {
			return nil, err
		}
		return aqua.ToProviderManifest(rf, f, manifest.OriginUser)
	}
	return manifest.Load(f, manifest.OriginUser)
}

// newEngine wires config, registry, and a TTY-aware progress reporter into
// a ready-to-use Engine, the way every subcommand other than `version`
// needs one (mirrors the teacher's cmd/toto/doctor.go per-command
// config-then-paths-then-store bootstrap, generalized into one helper).
func newEngine(settings config.Settings) (*engine.Engine, error) {
	return newEngineWithReporter(settings, nil)
}

// newEngineWithReporter is newEngine with an optional Reporter override —
// `install` uses it to swap in the bubbletea batch view (see install.go)
// for multi-runtime TTY runs, while everything else keeps the plain
// mpb/color-line Manager.
func newEngineWithReporter(settings config.Settings, reporter progress.Reporter) (*engine.Engine, error) {
	layout := path.New(settings)
	reg, err := loadRegistry(layout)
	if err != nil {
		return nil, err
	}

	if settings.NoColor {
		color.NoColor = true
	}
	if reporter == nil {
		reporter = progress.NewManager(os.Stdout)
	}
	return engine.New(reg, settings, engine.WithReporter(reporter))
}

func loadSettings() (config.Settings, error) {
	return config.Load()
}

package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	vxerrors "github.com/vxrun/vx/internal/errors"
)

// Load parses a single provider TOML file from path.
//
// Required fields: provider.name, and each runtime's name + executable.
// Unknown top-level/table fields never fail parsing (forward compatibility,
// spec §4.1); go-toml/v2's strict decoder is deliberately NOT used here for
// that reason.
func Load(path string, origin OriginKind) (*ProviderManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vxerrors.NewConfigNotFound(path)
		}
		return nil, vxerrors.NewIO(path, err)
	}
	return Parse(data, path, origin)
}

// Parse parses TOML bytes into a ProviderManifest, tagging it with origin
// metadata for the registry's priority/precedence rules.
func Parse(data []byte, originPath string, origin OriginKind) (*ProviderManifest, error) {
	var m ProviderManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		var derr *toml.DecodeError
		if asDecodeError(err, &derr) {
			row, col := derr.Position()
			return nil, vxerrors.NewConfigInvalid(originPath, row, col, err)
		}
		return nil, vxerrors.NewConfigInvalid(originPath, 0, 0, err)
	}

	if m.Provider.Name == "" {
		return nil, vxerrors.NewConfigMissingField(originPath, "provider.name")
	}

	for i, rt := range m.Runtimes {
		if rt.Name == "" {
			return nil, vxerrors.NewConfigMissingField(originPath, fmt.Sprintf("runtimes[%d].name", i))
		}
		if rt.Executable == "" {
			return nil, vxerrors.NewConfigMissingField(originPath, fmt.Sprintf("runtimes[%d].executable", i))
		}
		// bundled_with / managed_by are rewritten to a required dependency
		// with provided_by set, per spec §4.2 registry build rules.
		if rt.BundledWith != "" {
			m.Runtimes[i].Dependencies = append(rt.Dependencies, RuntimeDependency{
				Name:       rt.BundledWith,
				Required:   true,
				ProvidedBy: rt.BundledWith,
				Reason:     "bundled_with",
			})
		}
		if rt.ManagedBy != "" {
			m.Runtimes[i].Dependencies = append(m.Runtimes[i].Dependencies, RuntimeDependency{
				Name:       rt.ManagedBy,
				Required:   true,
				ProvidedBy: rt.ManagedBy,
				Reason:     "managed_by",
			})
		}
	}

	m.Origin = originPath
	m.OriginKind = origin
	return &m, nil
}

func asDecodeError(err error, target **toml.DecodeError) bool {
	de, ok := err.(*toml.DecodeError)
	if !ok {
		return false
	}
	*target = de
	return true
}

// DiscoverUserManifests walks `{userDir}/providers/*/provider.toml` (spec
// §3 "discovered from ... ~/<user-dir>/providers/<name>/provider.toml").
func DiscoverUserManifests(userDir string) ([]string, error) {
	root := filepath.Join(userDir, "providers")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, vxerrors.NewIO(root, err)
	}

	var paths []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(root, e.Name(), "provider.toml")
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// DiscoverEnvManifests parses VX_PROVIDERS_PATH, a ':'-separated list of
// extra search paths. Each path may itself be a directory (recursively
// scanned one level for provider.toml files) or a direct file path.
func DiscoverEnvManifests(envValue string) []string {
	if envValue == "" {
		return nil
	}

	var out []string
	for _, p := range strings.Split(envValue, ":") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			out = append(out, p)
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				candidate := filepath.Join(p, e.Name(), "provider.toml")
				if _, err := os.Stat(candidate); err == nil {
					out = append(out, candidate)
				}
			}
		}
	}
	return out
}

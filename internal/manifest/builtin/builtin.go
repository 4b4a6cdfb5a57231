// Package builtin embeds the provider manifests vx ships with out of the
// box (spec §4.1 "embedded < user < project < dev" origin precedence,
// lowest tier), so a fresh install resolves node/go/python/yarn/pnpm/cargo
// without any user-authored TOML.
package builtin

import (
	"embed"
	"fmt"
	"sort"

	"github.com/vxrun/vx/internal/manifest"
)

//go:embed providers/*.toml
var providerFiles embed.FS

// Load parses every embedded provider manifest, tagged OriginBuiltin.
func Load() ([]*manifest.ProviderManifest, error) {
	entries, err := providerFiles.ReadDir("providers")
	if err != nil {
		return nil, fmt.Errorf("builtin: read embedded providers: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	manifests := make([]*manifest.ProviderManifest, 0, len(names))
	for _, name := range names {
		data, err := providerFiles.ReadFile("providers/" + name)
		if err != nil {
			return nil, fmt.Errorf("builtin: read %s: %w", name, err)
		}
		m, err := manifest.Parse(data, "builtin:"+name, manifest.OriginBuiltin)
		if err != nil {
			return nil, fmt.Errorf("builtin: parse %s: %w", name, err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

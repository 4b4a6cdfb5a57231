// Package aqua bridges aqua-registry-shaped registry.yaml package
// definitions into vx's own ProviderManifest/RuntimeDef model (spec §4.1),
// so aqua's existing corpus of tool definitions becomes a secondary,
// read-only manifest source alongside the embedded and user-authored TOML
// providers.
//
// The package definition types below (PackageInfo, FileSpec, ChecksumSpec,
// VersionOverride, Override) mirror aqua's own registry configuration
// schema field-for-field.
//
// Reference:
//   - aqua source: https://github.com/aquaproj/aqua/blob/main/pkg/config/registry/package_info.go
//   - aqua-registry: https://github.com/aquaproj/aqua-registry
package aqua

// PackageInfo is one package definition from an aqua-registry registry.yaml.
type PackageInfo struct {
	Type             string            `yaml:"type"`
	RepoOwner        string            `yaml:"repo_owner"`
	RepoName         string            `yaml:"repo_name"`
	Description      string            `yaml:"description,omitempty"`
	Asset            string            `yaml:"asset,omitempty"`
	URL              string            `yaml:"url,omitempty"`
	Format           string            `yaml:"format,omitempty"`
	Files            []FileSpec        `yaml:"files,omitempty"`
	Replacements     map[string]string `yaml:"replacements,omitempty"`
	Checksum         *ChecksumSpec     `yaml:"checksum,omitempty"`
	VersionOverrides []VersionOverride `yaml:"version_overrides,omitempty"`
	SupportedEnvs    []string          `yaml:"supported_envs,omitempty"`
	Overrides        []Override        `yaml:"overrides,omitempty"`
}

// FileSpec specifies a file to install from the downloaded archive.
type FileSpec struct {
	Name string `yaml:"name"`
	Src  string `yaml:"src,omitempty"`
}

// ChecksumSpec specifies aqua's checksum verification settings. vx reads
// these but does not currently act on them: the github-release catalog
// parser never fetches a per-asset checksum file (see DESIGN.md).
type ChecksumSpec struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Type      string `yaml:"type,omitempty"`
	Asset     string `yaml:"asset,omitempty"`
	Algorithm string `yaml:"algorithm,omitempty"`
}

// VersionOverride specifies version-constrained configuration overrides.
type VersionOverride struct {
	VersionConstraint string            `yaml:"version_constraint"`
	Asset             string            `yaml:"asset,omitempty"`
	Format            string            `yaml:"format,omitempty"`
	Checksum          *ChecksumSpec     `yaml:"checksum,omitempty"`
	Replacements      map[string]string `yaml:"replacements,omitempty"`
	Overrides         []Override        `yaml:"overrides,omitempty"`
	SupportedEnvs     []string          `yaml:"supported_envs,omitempty"`
}

// Override specifies OS/Arch-specific configuration overrides.
type Override struct {
	GOOS         string            `yaml:"goos,omitempty"`
	GOArch       string            `yaml:"goarch,omitempty"`
	Format       string            `yaml:"format,omitempty"`
	Asset        string            `yaml:"asset,omitempty"`
	Replacements map[string]string `yaml:"replacements,omitempty"`
}

// RegistryFile is the top-level shape of an aqua-registry registry.yaml.
type RegistryFile struct {
	Packages []PackageInfo `yaml:"packages"`
}

// Package manifest parses declarative TOML provider files into typed
// runtime definitions (spec §3 RuntimeSpec/RuntimeDependency, §4.1 Manifest
// loader). Unknown TOML fields do not fail parse, to stay forward
// compatible with manifests written for a newer engine; they are dropped,
// not kept (Parse never fills ProviderManifest.UnknownField).
package manifest

// Ecosystem is the closed set of package ecosystems a runtime belongs to.
type Ecosystem string

const (
	EcosystemNode    Ecosystem = "node"
	EcosystemPython  Ecosystem = "python"
	EcosystemRust    Ecosystem = "rust"
	EcosystemGo      Ecosystem = "go"
	EcosystemJava    Ecosystem = "java"
	EcosystemSystem  Ecosystem = "system"
	EcosystemGeneric Ecosystem = "generic"
)

// ProviderManifest is the parsed form of a single provider TOML file.
type ProviderManifest struct {
	Provider ProviderMeta `toml:"provider"`
	Runtimes []RuntimeDef `toml:"runtimes"`

	// Origin is the discovered file path this manifest was loaded from,
	// used to break priority ties (embedded < user < project < dev).
	Origin       string
	OriginKind   OriginKind
	UnknownField map[string]any `toml:"-"`
}

// OriginKind classifies where a manifest was discovered from (§3 ProviderManifest).
type OriginKind int

const (
	OriginBuiltin OriginKind = iota
	OriginUser
	OriginProject
	OriginDev
)

// Precedence returns higher-wins-ties precedence, dev > project > user > built-in.
func (k OriginKind) Precedence() int {
	switch k {
	case OriginDev:
		return 3
	case OriginProject:
		return 2
	case OriginUser:
		return 1
	default:
		return 0
	}
}

// ProviderMeta is the required `[provider]` table.
type ProviderMeta struct {
	Name     string `toml:"name"`
	Homepage string `toml:"homepage,omitempty"`
	Source   string `toml:"source,omitempty"` // e.g. "git+https://..."
}

// RuntimeDef is one `[[runtimes]]` entry as parsed from TOML, before it is
// collapsed into an immutable RuntimeSpec by the registry.
type RuntimeDef struct {
	Name             string               `toml:"name"`
	Aliases          []string             `toml:"aliases,omitempty"`
	Executable       string               `toml:"executable"`
	Ecosystem        Ecosystem            `toml:"ecosystem,omitempty"`
	Priority         int32                `toml:"priority,omitempty"`
	AutoInstallable  bool                 `toml:"auto_installable,omitempty"`
	BundledWith      string               `toml:"bundled_with,omitempty"`
	ManagedBy        string               `toml:"managed_by,omitempty"`
	Dependencies     []RuntimeDependency  `toml:"dependencies,omitempty"`
	Constraints      []ConstraintRule     `toml:"constraints,omitempty"`
	EnvVars          map[string]string    `toml:"env_vars,omitempty"`
	Detection        DetectionConfig      `toml:"detection,omitempty"`
	Layout           ExecutableLayout     `toml:"layout,omitempty"`
	Normalize        NormalizeConfig      `toml:"normalize,omitempty"`
	PlatformConstraint []string           `toml:"platform_constraint,omitempty"`
	SystemDeps       SystemDeps           `toml:"system_deps,omitempty"`
	Catalog          CatalogSource        `toml:"catalog,omitempty"`
}

// RuntimeDependency is an edge in the dependency graph (spec §3/§4.6).
type RuntimeDependency struct {
	Name                string `toml:"runtime"`
	Required            bool   `toml:"required,omitempty"`
	MinVersion          string `toml:"min_version,omitempty"`
	MaxVersion          string `toml:"max_version,omitempty"`
	RecommendedVersion  string `toml:"recommended_version,omitempty"`
	Reason              string `toml:"reason,omitempty"`
	ProvidedBy          string `toml:"provided_by,omitempty"`
	Optional            bool   `toml:"optional,omitempty"`
}

// ConstraintRule is a `[[runtimes.constraints]]` entry: a version-gated set
// of dependencies. `when = "*"` rules are hoisted onto the RuntimeSpec as
// static dependencies at registry build time; any other `when` stays on the
// RuntimeDef and is queried per-version via the constraints registry.
type ConstraintRule struct {
	When     string              `toml:"when"`
	Requires []RuntimeDependency `toml:"requires"`
}

// DetectionConfig describes how to find/verify an existing installation.
type DetectionConfig struct {
	Command      []string `toml:"command,omitempty"`
	Pattern      string   `toml:"pattern,omitempty"`
	SystemPaths  []string `toml:"system_paths,omitempty"`
	EnvHints     []string `toml:"env_hints,omitempty"`
}

// DownloadType is the closed set of install artifact shapes (spec §4.1).
type DownloadType string

const (
	DownloadBinary  DownloadType = "binary"
	DownloadArchive DownloadType = "archive"
	DownloadMSI     DownloadType = "msi"
)

// ExecutableLayout describes how a downloaded artifact is arranged into an
// install record (spec §3 RuntimeSpec.layout, §4.1, §4.7 step 8).
type ExecutableLayout struct {
	DownloadType DownloadType                  `toml:"download_type"`
	Binary       map[string]BinaryLayout       `toml:"binary,omitempty"`   // keyed by "{os}-{arch}"
	Archive      ArchiveLayout                 `toml:"archive,omitempty"`
	Windows      *ArchiveLayout                `toml:"windows,omitempty"`
	MacOS        *ArchiveLayout                `toml:"macos,omitempty"`
	Linux        *ArchiveLayout                `toml:"linux,omitempty"`
	URLTemplate  string                        `toml:"url_template,omitempty"`
}

// BinaryLayout is a single-file download destination (spec §4.1 layout.binary.{os-arch}).
type BinaryLayout struct {
	SourceName         string `toml:"source_name"`
	TargetName         string `toml:"target_name"`
	TargetDir          string `toml:"target_dir,omitempty"`
	TargetPermissions  string `toml:"target_permissions,omitempty"`
}

// ArchiveLayout describes an extracted archive's candidate executable paths.
type ArchiveLayout struct {
	ExecutablePaths []string `toml:"executable_paths,omitempty"`
	StripPrefix     string   `toml:"strip_prefix,omitempty"`
	Permissions     string   `toml:"permissions,omitempty"`
}

// NormalizeConfig describes post-install layout canonicalization (spec §4.8).
type NormalizeConfig struct {
	Enabled     bool                `toml:"enabled,omitempty"`
	Executables []ExecutableRule    `toml:"executables,omitempty"`
	Directories []DirectoryRule     `toml:"directories,omitempty"`
	Aliases     []AliasRule         `toml:"aliases,omitempty"`
}

// NormalizeAction is the closed set of ways a normalize rule can place a file.
type NormalizeAction string

const (
	ActionLink     NormalizeAction = "link"
	ActionHardLink NormalizeAction = "hard-link"
	ActionCopy     NormalizeAction = "copy"
	ActionMove     NormalizeAction = "move"
)

// ExecutableRule places one glob-matched executable into bin/.
type ExecutableRule struct {
	Source      string          `toml:"source"`
	Target      string          `toml:"target"`
	Action      NormalizeAction `toml:"action,omitempty"`
	Permissions string          `toml:"permissions,omitempty"`
}

// DirectoryRule is the directory-granularity equivalent of ExecutableRule.
type DirectoryRule struct {
	Source string          `toml:"source"`
	Target string          `toml:"target"`
	Action NormalizeAction `toml:"action,omitempty"`
}

// AliasRule creates a symlink from bin/name to an existing bin/target.
type AliasRule struct {
	Name   string `toml:"name"`
	Target string `toml:"target"`
}

// SystemDepType is the closed set of system prerequisite kinds (spec §4.13).
type SystemDepType string

const (
	SystemDepRuntime        SystemDepType = "runtime"
	SystemDepPackage        SystemDepType = "package"
	SystemDepFeature        SystemDepType = "feature"
	SystemDepWindowsKB      SystemDepType = "windows_kb"
	SystemDepVCRedist       SystemDepType = "vcredist"
	SystemDepDotNet         SystemDepType = "dotnet"
	SystemDepWindowsFeature SystemDepType = "windows_feature"
)

// SystemDeps holds a runtime's system-level prerequisites.
type SystemDeps struct {
	PreDepends []SystemDependency `toml:"pre_depends,omitempty"`
}

// SystemDependency is one `[[runtimes.system_deps.pre_depends]]` entry.
type SystemDependency struct {
	Type SystemDepType `toml:"type"`
	Name string        `toml:"name"`
}

// CatalogSource declares where a runtime's upstream version catalog comes
// from and which parser strategy to apply to the response (spec §4.4).
type CatalogSource struct {
	Kind    CatalogKind `toml:"kind,omitempty"`
	URL     string      `toml:"url,omitempty"`
	TTL     string      `toml:"ttl,omitempty"` // parsed with time.ParseDuration; default 24h
	GitHub  *GitHubCatalog `toml:"github,omitempty"`
}

// CatalogKind is the closed set of named catalog parser strategies
// (spec §9 REDESIGN FLAGS: closed strategy set, not an open trait registry).
type CatalogKind string

const (
	CatalogNodeJSON      CatalogKind = "nodejs"
	CatalogGoJSON        CatalogKind = "go"
	CatalogGitHubRelease CatalogKind = "github-release"
	CatalogOCI           CatalogKind = "oci"
)

// GitHubCatalog configures the GitHub releases API catalog parser.
type GitHubCatalog struct {
	Owner     string `toml:"owner"`
	Repo      string `toml:"repo"`
	TagPrefix string `toml:"tag_prefix,omitempty"`
}

package aqua

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/platform"
)

// ParseRegistryFile parses an aqua-registry-shaped registry.yaml document.
func ParseRegistryFile(data []byte) (*RegistryFile, error) {
	var rf RegistryFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("aqua: parse registry.yaml: %w", err)
	}
	return &rf, nil
}

// ToProviderManifest projects every github_release package in rf into a
// single ProviderManifest, tagged origin (the caller decides whether this
// counts as a user- or dev-level source per spec §4.1 precedence). Package
// types other than "github_release" (http, go_install, standard-library
// placeholders) have no meaningful translation into vx's download-artifact
// model and are skipped rather than erroring the whole file.
func ToProviderManifest(rf *RegistryFile, origin string, kind manifest.OriginKind) (*manifest.ProviderManifest, error) {
	pm := &manifest.ProviderManifest{
		Provider:   manifest.ProviderMeta{Name: "aqua-bridge", Source: origin},
		Origin:     origin,
		OriginKind: kind,
	}

	for _, pkg := range rf.Packages {
		if pkg.Type != "" && pkg.Type != "github_release" {
			continue
		}
		def, err := toRuntimeDef(pkg)
		if err != nil {
			return nil, fmt.Errorf("aqua: %s/%s: %w", pkg.RepoOwner, pkg.RepoName, err)
		}
		pm.Runtimes = append(pm.Runtimes, def)
	}
	return pm, nil
}

// toRuntimeDef projects one aqua PackageInfo into a vx RuntimeDef.
func toRuntimeDef(pkg PackageInfo) (manifest.RuntimeDef, error) {
	name := pkg.RepoName
	executable := name
	if len(pkg.Files) > 0 && pkg.Files[0].Name != "" {
		executable = pkg.Files[0].Name
	}

	def := manifest.RuntimeDef{
		Name:            name,
		Executable:      executable,
		Ecosystem:       manifest.EcosystemGeneric,
		AutoInstallable: true,
		Catalog: manifest.CatalogSource{
			Kind: manifest.CatalogGitHubRelease,
			GitHub: &manifest.GitHubCatalog{
				Owner: pkg.RepoOwner,
				Repo:  pkg.RepoName,
			},
		},
	}

	layout, err := toLayout(pkg)
	if err != nil {
		return manifest.RuntimeDef{}, err
	}
	def.Layout = layout
	return def, nil
}

// isRawFormat reports whether an aqua format value means "no archive,
// download the binary directly" (aqua's own convention for format == "" or
// format == "raw").
func isRawFormat(format string) bool {
	return format == "" || format == "raw"
}

// toLayout builds an ExecutableLayout from pkg's base asset/format plus its
// goos/goarch overrides. Raw (non-archive) packages become a per-platform
// Binary map; archive packages become a single Archive entry, since vx's
// ArchiveLayout has no per-arch dimension (a scope limit noted in
// DESIGN.md: aqua's finer-grained archive overrides collapse onto one
// extraction rule per runtime rather than per os/arch pair).
func toLayout(pkg PackageInfo) (manifest.ExecutableLayout, error) {
	baseAsset := pkg.Asset
	baseFormat := pkg.Format

	if isRawFormat(baseFormat) {
		layout := manifest.ExecutableLayout{
			DownloadType: manifest.DownloadBinary,
			Binary:       map[string]manifest.BinaryLayout{},
		}
		for _, ov := range pkg.Overrides {
			asset := ov.Asset
			if asset == "" {
				asset = baseAsset
			}
			p, err := platform.FromGo(ov.GOOS, ov.GOArch)
			if err != nil {
				continue // aqua covers OSes/arches vx's closed platform set doesn't
			}
			layout.Binary[p.Tag()] = manifest.BinaryLayout{
				SourceName: translateAssetTemplate(asset),
				TargetName: pkg.RepoName,
			}
		}
		layout.URLTemplate = releaseURLTemplate(pkg, translateAssetTemplate(baseAsset))
		return layout, nil
	}

	return manifest.ExecutableLayout{
		DownloadType: manifest.DownloadArchive,
		Archive: manifest.ArchiveLayout{
			ExecutablePaths: []string{pkg.RepoName, pkg.RepoName + "{ext}"},
		},
		URLTemplate: releaseURLTemplate(pkg, translateAssetTemplate(baseAsset)),
	}, nil
}

// releaseURLTemplate builds a vx-syntax url_template for a GitHub release
// asset: either pkg.URL (translated) when aqua overrides the default host,
// or the standard releases/download/{version}/<asset> shape.
func releaseURLTemplate(pkg PackageInfo, asset string) string {
	if pkg.URL != "" {
		return translateAssetTemplate(pkg.URL)
	}
	return fmt.Sprintf("https://github.com/%s/%s/releases/download/{version}/%s", pkg.RepoOwner, pkg.RepoName, asset)
}

// assetTemplateReplacer maps aqua's Go-template asset placeholders onto
// vx's `{var}` interpolation syntax (internal/manifest.Interpolate), for
// the common subset of expressions the aqua-registry corpus actually uses.
// It is not a general Go-template interpreter: custom function calls other
// than the `trimV` form listed below pass through untranslated, and the runtime
// Interpolate call fails loudly on the result rather than installing a
// broken URL silently.
var assetTemplateReplacer = strings.NewReplacer(
	"{{trimV .Version}}", "{version}",
	"{{ trimV .Version }}", "{version}",
	"{{.SemVer}}", "{version}",
	"{{ .SemVer }}", "{version}",
	"{{.Version}}", "{version}",
	"{{ .Version }}", "{version}",
	"{{.OS}}", "{os}",
	"{{ .OS }}", "{os}",
	"{{.Arch}}", "{arch}",
	"{{ .Arch }}", "{arch}",
	"{{.Format}}", "{ext}",
	"{{ .Format }}", "{ext}",
)

func translateAssetTemplate(s string) string {
	return assetTemplateReplacer.Replace(s)
}

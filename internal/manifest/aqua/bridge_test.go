package aqua

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/manifest"
)

const sampleRegistry = `
packages:
  - type: github_release
    repo_owner: junegunn
    repo_name: fzf
    asset: fzf-{{trimV .Version}}-{{.OS}}_{{.Arch}}.{{.Format}}
    format: tar.gz
    overrides:
      - goos: darwin
        goarch: amd64
      - goos: linux
        goarch: amd64
  - type: go_install
    repo_owner: example
    repo_name: unsupported-type
`

func TestParseRegistryFile(t *testing.T) {
	rf, err := ParseRegistryFile([]byte(sampleRegistry))
	require.NoError(t, err)
	require.Len(t, rf.Packages, 2)
	assert.Equal(t, "fzf", rf.Packages[0].RepoName)
}

func TestToProviderManifest_SkipsUnsupportedTypes(t *testing.T) {
	rf, err := ParseRegistryFile([]byte(sampleRegistry))
	require.NoError(t, err)

	pm, err := ToProviderManifest(rf, "registry.yaml", manifest.OriginUser)
	require.NoError(t, err)
	require.Len(t, pm.Runtimes, 1)
	assert.Equal(t, "fzf", pm.Runtimes[0].Name)
}

func TestToRuntimeDef_ArchiveURLTemplate(t *testing.T) {
	rf, err := ParseRegistryFile([]byte(sampleRegistry))
	require.NoError(t, err)

	pm, err := ToProviderManifest(rf, "registry.yaml", manifest.OriginUser)
	require.NoError(t, err)

	def := pm.Runtimes[0]
	assert.Equal(t, manifest.DownloadArchive, def.Layout.DownloadType)
	assert.Contains(t, def.Layout.URLTemplate, "github.com/junegunn/fzf/releases/download/{version}/")
	assert.Contains(t, def.Layout.URLTemplate, "{os}")
	assert.Contains(t, def.Layout.URLTemplate, "{arch}")
	assert.Equal(t, manifest.CatalogGitHubRelease, def.Catalog.Kind)
	require.NotNil(t, def.Catalog.GitHub)
	assert.Equal(t, "junegunn", def.Catalog.GitHub.Owner)
}

func TestToRuntimeDef_RawFormatBuildsBinaryLayout(t *testing.T) {
	data := `
packages:
  - type: github_release
    repo_owner: owner
    repo_name: tool
    asset: tool_{{.OS}}_{{.Arch}}
    overrides:
      - goos: linux
        goarch: amd64
      - goos: darwin
        goarch: arm64
`
	rf, err := ParseRegistryFile([]byte(data))
	require.NoError(t, err)

	pm, err := ToProviderManifest(rf, "registry.yaml", manifest.OriginUser)
	require.NoError(t, err)
	require.Len(t, pm.Runtimes, 1)

	def := pm.Runtimes[0]
	assert.Equal(t, manifest.DownloadBinary, def.Layout.DownloadType)
	assert.Contains(t, def.Layout.Binary, "linux-x86_64")
	assert.Contains(t, def.Layout.Binary, "macos-aarch64")
}

func TestTranslateAssetTemplate(t *testing.T) {
	got := translateAssetTemplate("tool-{{trimV .Version}}-{{.OS}}-{{.Arch}}.{{.Format}}")
	assert.Equal(t, "tool-{version}-{os}-{arch}.{ext}", got)
}

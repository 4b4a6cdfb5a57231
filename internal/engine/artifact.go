package engine

import (
	"fmt"

	"github.com/vxrun/vx/internal/catalog"
	"github.com/vxrun/vx/internal/checksum"
	"github.com/vxrun/vx/internal/installer/download"
	"github.com/vxrun/vx/internal/installer/extract"
	"github.com/vxrun/vx/internal/manifest"
	"github.com/vxrun/vx/internal/platform"
	"github.com/vxrun/vx/internal/registry"
)

// artifact describes what a single resolved (runtime, version) needs
// downloaded and how to place it once on disk (spec §4.1 layout, §4.7
// steps 7-8).
type artifact struct {
	source      download.Source
	downloadURL string
	archive     manifest.ArchiveLayout
	isArchive   bool
	binary      manifest.BinaryLayout
}

// resolveArtifact picks the platform-appropriate layout entry from spec and
// interpolates its URL template (or falls back to the catalog's own
// per-version download URL when the manifest leaves url_template empty).
func resolveArtifact(spec *registry.RuntimeSpec, version string, info catalog.VersionInfo, p platform.Platform) (artifact, error) {
	vars := manifest.Vars(p.Vars()).Merge(manifest.Vars{
		"version": version,
		"name":    spec.Name,
	})

	switch spec.Layout.DownloadType {
	case manifest.DownloadBinary:
		bl, ok := spec.Layout.Binary[p.Tag()]
		if !ok {
			return artifact{}, fmt.Errorf("engine: %s has no binary layout for platform %s", spec.Name, p.Tag())
		}
		url, err := resolveURL(spec.Layout.URLTemplate, info, vars)
		if err != nil {
			return artifact{}, err
		}
		return artifact{
			source:      buildSource(url, info),
			downloadURL: url,
			binary:      bl,
			isArchive:   false,
		}, nil

	case manifest.DownloadMSI:
		url, err := resolveURL(spec.Layout.URLTemplate, info, vars)
		if err != nil {
			return artifact{}, err
		}
		return artifact{source: buildSource(url, info), downloadURL: url, isArchive: false}, nil

	default: // DownloadArchive, and the empty-string zero value
		al := archiveLayoutFor(spec, p)
		url, err := resolveURL(spec.Layout.URLTemplate, info, vars)
		if err != nil {
			return artifact{}, err
		}
		return artifact{
			source:      buildSource(url, info),
			downloadURL: url,
			archive:     al,
			isArchive:   true,
		}, nil
	}
}

// archiveLayoutFor applies the per-OS archive layout override (spec §4.1
// "layout.windows / layout.macos / layout.linux override layout.archive").
func archiveLayoutFor(spec *registry.RuntimeSpec, p platform.Platform) manifest.ArchiveLayout {
	switch p.OS {
	case platform.Windows:
		if spec.Layout.Windows != nil {
			return *spec.Layout.Windows
		}
	case platform.MacOS:
		if spec.Layout.MacOS != nil {
			return *spec.Layout.MacOS
		}
	case platform.Linux:
		if spec.Layout.Linux != nil {
			return *spec.Layout.Linux
		}
	}
	return spec.Layout.Archive
}

func resolveURL(template string, info catalog.VersionInfo, vars manifest.Vars) (string, error) {
	if template == "" {
		if info.DownloadURL != "" {
			return info.DownloadURL, nil
		}
		return "", fmt.Errorf("engine: no url_template and catalog entry has no download_url")
	}
	return manifest.Interpolate(template, vars)
}

func buildSource(url string, info catalog.VersionInfo) download.Source {
	src := download.Source{URLs: []string{url}}
	if info.Checksum != "" {
		if algo, value, err := checksum.Parse(info.Checksum); err == nil {
			src.ChecksumAlgorithm = algo
			src.ChecksumValue = value
		}
	}
	return src
}

// archiveTypeFor detects the archive format from the download URL, falling
// back to the platform's preferred extension when the URL carries none
// (spec §4.7 step 8 "detect archive type from file extension").
func archiveTypeFor(url string, p platform.Platform) extract.ArchiveType {
	if t := extract.DetectArchiveType(url); t != "" {
		return t
	}
	return extract.DetectArchiveType(p.PreferredArchiveExt())
}

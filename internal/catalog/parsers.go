package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-containerregistry/pkg/crane"

	vxgithub "github.com/vxrun/vx/internal/github"
)

// Parser turns a fetched catalog source into a normalized, descending-sorted
// list of VersionInfo (spec §4.4). Each CatalogKind maps to exactly one
// Parser; this is a closed set by design (spec §9 REDESIGN FLAGS), not an
// open plugin registry.
type Parser interface {
	ParseVersions(ctx context.Context, includePrerelease bool) ([]VersionInfo, error)
}

// isPrerelease mirrors the original implementation's substring heuristic
// (alpha/beta/rc), ported from
// original_source/crates/vx-version/src/parser.rs.
func isPrerelease(version string) bool {
	lower := strings.ToLower(version)
	return strings.Contains(lower, "alpha") || strings.Contains(lower, "beta") || strings.Contains(lower, "rc")
}

// NodeParser parses the Node.js official `index.json` release list.
type NodeParser struct {
	Client *http.Client
	URL    string
}

type nodeRelease struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	LTS     any    `json:"lts"` // false, or a codename string
}

func (p *NodeParser) ParseVersions(ctx context.Context, includePrerelease bool) ([]VersionInfo, error) {
	body, err := httpGetJSON(ctx, p.Client, p.URL)
	if err != nil {
		return nil, err
	}

	var releases []nodeRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("catalog: decoding node release list: %w", err)
	}

	var out []VersionInfo
	for _, rel := range releases {
		version := strings.TrimPrefix(rel.Version, "v")
		if version == "" {
			continue
		}
		prerelease := isPrerelease(version)
		if !includePrerelease && prerelease {
			continue
		}

		var ltsName string
		isLTS := false
		if s, ok := rel.LTS.(string); ok && s != "" {
			isLTS = true
			ltsName = s
		}

		vi := VersionInfo{Version: version, ReleasedAt: rel.Date, Prerelease: prerelease, LTS: isLTS}
		if isLTS {
			vi = vi.WithMetadata("lts_name", ltsName)
		}
		out = append(out, vi)
	}

	return sortDescending(out), nil
}

// GoParser parses the official Go downloads JSON (`go.dev/dl/?mode=json`).
type GoParser struct {
	Client *http.Client
	URL    string
}

type goRelease struct {
	Version string `json:"version"`
	Stable  bool   `json:"stable"`
}

func (p *GoParser) ParseVersions(ctx context.Context, includePrerelease bool) ([]VersionInfo, error) {
	body, err := httpGetJSON(ctx, p.Client, p.URL)
	if err != nil {
		return nil, err
	}

	var releases []goRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("catalog: decoding go release list: %w", err)
	}

	var out []VersionInfo
	for _, rel := range releases {
		version := strings.TrimPrefix(rel.Version, "go")
		if version == "" {
			continue
		}
		prerelease := isPrerelease(version)
		if !includePrerelease && (prerelease || !rel.Stable) {
			continue
		}

		vi := VersionInfo{Version: version, Prerelease: prerelease, LTS: false}
		if rel.Stable {
			vi = vi.WithMetadata("stable", "true")
		}
		out = append(out, vi)
	}

	return sortDescending(out), nil
}

// GitHubReleaseParser parses a repository's GitHub Releases API list,
// ported from GitHubVersionParser in
// original_source/crates/vx-version/src/parser.rs, using the teacher's
// internal/github client for auth/rate-limit handling.
type GitHubReleaseParser struct {
	Client    *http.Client
	Owner     string
	Repo      string
	TagPrefix string
}

const maxReleaseNotesLen = 200

func (p *GitHubReleaseParser) ParseVersions(ctx context.Context, includePrerelease bool) ([]VersionInfo, error) {
	releases, err := vxgithub.ListReleases(ctx, p.Client, p.Owner, p.Repo, 100)
	if err != nil {
		return nil, fmt.Errorf("catalog: listing releases for %s/%s: %w", p.Owner, p.Repo, err)
	}

	var out []VersionInfo
	for _, rel := range releases {
		if rel.Draft {
			continue
		}
		version := strings.TrimPrefix(rel.TagName, p.TagPrefix)
		if version == "" {
			continue
		}
		if !includePrerelease && rel.Prerelease {
			continue
		}

		releasedAt, _, _ := strings.Cut(rel.PublishedAt, "T")
		notes := rel.Body
		if len(notes) > maxReleaseNotesLen {
			notes = notes[:maxReleaseNotesLen-3] + "..."
		}

		vi := VersionInfo{Version: version, ReleasedAt: releasedAt, Prerelease: rel.Prerelease}
		if notes != "" {
			vi = vi.WithMetadata("release_notes", notes)
		}
		out = append(out, vi)
	}

	return sortDescending(out), nil
}

// OCIParser lists image tags from a registry as candidate versions,
// wiring google/go-containerregistry's crane client into the catalog
// fetcher (spec's DOMAIN STACK: OCI-backed catalog source).
type OCIParser struct {
	Repository string // e.g. "ghcr.io/owner/image"
}

func (p *OCIParser) ParseVersions(ctx context.Context, includePrerelease bool) ([]VersionInfo, error) {
	tags, err := crane.ListTags(p.Repository, crane.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("catalog: listing tags for %s: %w", p.Repository, err)
	}

	var out []VersionInfo
	for _, tag := range tags {
		if tag == "latest" {
			continue
		}
		prerelease := isPrerelease(tag)
		if !includePrerelease && prerelease {
			continue
		}
		out = append(out, VersionInfo{Version: tag, Prerelease: prerelease})
	}

	return sortDescending(out), nil
}

func httpGetJSON(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog: building request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetching %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog: %s returned status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("catalog: reading response from %s: %w", url, err)
	}
	return body, nil
}

// semverKey parses (major, minor, patch) for descending sort, falling back
// to lexical ordering for non-numeric components — ported from
// GitHubVersionParser::parse_semantic_version in
// original_source/crates/vx-version/src/parser.rs.
type semverKey struct {
	major, minor, patch int
	suffix              string
	ok                  bool
}

func parseSemverKey(version string) semverKey {
	clean := strings.TrimPrefix(version, "v")
	parts := strings.SplitN(clean, ".", 3)
	if len(parts) < 2 {
		return semverKey{}
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return semverKey{}
	}
	patch, suffix := 0, ""
	if len(parts) > 2 {
		p := parts[2]
		if idx := strings.IndexByte(p, '-'); idx >= 0 {
			n, err := strconv.Atoi(p[:idx])
			if err != nil {
				return semverKey{}
			}
			patch, suffix = n, p[idx:]
		} else {
			n, err := strconv.Atoi(p)
			if err != nil {
				return semverKey{}
			}
			patch = n
		}
	}
	return semverKey{major: major, minor: minor, patch: patch, suffix: suffix, ok: true}
}

func sortDescending(versions []VersionInfo) []VersionInfo {
	sort.SliceStable(versions, func(i, j int) bool {
		a, b := parseSemverKey(versions[i].Version), parseSemverKey(versions[j].Version)
		if a.ok && b.ok {
			if a.major != b.major {
				return a.major > b.major
			}
			if a.minor != b.minor {
				return a.minor > b.minor
			}
			if a.patch != b.patch {
				return a.patch > b.patch
			}
			return a.suffix > b.suffix
		}
		return versions[i].Version > versions[j].Version
	})
	return versions
}

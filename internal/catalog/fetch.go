package catalog

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vxrun/vx/internal/manifest"
)

const defaultTTL = 24 * time.Hour

// Fetcher retrieves and caches upstream version catalogs.
type Fetcher struct {
	client *http.Client
	cache  *diskCache
}

// FetcherOption configures a Fetcher (teacher's functional-options idiom,
// see internal/path.Option in _examples/terassyi-tomei).
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client (e.g. to inject a GitHub-token-
// aware transport from internal/github, or a fake transport in tests).
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// NewFetcher creates a Fetcher caching responses under cacheDir.
func NewFetcher(cacheDir string, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
		cache:  newDiskCache(cacheDir),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns a runtime's version catalog, consulting the on-disk cache
// before hitting the network (spec §4.4).
func (f *Fetcher) Fetch(ctx context.Context, runtimeName string, src manifest.CatalogSource, includePrerelease bool) ([]VersionInfo, error) {
	ttl := defaultTTL
	if src.TTL != "" {
		if d, err := time.ParseDuration(src.TTL); err == nil {
			ttl = d
		}
	}

	cacheKey := fmt.Sprintf("%s-%s-prerelease=%v", runtimeName, src.Kind, includePrerelease)
	if cached, ok := f.cache.get(cacheKey, ttl); ok {
		return cached, nil
	}

	parser, err := f.buildParser(src)
	if err != nil {
		return nil, err
	}

	versions, err := withRetry(ctx, 3, func() ([]VersionInfo, error) {
		return parser.ParseVersions(ctx, includePrerelease)
	})
	if err != nil {
		return nil, err
	}

	_ = f.cache.put(cacheKey, versions)
	return versions, nil
}

func (f *Fetcher) buildParser(src manifest.CatalogSource) (Parser, error) {
	switch src.Kind {
	case manifest.CatalogNodeJSON:
		return &NodeParser{Client: f.client, URL: src.URL}, nil
	case manifest.CatalogGoJSON:
		return &GoParser{Client: f.client, URL: src.URL}, nil
	case manifest.CatalogGitHubRelease:
		if src.GitHub == nil {
			return nil, fmt.Errorf("catalog: github-release source missing [catalog.github] table")
		}
		return &GitHubReleaseParser{
			Client:    f.client,
			Owner:     src.GitHub.Owner,
			Repo:      src.GitHub.Repo,
			TagPrefix: src.GitHub.TagPrefix,
		}, nil
	case manifest.CatalogOCI:
		return &OCIParser{Repository: src.URL}, nil
	default:
		return nil, fmt.Errorf("catalog: unsupported catalog kind %q", src.Kind)
	}
}

// withRetry retries fn with exponential backoff on transient failure
// (spec §4.4 "HTTP with timeouts and bounded retries"), grounded on the
// teacher's general retry-then-fail idiom in internal/installer/download.
func withRetry(ctx context.Context, attempts int, fn func() ([]VersionInfo, error)) ([]VersionInfo, error) {
	var lastErr error
	backoff := 200 * time.Millisecond

	for i := 0; i < attempts; i++ {
		versions, err := fn()
		if err == nil {
			return versions, nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("catalog: fetch failed after %d attempts: %w", attempts, lastErr)
}

package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/manifest"
)

func TestFetcherCachesAcrossCalls(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		_, _ = w.Write([]byte(`[{"version":"go1.22.0","stable":true}]`))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), WithHTTPClient(srv.Client()))
	src := manifest.CatalogSource{Kind: manifest.CatalogGoJSON, URL: srv.URL}

	v1, err := f.Fetch(context.Background(), "go", src, false)
	require.NoError(t, err)
	require.Len(t, v1, 1)

	v2, err := f.Fetch(context.Background(), "go", src, false)
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.Equal(t, 1, requests, "second fetch should be served from cache")
}

func TestFetcherExpiresStaleCacheEntries(t *testing.T) {
	dir := t.TempDir()
	c := newDiskCache(dir)
	require.NoError(t, c.put("k", []VersionInfo{{Version: "1.0.0"}}))

	_, ok := c.get("k", time.Hour)
	assert.True(t, ok)

	_, ok = c.get("k", -time.Second)
	assert.False(t, ok, "negative TTL must always be treated as expired")
}

func TestDiskCachePathIsDeterministic(t *testing.T) {
	c := newDiskCache(filepath.Join(t.TempDir(), "cache"))
	assert.Equal(t, c.path("a"), c.path("a"))
	assert.NotEqual(t, c.path("a"), c.path("b"))
}

func TestFetchUnsupportedKind(t *testing.T) {
	f := NewFetcher(t.TempDir())
	_, err := f.Fetch(context.Background(), "x", manifest.CatalogSource{Kind: "nonsense"}, false)
	require.Error(t, err)
}

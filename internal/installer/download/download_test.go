package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/checksum"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello world"))
	}))
	defer srv.Close()

	d := New()
	dest := t.TempDir()
	result, err := d.Fetch(context.Background(), Source{URLs: []string{srv.URL + "/artifact.tar.gz"}}, dest)
	require.NoError(t, err)
	assert.FileExists(t, result.Path)
	assert.Equal(t, 1, result.Attempts)
}

func TestFetch_ChecksumVerified(t *testing.T) {
	content := []byte("hello world")
	sum := sha256.Sum256(content)
	hexSum := hex.EncodeToString(sum[:])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer srv.Close()

	d := New()
	dest := t.TempDir()
	result, err := d.Fetch(context.Background(), Source{
		URLs:              []string{srv.URL + "/artifact.bin"},
		ChecksumAlgorithm: checksum.AlgorithmSHA256,
		ChecksumValue:     hexSum,
	}, dest)
	require.NoError(t, err)
	assert.FileExists(t, result.Path)
}

func TestFetch_ChecksumMismatchFallsBackToMirror(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("wrong content"))
	}))
	defer bad.Close()

	content := []byte("correct content")
	sum := sha256.Sum256(content)
	hexSum := hex.EncodeToString(sum[:])
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer good.Close()

	d := New()
	dest := t.TempDir()
	result, err := d.Fetch(context.Background(), Source{
		URLs:              []string{bad.URL + "/a.bin", good.URL + "/a.bin"},
		ChecksumAlgorithm: checksum.AlgorithmSHA256,
		ChecksumValue:     hexSum,
	}, dest)
	require.NoError(t, err)
	assert.Equal(t, good.URL+"/a.bin", result.SourceURL)
}

func TestFetch_AllSourcesExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := New()
	_, err := d.Fetch(context.Background(), Source{URLs: []string{srv.URL + "/missing.bin"}}, t.TempDir())
	require.Error(t, err)
}

func TestFetch_CreatesDestDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	d := New()
	dest := filepath.Join(t.TempDir(), "nested", "dir")
	_, err := d.Fetch(context.Background(), Source{URLs: []string{srv.URL + "/a.bin"}}, dest)
	require.NoError(t, err)
	_, statErr := os.Stat(dest)
	require.NoError(t, statErr)
}

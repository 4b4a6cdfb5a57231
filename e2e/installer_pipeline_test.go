//go:build e2e

package e2e

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vxrun/vx/internal/checksum"
	"github.com/vxrun/vx/internal/installer/download"
	"github.com/vxrun/vx/internal/installer/extract"
	"github.com/vxrun/vx/internal/installer/normalize"
	"github.com/vxrun/vx/internal/manifest"
)

// buildFixtureArchive returns a tar.gz archive (in-memory, like a real
// release tarball) containing a nested toolchain layout:
//
//	widget-1.2.3/bin/widget   (the "executable")
//	widget-1.2.3/README.md
func buildFixtureArchive() []byte {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	files := []struct {
		name string
		body string
		mode int64
	}{
		{"widget-1.2.3/bin/widget", "#!/bin/sh\necho widget-1.2.3\n", 0o755},
		{"widget-1.2.3/README.md", "widget\n", 0o644},
	}
	for _, f := range files {
		Expect(tw.WriteHeader(&tar.Header{
			Name: f.name,
			Mode: f.mode,
			Size: int64(len(f.body)),
		})).To(Succeed())
		_, err := tw.Write([]byte(f.body))
		Expect(err).NotTo(HaveOccurred())
	}

	Expect(tw.Close()).To(Succeed())
	Expect(gw.Close()).To(Succeed())
	return buf.Bytes()
}

func installerPipelineTests() {
	var (
		server  *httptest.Server
		archive []byte
	)

	BeforeAll(func() {
		archive = buildFixtureArchive()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
			server = nil
		}
	})

	It("downloads, extracts, and normalizes a tar.gz release into a canonical bin/ layout", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(archive)
		}))

		sum, err := checksum.CalculateFromReader(bytes.NewReader(archive), checksum.AlgorithmSHA256)
		Expect(err).NotTo(HaveOccurred())

		destDir := GinkgoT().TempDir()
		dl := download.New()
		result, err := dl.Fetch(context.Background(), download.Source{
			URLs:              []string{server.URL + "/widget-1.2.3.tar.gz"},
			ChecksumAlgorithm: checksum.AlgorithmSHA256,
			ChecksumValue:     sum,
		}, destDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Path).To(BeAnExistingFile())

		f, err := os.Open(result.Path)
		Expect(err).NotTo(HaveOccurred())
		defer f.Close()

		extractor, err := extract.NewExtractor(extract.ArchiveTypeTarGz)
		Expect(err).NotTo(HaveOccurred())

		installDir := filepath.Join(GinkgoT().TempDir(), "widget")
		Expect(extractor.Extract(f, installDir)).To(Succeed())
		Expect(filepath.Join(installDir, "widget-1.2.3", "bin", "widget")).To(BeAnExistingFile())

		cfg := manifest.NormalizeConfig{
			Enabled: true,
			Executables: []manifest.ExecutableRule{
				{Source: "widget-1.2.3/bin/widget", Target: "widget", Action: manifest.ActionCopy, Permissions: "0755"},
			},
		}
		normResult, err := normalize.Apply(installDir, cfg, normalize.Context{Name: "widget", Version: "1.2.3"})
		Expect(err).NotTo(HaveOccurred())
		Expect(normResult.ExecutablesNormalized).To(Equal(1))
		Expect(filepath.Join(installDir, "bin", "widget")).To(BeAnExistingFile())
	})

	It("fails when the only mirror's content fails checksum verification", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(archive)
		}))

		destDir := GinkgoT().TempDir()
		dl := download.New()
		_, err := dl.Fetch(context.Background(), download.Source{
			URLs:              []string{server.URL + "/widget-1.2.3.tar.gz"},
			ChecksumAlgorithm: checksum.AlgorithmSHA256,
			ChecksumValue:     "0000000000000000000000000000000000000000000000000000000000000000",
		}, destDir)
		Expect(err).To(HaveOccurred())
	})
}

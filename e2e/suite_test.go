//go:build e2e

// Package e2e drives the installer pipeline (download, extract, normalize)
// end-to-end through its public Go APIs rather than a compiled binary: a
// local httptest.Server stands in for the upstream mirror and an in-memory
// tar.gz fixture stands in for a real release archive.
package e2e

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "vx installer pipeline E2E Suite", Label("e2e"))
}

var _ = Describe("installer pipeline", Ordered, func() {
	Context("Download, Extract, Normalize", installerPipelineTests)
})

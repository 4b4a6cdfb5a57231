// Package verify implements post-download artifact verification (spec §4.7
// step 7, §4.12): mandatory checksum verification plus an optional Sigstore
// bundle check for runtimes whose catalog entry advertises one.
package verify

import (
	"fmt"

	"github.com/vxrun/vx/internal/checksum"
	vxerrors "github.com/vxrun/vx/internal/errors"
)

// ChecksumSpec is the catalog-declared expected hash for a downloaded file.
type ChecksumSpec struct {
	Algorithm checksum.Algorithm
	Value     string
}

// VerifyChecksum verifies filePath against spec. An empty spec.Value is a
// no-op (spec §3: VersionInfo.checksum is optional).
func VerifyChecksum(filePath string, spec ChecksumSpec) error {
	if spec.Value == "" {
		return nil
	}
	alg := spec.Algorithm
	if alg == "" {
		alg = checksum.DetectAlgorithm(spec.Value)
	}
	if err := checksum.Verify(filePath, alg, spec.Value); err != nil {
		return vxerrors.NewChecksumMismatch(spec.Value, "")
	}
	return nil
}

// SigstoreBundle names a detached Sigstore bundle (.sigstore/.sigstore.json)
// published alongside a download, for runtimes that opt into signed-release
// verification beyond a plain checksum.
type SigstoreBundle struct {
	BundlePath   string
	ArtifactPath string
}

// SigstoreVerifier is satisfied by the sigstore-go-backed implementation;
// kept as an interface so the install executor can inject a no-op for
// runtimes/platforms with no bundle to check.
type SigstoreVerifier interface {
	Verify(SigstoreBundle) error
}

// NoopSigstoreVerifier always succeeds; used when a runtime has no
// Sigstore bundle attached to its catalog entry.
type NoopSigstoreVerifier struct{}

func (NoopSigstoreVerifier) Verify(SigstoreBundle) error { return nil }

var _ SigstoreVerifier = NoopSigstoreVerifier{}

// sigstoreError wraps a Sigstore verification failure into the engine's taxonomy.
func sigstoreError(artifact string, cause error) error {
	return fmt.Errorf("verify: sigstore bundle check failed for %s: %w", artifact, cause)
}

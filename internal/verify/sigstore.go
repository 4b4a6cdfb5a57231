package verify

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/verify"

	"github.com/vxrun/vx/internal/checksum"
)

// sigstoreVerifier is the sigstore-go-backed SigstoreVerifier: it fetches
// the public-good trusted root once and checks a bundle's signature,
// transparency-log inclusion proof, and artifact digest.
type sigstoreVerifier struct {
	trustedRoot *root.TrustedRoot
}

// NewSigstoreVerifier fetches the public trusted root material used to
// validate Sigstore bundles. Call once per process; the result is reused
// across installs.
func NewSigstoreVerifier() (SigstoreVerifier, error) {
	trustedRoot, err := root.FetchTrustedRoot()
	if err != nil {
		return nil, fmt.Errorf("verify: fetch sigstore trusted root: %w", err)
	}
	return &sigstoreVerifier{trustedRoot: trustedRoot}, nil
}

// Verify loads b.BundlePath and checks it against the artifact at
// b.ArtifactPath's digest.
func (v *sigstoreVerifier) Verify(b SigstoreBundle) error {
	loaded, err := bundle.LoadJSONFromPath(b.BundlePath)
	if err != nil {
		return sigstoreError(b.ArtifactPath, fmt.Errorf("load bundle: %w", err))
	}

	digestHex, err := sha256File(b.ArtifactPath)
	if err != nil {
		return sigstoreError(b.ArtifactPath, fmt.Errorf("digest artifact: %w", err))
	}

	sev, err := verify.NewVerifier(v.trustedRoot,
		verify.WithSignedCertificateTimestamps(1),
		verify.WithTransparencyLog(1),
		verify.WithObserverTimestamps(1),
	)
	if err != nil {
		return sigstoreError(b.ArtifactPath, fmt.Errorf("build verifier: %w", err))
	}

	digest, err := hex.DecodeString(digestHex)
	if err != nil {
		return sigstoreError(b.ArtifactPath, fmt.Errorf("decode artifact digest: %w", err))
	}

	policy := verify.NewPolicy(
		verify.WithArtifactDigest("sha256", digest),
		verify.WithoutIdentitiesUnsafe(),
	)

	if _, err := sev.Verify(loaded, policy); err != nil {
		return sigstoreError(b.ArtifactPath, err)
	}
	return nil
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return checksum.CalculateFromReader(f, checksum.AlgorithmSHA256)
}

package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxrun/vx/internal/checksum"
)

func TestVerifyChecksum_EmptySkipped(t *testing.T) {
	require.NoError(t, VerifyChecksum("/nonexistent", ChecksumSpec{}))
}

func TestVerifyChecksum_Match(t *testing.T) {
	content := []byte("hello world")
	sum := sha256.Sum256(content)
	hexSum := hex.EncodeToString(sum[:])

	path := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	err := VerifyChecksum(path, ChecksumSpec{Algorithm: checksum.AlgorithmSHA256, Value: hexSum})
	assert.NoError(t, err)
}

func TestVerifyChecksum_Mismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifact")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	err := VerifyChecksum(path, ChecksumSpec{Algorithm: checksum.AlgorithmSHA256, Value: "0000000000000000000000000000000000000000000000000000000000000000"})
	assert.Error(t, err)
}

func TestNoopSigstoreVerifier(t *testing.T) {
	var v SigstoreVerifier = NoopSigstoreVerifier{}
	assert.NoError(t, v.Verify(SigstoreBundle{}))
}

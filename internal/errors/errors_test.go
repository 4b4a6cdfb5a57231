package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	a := NewNoMatchingVersion("node", "99", 3, "18-22")
	b := NewNoMatchingVersion("python", "3.99", 1, "3.9-3.12")

	assert.True(t, errors.Is(a, b), "errors with the same code should match via errors.Is")
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := NewDownloadFailed("https://example.com/x", cause)

	require.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "boom")
}

func TestExitCodeMapping(t *testing.T) {
	assert.Equal(t, 64, ExitCode(CodeConfigNotFound))
	assert.Equal(t, 65, ExitCode(CodeConfigInvalid))
	assert.Equal(t, 66, ExitCode(CodeNoMatchingVersion))
	assert.Equal(t, 74, ExitCode(CodeIO))
	assert.Equal(t, 77, ExitCode(CodePermissionDenied))
	assert.Equal(t, 70, ExitCode(CodeChecksumMismatch), "unmapped codes default to EX_SOFTWARE")
}

func TestWithDetailAndHint(t *testing.T) {
	e := NewCyclicDependency([]string{"a", "b", "a"})
	assert.Equal(t, []string{"a", "b", "a"}, e.Details["cycle"])
	assert.Contains(t, e.Hint, "a -> b -> a")
}

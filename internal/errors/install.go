package errors

import "fmt"

// NewDownloadFailed reports an exhausted download retry/mirror budget.
func NewDownloadFailed(url string, cause error) *Error {
	return newError(CategoryNetwork, CodeDownloadFailed,
		fmt.Sprintf("failed to download %s", url), cause).
		WithDetail("url", url).
		WithHint("Check network connectivity or try again later; all mirrors/retries were exhausted.")
}

// NewChecksumMismatch reports a verified download whose hash did not match
// the catalog's declared checksum.
func NewChecksumMismatch(expected, actual string) *Error {
	return newError(CategoryInstall, CodeChecksumMismatch,
		"checksum mismatch", nil).
		WithDetail("expected", expected).
		WithDetail("actual", actual).
		WithHint("The download may be corrupted or the mirror compromised; retry from another mirror.")
}

// NewExtractFailed reports an archive extraction failure.
func NewExtractFailed(archive string, cause error) *Error {
	return newError(CategoryInstall, CodeExtractFailed,
		fmt.Sprintf("failed to extract %s", archive), cause).
		WithDetail("archive", archive)
}

// NewNormalizeFailed reports a normalizer failure for an individual rule.
func NewNormalizeFailed(runtime, path string, cause error) *Error {
	return newError(CategoryInstall, CodeNormalizeFailed,
		fmt.Sprintf("failed to normalize layout for %s", runtime), cause).
		WithDetail("runtime", runtime).
		WithDetail("path", path)
}

// NewPostInstallFailed reports a post-install operation failure (symlink,
// set-permissions, run-command).
func NewPostInstallFailed(runtime, stage string, cause error) *Error {
	return newError(CategoryInstall, CodePostInstallFailed,
		fmt.Sprintf("post-install stage %q failed for %s", stage, runtime), cause).
		WithDetail("runtime", runtime).
		WithDetail("stage", stage)
}

// NewPostInstallVerificationFailed reports that an installed runtime failed
// post-install verification; the engine raises it when the expected
// executable is not found under the install path.
func NewPostInstallVerificationFailed(runtime, path string) *Error {
	return newError(CategoryInstall, CodePostInstallVerifyFail,
		fmt.Sprintf("installed %s did not pass post-install verification", runtime), nil).
		WithDetail("runtime", runtime).
		WithDetail("path", path).
		WithHint("The install pipeline will fall back to an older stable version if the retry budget allows.")
}

// NewTimeout reports a per-stage timeout (spec §5).
func NewTimeout(stage, runtime string) *Error {
	return newError(CategoryTimeout, CodeTimeout,
		fmt.Sprintf("timed out during %s for %s", stage, runtime), nil).
		WithDetail("stage", stage).
		WithDetail("runtime", runtime)
}

// NewCancelled reports that a cancellation token fired mid-pipeline.
func NewCancelled() *Error {
	return newError(CategoryTimeout, CodeCancelled, "operation cancelled", nil)
}

// NewIO wraps a filesystem error with an optional path.
func NewIO(path string, cause error) *Error {
	e := newError(CategoryIO, CodeIO, "I/O error", cause)
	if path != "" {
		e.WithDetail("path", path)
	}
	return e
}

// NewPermissionDenied reports a filesystem permission failure.
func NewPermissionDenied(path string) *Error {
	return newError(CategoryIO, CodePermissionDenied,
		fmt.Sprintf("permission denied: %s", path), nil).
		WithDetail("path", path)
}

package errors

import "fmt"

// NewNoMatchingVersion reports that no catalog entry satisfied a constraint.
func NewNoMatchingVersion(runtime, constraint string, availableCount int, availableRange string) *Error {
	return newError(CategoryVersion, CodeNoMatchingVersion,
		fmt.Sprintf("no version of %s matches constraint %q", runtime, constraint), nil).
		WithDetail("runtime", runtime).
		WithDetail("constraint", constraint).
		WithDetail("available_count", availableCount).
		WithDetail("available_range", availableRange).
		WithHint(fmt.Sprintf("Available versions span %s; try a looser constraint.", availableRange))
}

// NewNoVersionsFound reports an empty upstream catalog.
func NewNoVersionsFound(runtime string) *Error {
	return newError(CategoryVersion, CodeNoVersionsFound,
		fmt.Sprintf("no versions found for %s", runtime), nil).
		WithDetail("runtime", runtime).
		WithHint("Check network connectivity or the runtime's catalog source URL.")
}

// NewPlatformNotSupported reports that the spec's platform_constraint
// excludes the current platform.
func NewPlatformNotSupported(runtime, reason string) *Error {
	return newError(CategoryPlatform, CodePlatformNotSupported,
		fmt.Sprintf("%s is not supported on this platform: %s", runtime, reason), nil).
		WithDetail("runtime", runtime).
		WithDetail("reason", reason)
}

// NewRuntimeNotFound reports a requested tool name that does not resolve
// to any RuntimeSpec in the registry (no provider manifest defines it, and
// it matches no known alias). This is a config/naming problem, not a
// platform-compatibility one — callers must not mistake it for
// NewPlatformNotSupported.
func NewRuntimeNotFound(name string) *Error {
	return newError(CategoryConfig, CodeRuntimeNotFound,
		fmt.Sprintf("unknown runtime %q: no provider manifest defines it", name), nil).
		WithDetail("runtime", name).
		WithHint("Check for a typo, or add a provider manifest that defines this runtime.")
}

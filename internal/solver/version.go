package solver

import (
	"strconv"
	"strings"
)

// components is a parsed (major, minor, patch, suffix) version, comparable
// numerically component-by-component rather than by full semver prerelease
// rules — needed because spec §4.6 requires version strings like
// ImageMagick's "7.1.2-12" to sort and compare as a stable version despite
// having a `-` separator.
type components struct {
	major, minor, patch int
	suffix              string
	ok                  bool
}

func parseComponents(version string) components {
	v := strings.TrimPrefix(version, "v")
	parts := strings.SplitN(v, ".", 3)
	if len(parts) < 1 {
		return components{}
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return components{}
	}
	if len(parts) == 1 {
		return components{major: major, ok: true}
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return components{}
	}
	if len(parts) == 2 {
		return components{major: major, minor: minor, ok: true}
	}

	patchPart := parts[2]
	if idx := strings.IndexByte(patchPart, '-'); idx >= 0 {
		patch, err := strconv.Atoi(patchPart[:idx])
		if err != nil {
			return components{}
		}
		return components{major: major, minor: minor, patch: patch, suffix: patchPart[idx:], ok: true}
	}
	patch, err := strconv.Atoi(patchPart)
	if err != nil {
		return components{}
	}
	return components{major: major, minor: minor, patch: patch, ok: true}
}

// isStableBuildSuffix reports whether version's trailing "-..." suffix is a
// build-tag rather than a semver prerelease: its separator is `-` but the
// remainder is only digits and dots (e.g. "7.1.2-12"), with no letters
// anywhere in the suffix (spec §4.6: "Runtimes whose version format violates standard
// semver" — ImageMagick's build-number suffix is the canonical example).
func isStableBuildSuffix(c components) bool {
	if c.suffix == "" {
		return false
	}
	body := strings.TrimPrefix(c.suffix, "-")
	if body == "" {
		return false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			if r != '.' {
				return false
			}
		}
	}
	return true
}

// isPrereleaseVersion reports whether a version string should be treated as
// a prerelease for policy-filtering purposes: it has a non-empty suffix
// that is NOT a stable build-tag suffix.
func isPrereleaseVersion(version string) bool {
	c := parseComponents(version)
	if !c.ok {
		lower := strings.ToLower(version)
		return strings.ContainsAny(lower, "-") &&
			(strings.Contains(lower, "alpha") || strings.Contains(lower, "beta") || strings.Contains(lower, "rc"))
	}
	if c.suffix == "" {
		return false
	}
	return !isStableBuildSuffix(c)
}

// compare returns -1, 0, 1 for a<b, a==b, a>b using numeric component
// comparison with lexical fallback for anything unparseable.
func compare(a, b string) int {
	ca, cb := parseComponents(a), parseComponents(b)
	if ca.ok && cb.ok {
		if ca.major != cb.major {
			return sign(ca.major - cb.major)
		}
		if ca.minor != cb.minor {
			return sign(ca.minor - cb.minor)
		}
		if ca.patch != cb.patch {
			return sign(ca.patch - cb.patch)
		}
		return strings.Compare(ca.suffix, cb.suffix)
	}
	return strings.Compare(a, b)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// caretBounds computes the npm-semantics caret range for base (spec §4.3):
// ^1.2.3 -> [1.2.3, 2.0.0); ^0.2.3 -> [0.2.3, 0.3.0); ^0.0.3 -> [0.0.3, 0.0.4).
func caretBounds(base string) (lower components, upperExclusive components, ok bool) {
	c := parseComponents(base)
	if !c.ok {
		return components{}, components{}, false
	}
	switch {
	case c.major > 0:
		return c, components{major: c.major + 1, ok: true}, true
	case c.minor > 0:
		return c, components{major: 0, minor: c.minor + 1, ok: true}, true
	default:
		return c, components{major: 0, minor: 0, patch: c.patch + 1, ok: true}, true
	}
}

// tildeBounds computes the npm-semantics tilde range for base (spec §4.3):
// ~1.2.3 -> [1.2.3, 1.3.0).
func tildeBounds(base string) (lower components, upperExclusive components, ok bool) {
	c := parseComponents(base)
	if !c.ok {
		return components{}, components{}, false
	}
	return c, components{major: c.major, minor: c.minor + 1, ok: true}, true
}

func compareComponents(a, b components) int {
	if a.major != b.major {
		return sign(a.major - b.major)
	}
	if a.minor != b.minor {
		return sign(a.minor - b.minor)
	}
	if a.patch != b.patch {
		return sign(a.patch - b.patch)
	}
	return strings.Compare(a.suffix, b.suffix)
}

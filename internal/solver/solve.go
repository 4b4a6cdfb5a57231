package solver

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/vxrun/vx/internal/catalog"
	vxerrors "github.com/vxrun/vx/internal/errors"
)

// Policy controls solve()'s prerelease/LTS behavior (spec §4.5). AllowEmpty
// does not change the outcome: an empty catalog always yields a
// NoVersionsFound error.
type Policy struct {
	IncludePrerelease bool
	PreferLTS         bool
	AllowEmpty        bool
}

// ResolvedVersion is the solver's output (spec §3): a concrete version tied
// back to the constraint text and catalog source that produced it.
type ResolvedVersion struct {
	Version      string
	ResolvedFrom string
	Source       string
	Metadata     map[string]string
}

// Solve picks a single ResolvedVersion out of versions for constraint,
// following spec §4.5's algorithm: parse (already done by caller via
// Parse), filter by prerelease policy, apply the constraint predicate,
// sort survivors descending with LTS/release-date tie-breaks, return the
// top survivor.
func Solve(runtime string, constraint Constraint, versions []catalog.VersionInfo, sourceID string, policy Policy) (ResolvedVersion, error) {
	if len(versions) == 0 {
		if policy.AllowEmpty {
			return ResolvedVersion{}, vxerrors.NewNoVersionsFound(runtime)
		}
		return ResolvedVersion{}, vxerrors.NewNoVersionsFound(runtime)
	}

	candidates := make([]catalog.VersionInfo, 0, len(versions))
	for _, v := range versions {
		if !policy.IncludePrerelease && isPrereleaseVersion(v.Version) {
			continue
		}
		if matches(constraint, v.Version) {
			candidates = append(candidates, v)
		}
	}

	if len(candidates) == 0 {
		return ResolvedVersion{}, vxerrors.NewNoMatchingVersion(runtime, constraint.String(), len(versions), availableRange(versions))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if c := compare(candidates[i].Version, candidates[j].Version); c != 0 {
			return c > 0
		}
		return candidates[i].ReleasedAt > candidates[j].ReleasedAt
	})

	winner := pickWithTieBreak(constraint, candidates, policy)

	return ResolvedVersion{
		Version:      winner.Version,
		ResolvedFrom: constraint.String(),
		Source:       sourceID,
		Metadata:     winner.Metadata,
	}, nil
}

// pickWithTieBreak applies the Latest+prefer_lts rule (spec §4.5 tie-break
// specifics): if prefer_lts, the highest LTS version wins over a newer
// non-LTS version; otherwise the highest version (candidates is already
// sorted descending) wins outright.
func pickWithTieBreak(constraint Constraint, candidates []catalog.VersionInfo, policy Policy) catalog.VersionInfo {
	if policy.PreferLTS {
		for _, c := range candidates {
			if c.LTS {
				return c
			}
		}
	}
	return candidates[0]
}

// matches evaluates a Constraint's predicate against a single version
// string (spec §4.5 step 3).
func matches(c Constraint, version string) bool {
	v := parseComponents(version)

	switch c.Kind {
	case KindLatest:
		return true

	case KindExact:
		return version == c.Exact || (v.ok && compare(version, c.Exact) == 0)

	case KindPartial:
		if !v.ok {
			return false
		}
		if v.major != c.PartialMajor {
			return false
		}
		if c.PartialMinor != nil && v.minor != *c.PartialMinor {
			return false
		}
		return true

	case KindWildcard:
		if !v.ok {
			return false
		}
		if v.major != c.PartialMajor {
			return false
		}
		if c.PartialMinor != nil && v.minor != *c.PartialMinor {
			return false
		}
		return true

	case KindCaret:
		if ok, matched := semverConstraintMatches("^"+c.CaretBase, version); ok {
			return matched
		}
		// version isn't parseable by Masterminds/semver/v3 (spec §4.6's
		// ImageMagick-style "-12" build suffix); fall back to the
		// hand-rolled numeric-component bounds check for that one case.
		lower, upper, ok := caretBounds(c.CaretBase)
		if !ok || !v.ok {
			return false
		}
		return compareComponents(v, lower) >= 0 && compareComponents(v, upper) < 0

	case KindTilde:
		if ok, matched := semverConstraintMatches("~"+c.TildeBase, version); ok {
			return matched
		}
		lower, upper, ok := tildeBounds(c.TildeBase)
		if !ok || !v.ok {
			return false
		}
		return compareComponents(v, lower) >= 0 && compareComponents(v, upper) < 0

	case KindRange:
		if ok, matched := semverConstraintMatches(c.String(), version); ok {
			return matched
		}
		for _, pred := range c.Predicates {
			if !v.ok {
				return false
			}
			cmp := compare(version, pred.Version)
			switch pred.Op {
			case OpEQ:
				if cmp != 0 {
					return false
				}
			case OpGT:
				if cmp <= 0 {
					return false
				}
			case OpGE:
				if cmp < 0 {
					return false
				}
			case OpLT:
				if cmp >= 0 {
					return false
				}
			case OpLE:
				if cmp > 0 {
					return false
				}
			}
		}
		return true

	default:
		return false
	}
}

// semverConstraintMatches evaluates constraintStr (npm-style caret/tilde or
// a comma-joined comparator range — exactly what Constraint.String()
// produces for KindRange) against version using
// github.com/Masterminds/semver/v3, the same library internal/constraints
// uses for `when`-clause range checks (spec §4.3's caret/tilde/range
// grammar is npm's, which this library implements directly).
//
// ok reports whether both constraintStr and version parsed as semver; when
// ok is false, callers fall back to the numeric-component comparison that
// also covers spec §4.6's non-standard build-suffixed version strings
// (e.g. ImageMagick's "7.1.2-12"), which genuinely aren't valid semver.
func semverConstraintMatches(constraintStr, version string) (ok bool, matched bool) {
	sv, err := semver.NewVersion(version)
	if err != nil {
		return false, false
	}
	c, err := semver.NewConstraint(constraintStr)
	if err != nil {
		return false, false
	}
	return true, c.Check(sv)
}

// PreviousStable picks the highest stable (non-prerelease) version in
// versions that is not named in exclude, for spec §4.7's post-install
// verification fallback: "up to MAX_FALLBACK_ATTEMPTS attempts at older
// stable versions of the same runtime, skipping the one that just failed."
// ok is false once every stable version has been excluded.
func PreviousStable(versions []catalog.VersionInfo, exclude map[string]bool) (catalog.VersionInfo, bool) {
	var best catalog.VersionInfo
	found := false
	for _, v := range versions {
		if exclude[v.Version] || isPrereleaseVersion(v.Version) {
			continue
		}
		if !found || compare(v.Version, best.Version) > 0 {
			best = v
			found = true
		}
	}
	return best, found
}

func availableRange(versions []catalog.VersionInfo) string {
	if len(versions) == 0 {
		return "(empty)"
	}
	sorted := make([]catalog.VersionInfo, len(versions))
	copy(sorted, versions)
	sort.SliceStable(sorted, func(i, j int) bool { return compare(sorted[i].Version, sorted[j].Version) > 0 })
	return fmt.Sprintf("%s..%s", sorted[len(sorted)-1].Version, sorted[0].Version)
}

// Package solver implements the VersionConstraint sum type (spec §3, §4.3)
// and the pure solve() function that picks a single ResolvedVersion out of
// a catalog (spec §4.5/§4.6).
package solver

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of constraint shapes (spec §3 VersionConstraint).
type Kind int

const (
	KindLatest Kind = iota
	KindExact
	KindPartial
	KindRange
	KindCaret
	KindTilde
	KindWildcard
)

// Op is one comparison operator usable in a Range constraint.
type Op string

const (
	OpEQ Op = "="
	OpGT Op = ">"
	OpGE Op = ">="
	OpLT Op = "<"
	OpLE Op = "<="
)

// Predicate is one `{op, version}` pair; a Range constraint is the
// conjunction of all its Predicates.
type Predicate struct {
	Op      Op
	Version string
}

// Constraint is the parsed VersionConstraint sum type.
type Constraint struct {
	Kind Kind

	Exact string // KindExact

	PartialMajor int  // KindPartial, KindWildcard
	PartialMinor *int // KindPartial (optional), KindWildcard (required, set by parser)

	Predicates []Predicate // KindRange

	CaretBase string // KindCaret
	TildeBase string // KindTilde
}

// Parse parses a constraint string into the VersionConstraint sum type.
// Per spec §4.5 step 1, this never fails for a plausible input: anything
// it cannot recognize is treated as an Exact match attempt against the
// literal string.
func Parse(s string) Constraint {
	s = strings.TrimSpace(s)

	if s == "" || s == "latest" || s == "stable" || s == "*" {
		return Constraint{Kind: KindLatest}
	}

	if strings.HasPrefix(s, "^") {
		return Constraint{Kind: KindCaret, CaretBase: strings.TrimPrefix(s, "^")}
	}
	if strings.HasPrefix(s, "~") {
		return Constraint{Kind: KindTilde, TildeBase: strings.TrimPrefix(s, "~")}
	}

	if preds, ok := parseRange(s); ok {
		return Constraint{Kind: KindRange, Predicates: preds}
	}

	if major, minor, ok := parseWildcard(s); ok {
		m := minor
		return Constraint{Kind: KindWildcard, PartialMajor: major, PartialMinor: &m}
	}

	if major, minor, ok := parsePartial(s); ok {
		return Constraint{Kind: KindPartial, PartialMajor: major, PartialMinor: minor}
	}

	return Constraint{Kind: KindExact, Exact: s}
}

// parseRange recognizes one or more comma-separated `{op}{version}`
// predicates, e.g. ">=18" or ">=18.0.0,<19.0.0". A single bare numeric
// version with no operator is NOT a range (it falls through to
// parsePartial/KindExact); a range requires at least one explicit operator.
func parseRange(s string) ([]Predicate, bool) {
	parts := strings.Split(s, ",")
	var preds []Predicate
	sawOperator := false

	for _, p := range parts {
		p = strings.TrimSpace(p)
		op, rest, ok := splitOp(p)
		if !ok {
			return nil, false
		}
		if op != OpEQ {
			sawOperator = true
		} else if strings.HasPrefix(p, "=") {
			sawOperator = true
		}
		preds = append(preds, Predicate{Op: op, Version: rest})
	}

	if !sawOperator || len(preds) == 0 {
		return nil, false
	}
	return preds, true
}

func splitOp(s string) (Op, string, bool) {
	switch {
	case strings.HasPrefix(s, ">="):
		return OpGE, strings.TrimSpace(s[2:]), true
	case strings.HasPrefix(s, "<="):
		return OpLE, strings.TrimSpace(s[2:]), true
	case strings.HasPrefix(s, ">"):
		return OpGT, strings.TrimSpace(s[1:]), true
	case strings.HasPrefix(s, "<"):
		return OpLT, strings.TrimSpace(s[1:]), true
	case strings.HasPrefix(s, "="):
		return OpEQ, strings.TrimSpace(s[1:]), true
	default:
		return "", "", false
	}
}

// parseWildcard recognizes "{major}.{minor}.*" or "{major}.*".
func parseWildcard(s string) (major int, minor int, ok bool) {
	if !strings.HasSuffix(s, "*") {
		return 0, 0, false
	}
	trimmed := strings.TrimSuffix(s, "*")
	trimmed = strings.TrimSuffix(trimmed, ".")
	parts := strings.Split(trimmed, ".")

	switch len(parts) {
	case 1:
		m, err := strconv.Atoi(parts[0])
		if err != nil {
			return 0, 0, false
		}
		return m, 0, true
	case 2:
		maj, err1 := strconv.Atoi(parts[0])
		min, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return maj, min, true
	default:
		return 0, 0, false
	}
}

// parsePartial recognizes a bare "{major}" or "{major}.{minor}" with no
// patch component and no operator — spec §4.5 edge cases: "20" matches
// "20.18.0"; "3.11" matches "3.11.11".
func parsePartial(s string) (major int, minor *int, ok bool) {
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, nil, false
	}
	maj, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, nil, false
	}
	if len(parts) == 1 {
		return maj, nil, true
	}
	min, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, nil, false
	}
	return maj, &min, true
}

func (c Constraint) String() string {
	switch c.Kind {
	case KindLatest:
		return "latest"
	case KindExact:
		return c.Exact
	case KindPartial:
		if c.PartialMinor != nil {
			return fmt.Sprintf("%d.%d", c.PartialMajor, *c.PartialMinor)
		}
		return strconv.Itoa(c.PartialMajor)
	case KindCaret:
		return "^" + c.CaretBase
	case KindTilde:
		return "~" + c.TildeBase
	case KindWildcard:
		if c.PartialMinor != nil {
			return fmt.Sprintf("%d.%d.*", c.PartialMajor, *c.PartialMinor)
		}
		return fmt.Sprintf("%d.*", c.PartialMajor)
	case KindRange:
		parts := make([]string, len(c.Predicates))
		for i, p := range c.Predicates {
			parts[i] = string(p.Op) + p.Version
		}
		return strings.Join(parts, ",")
	default:
		return "?"
	}
}

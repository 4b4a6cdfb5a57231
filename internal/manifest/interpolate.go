package manifest

import (
	"fmt"
	"strings"
)

// Vars is the variable bag available for interpolation in manifest
// path/name fields (spec §4.1): {version} {name} {platform} {arch} {os}
// {target_triple} {ext}.
type Vars map[string]string

// Interpolate replaces `{var}` placeholders in s using vars. Unlike the
// loader, which never fails on unknown fields, this fails at resolve time
// (not load time) when a placeholder has no value, per spec §4.1.
func Interpolate(s string, vars Vars) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		if s[i] != '{' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i:], '}')
		if end < 0 {
			return "", fmt.Errorf("manifest: unterminated variable reference in %q", s)
		}
		name := s[i+1 : i+end]
		val, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("manifest: unknown variable %q in %q", name, s)
		}
		b.WriteString(val)
		i += end + 1
	}
	return b.String(), nil
}

// InterpolateAll applies Interpolate to every string in ss, returning the
// first error encountered.
func InterpolateAll(ss []string, vars Vars) ([]string, error) {
	out := make([]string, len(ss))
	for i, s := range ss {
		v, err := Interpolate(s, vars)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Merge overlays extra onto the base vars, returning a new map (base is not mutated).
func (v Vars) Merge(extra Vars) Vars {
	out := make(Vars, len(v)+len(extra))
	for k, val := range v {
		out[k] = val
	}
	for k, val := range extra {
		out[k] = val
	}
	return out
}

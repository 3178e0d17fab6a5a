// SPDX-License-Identifier: MPL-2.0

package npmver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidRange is the sentinel error wrapped by InvalidRangeError.
var ErrInvalidRange = errors.New("invalid version range")

var (
	partialRegex = regexp.MustCompile(`^[v=]*(\d+|[xX*])(?:\.(\d+|[xX*]))?(?:\.(\d+|[xX*]))?(?:-([0-9A-Za-z.-]+))?(?:\+[0-9A-Za-z.-]+)?$`)
	hyphenRegex  = regexp.MustCompile(`^(\S+)\s+-\s+(\S+)$`)
	spacedOp     = regexp.MustCompile(`(>=|<=|~>|>|<|=|~|\^)\s+`)
	tokenOp      = regexp.MustCompile(`^(>=|<=|~>|>|<|=|~|\^)?(.+)$`)
)

type (
	// Range is a union of comparator sets: "a b || c" matches when every
	// comparator of some set matches.
	Range struct {
		raw  string
		sets [][]comparator
	}

	// InvalidRangeError is returned when a string is not a version range.
	InvalidRangeError struct {
		Value  string
		Reason string
	}

	comparator struct {
		op string // one of >, >=, <, <=, =
		v  Version
	}

	// partial is a version with trailing components possibly omitted or
	// wildcarded. n counts the concrete leading components.
	partial struct {
		major, minor, patch int
		pre                 string
		n                   int
	}
)

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid version range %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidRange so callers can use errors.Is.
func (e *InvalidRangeError) Unwrap() error { return ErrInvalidRange }

// ParseRange parses an npm range such as "^1.2.0", "~1.2", "1.x",
// ">=1.0.0 <2", "1.2.3 - 2" or "^1 || ^2".
func ParseRange(s string) (Range, error) {
	r := Range{raw: s}
	for _, part := range strings.Split(s, "||") {
		set, err := parseSet(strings.TrimSpace(part))
		if err != nil {
			return Range{}, &InvalidRangeError{Value: s, Reason: err.Error()}
		}
		r.sets = append(r.sets, set)
	}
	return r, nil
}

// IsRange reports whether s parses as a range.
func IsRange(s string) bool {
	_, err := ParseRange(s)
	return err == nil
}

// String returns the range as written.
func (r Range) String() string { return r.raw }

// Matches reports whether v satisfies the range. A prerelease only matches a
// set that names a prerelease of the same major.minor.patch.
func (r Range) Matches(v Version) bool {
	for _, set := range r.sets {
		if setMatches(set, v) {
			return true
		}
	}
	return false
}

// MaxSatisfying returns the highest of versions satisfying r, as written in
// versions. Unparseable entries are ignored.
func (r Range) MaxSatisfying(versions []string) (string, bool) {
	var best Version
	found := false
	for _, s := range versions {
		v, err := ParseVersion(s)
		if err != nil || !r.Matches(v) {
			continue
		}
		if !found || v.Compare(best) > 0 {
			best, found = v, true
		}
	}
	return best.Original, found
}

func setMatches(set []comparator, v Version) bool {
	for _, c := range set {
		if !c.matches(v) {
			return false
		}
	}
	if v.Prerelease == "" {
		return true
	}
	for _, c := range set {
		if c.v.Prerelease != "" && c.v.sameTuple(v) {
			return true
		}
	}
	return false
}

func (c comparator) matches(v Version) bool {
	cmp := v.Compare(c.v)
	switch c.op {
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	default:
		return cmp == 0
	}
}

func parseSet(s string) ([]comparator, error) {
	if s == "" {
		return nil, nil
	}
	if m := hyphenRegex.FindStringSubmatch(s); m != nil {
		return hyphenRange(m[1], m[2])
	}

	var set []comparator
	for _, tok := range strings.Fields(spacedOp.ReplaceAllString(s, "$1")) {
		m := tokenOp.FindStringSubmatch(tok)
		p, err := parsePartial(m[2])
		if err != nil {
			return nil, err
		}
		cs, err := desugar(m[1], p)
		if err != nil {
			return nil, err
		}
		set = append(set, cs...)
	}
	return set, nil
}

func parsePartial(s string) (partial, error) {
	m := partialRegex.FindStringSubmatch(s)
	if m == nil {
		return partial{}, fmt.Errorf("bad version %q", s)
	}
	p := partial{pre: m[4]}
	fields := []*int{&p.major, &p.minor, &p.patch}
	for i, raw := range m[1:4] {
		if raw == "" || raw == "x" || raw == "X" || raw == "*" {
			break
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return partial{}, fmt.Errorf("bad version %q", s)
		}
		*fields[i] = n
		p.n++
	}
	if p.n < 3 {
		p.pre = ""
	}
	return p, nil
}

func (p partial) version() Version {
	return newVersion(p.major, p.minor, p.patch, p.pre)
}

// floor is the lowest version a partial can denote.
func (p partial) floor() Version {
	switch p.n {
	case 0:
		return newVersion(0, 0, 0, "")
	case 1:
		return newVersion(p.major, 0, 0, "")
	case 2:
		return newVersion(p.major, p.minor, 0, "")
	default:
		return p.version()
	}
}

// ceiling is the exclusive upper bound of a partial, with the "-0"
// prerelease that keeps prereleases of the next version out.
func (p partial) ceiling() Version {
	switch p.n {
	case 1:
		return newVersion(p.major+1, 0, 0, "0")
	case 2:
		return newVersion(p.major, p.minor+1, 0, "0")
	default:
		return newVersion(p.major, p.minor, p.patch+1, "0")
	}
}

func desugar(op string, p partial) ([]comparator, error) {
	if p.n == 0 {
		if op == "<" || op == ">" {
			return []comparator{{op: "<", v: newVersion(0, 0, 0, "0")}}, nil
		}
		return nil, nil
	}

	switch op {
	case "", "=":
		if p.n == 3 {
			return []comparator{{op: "=", v: p.version()}}, nil
		}
		return between(p.floor(), p.ceiling()), nil
	case ">":
		if p.n == 3 {
			return []comparator{{op: ">", v: p.version()}}, nil
		}
		return []comparator{{op: ">=", v: p.ceiling().release()}}, nil
	case ">=":
		return []comparator{{op: ">=", v: p.floor()}}, nil
	case "<":
		if p.n == 3 {
			return []comparator{{op: "<", v: p.version()}}, nil
		}
		return []comparator{{op: "<", v: newVersion(p.floor().Major, p.floor().Minor, p.floor().Patch, "0")}}, nil
	case "<=":
		if p.n == 3 {
			return []comparator{{op: "<=", v: p.version()}}, nil
		}
		return []comparator{{op: "<", v: p.ceiling()}}, nil
	case "~", "~>":
		if p.n == 1 {
			return between(p.floor(), p.ceiling()), nil
		}
		return between(p.floor(), newVersion(p.major, p.minor+1, 0, "0")), nil
	case "^":
		return between(p.floor(), caretCeiling(p)), nil
	default:
		return nil, fmt.Errorf("unknown operator %q", op)
	}
}

func caretCeiling(p partial) Version {
	switch {
	case p.major > 0 || p.n == 1:
		return newVersion(p.major+1, 0, 0, "0")
	case p.minor > 0 || p.n == 2:
		return newVersion(0, p.minor+1, 0, "0")
	default:
		return newVersion(0, 0, p.patch+1, "0")
	}
}

func hyphenRange(lo, hi string) ([]comparator, error) {
	from, err := parsePartial(strings.TrimLeft(lo, "=v"))
	if err != nil {
		return nil, err
	}
	to, err := parsePartial(strings.TrimLeft(hi, "=v"))
	if err != nil {
		return nil, err
	}

	var set []comparator
	if from.n > 0 {
		set = append(set, comparator{op: ">=", v: from.floor()})
	}
	switch {
	case to.n == 3:
		set = append(set, comparator{op: "<=", v: to.version()})
	case to.n > 0:
		set = append(set, comparator{op: "<", v: to.ceiling()})
	}
	return set, nil
}

func between(lo, hi Version) []comparator {
	return []comparator{{op: ">=", v: lo}, {op: "<", v: hi}}
}

// release drops the prerelease tag.
func (v Version) release() Version {
	return newVersion(v.Major, v.Minor, v.Patch, "")
}

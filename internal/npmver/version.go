// SPDX-License-Identifier: MPL-2.0

// Package npmver parses npm versions and version ranges and picks the
// highest version satisfying a range, following node-semver semantics.
package npmver

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	// ErrInvalidVersion is the sentinel error wrapped by InvalidVersionError.
	ErrInvalidVersion = errors.New("invalid version")

	versionRegex = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)(?:-([0-9A-Za-z.-]+))?(?:\+[0-9A-Za-z.-]+)?$`)
)

type (
	// Version is a parsed semantic version. Build metadata takes no part in
	// comparisons but survives in Original.
	Version struct {
		Major      int
		Minor      int
		Patch      int
		Prerelease string
		Original   string

		// canonical is the "vX.Y.Z[-pre]" form understood by x/mod/semver.
		canonical string
	}

	// InvalidVersionError is returned when a string is not a semantic version.
	InvalidVersionError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version %q", e.Value)
}

// Unwrap returns ErrInvalidVersion so callers can use errors.Is.
func (e *InvalidVersionError) Unwrap() error { return ErrInvalidVersion }

// ParseVersion parses a full semantic version. A leading "v" or "=" is
// tolerated, as npm does.
func ParseVersion(s string) (Version, error) {
	trimmed := strings.TrimLeft(strings.TrimSpace(s), "=v")
	m := versionRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return Version{}, &InvalidVersionError{Value: s}
	}
	v, ok := fromParts(m[1], m[2], m[3], m[4])
	if !ok {
		return Version{}, &InvalidVersionError{Value: s}
	}
	v.Original = s
	return v, nil
}

// IsVersion reports whether s parses as a full semantic version.
func IsVersion(s string) bool {
	_, err := ParseVersion(s)
	return err == nil
}

func fromParts(major, minor, patch, pre string) (Version, bool) {
	canonical := "v" + major + "." + minor + "." + patch
	if pre != "" {
		canonical += "-" + pre
	}
	if !semver.IsValid(canonical) {
		return Version{}, false
	}
	v := Version{Prerelease: pre, canonical: canonical}
	var err error
	if v.Major, err = strconv.Atoi(major); err != nil {
		return Version{}, false
	}
	if v.Minor, err = strconv.Atoi(minor); err != nil {
		return Version{}, false
	}
	if v.Patch, err = strconv.Atoi(patch); err != nil {
		return Version{}, false
	}
	return v, true
}

func newVersion(major, minor, patch int, pre string) Version {
	v, _ := fromParts(strconv.Itoa(major), strconv.Itoa(minor), strconv.Itoa(patch), pre)
	return v
}

// String returns the version without the "v" prefix.
func (v Version) String() string {
	return strings.TrimPrefix(v.canonical, "v")
}

// Compare returns -1, 0 or 1 as v is lower than, equal to or higher than other.
func (v Version) Compare(other Version) int {
	return semver.Compare(v.canonical, other.canonical)
}

func (v Version) sameTuple(other Version) bool {
	return v.Major == other.Major && v.Minor == other.Minor && v.Patch == other.Patch
}

// SortVersions sorts parseable versions newest first and drops the rest. The
// returned strings are the inputs, unmodified.
func SortVersions(versions []string) []string {
	parsed := make([]Version, 0, len(versions))
	for _, s := range versions {
		if v, err := ParseVersion(s); err == nil {
			parsed = append(parsed, v)
		}
	}
	slices.SortFunc(parsed, func(a, b Version) int { return b.Compare(a) })

	out := make([]string, 0, len(parsed))
	for _, v := range parsed {
		out = append(out, v.Original)
	}
	return out
}

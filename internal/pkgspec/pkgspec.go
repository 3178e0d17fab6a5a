// SPDX-License-Identifier: MPL-2.0

// Package pkgspec parses the package reference given on the command line
// ("name", "name@1.2.3", "@scope/name@^2", "name@next") into an immutable
// Identifier. Only registry references can be verified; local paths, git
// and tarball URLs and aliases are rejected.
package pkgspec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/npmverified/npm-verified/internal/npmver"
)

// Spec types.
const (
	TypeVersion SpecType = "version"
	TypeRange   SpecType = "range"
	TypeTag     SpecType = "tag"

	// DefaultTag is used when the reference carries no spec.
	DefaultTag = "latest"

	maxNameLength = 214
)

var (
	// ErrNotRegistry is the sentinel error wrapped by NotRegistryError.
	ErrNotRegistry = errors.New("not a registry package reference")
	// ErrInvalidPackageName is the sentinel error wrapped by InvalidPackageNameError.
	ErrInvalidPackageName = errors.New("invalid package name")
	// ErrInvalidSpec is the sentinel error wrapped by InvalidSpecError.
	ErrInvalidSpec = errors.New("invalid version spec")

	// Names published before npm enforced lowercase are still accepted.
	namePattern = regexp.MustCompile(`(?i)^(?:@[a-z0-9~-][a-z0-9._~-]*/)?[a-z0-9~-][a-z0-9._~-]*$`)
	tagPattern  = regexp.MustCompile(`^[A-Za-z0-9._~-]+$`)
	drivePath   = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

	nonRegistryPrefixes = []string{
		".", "/", "~/", "file:", "link:", "workspace:", "npm:",
		"git:", "git+", "git@", "github:", "gitlab:", "bitbucket:", "gist:",
		"http://", "https://",
	}
	tarballSuffixes = []string{".tgz", ".tar.gz", ".tar"}
	reservedNames   = []string{"node_modules", "favicon.ico"}
)

type (
	// SpecType classifies the spec part of a reference.
	SpecType string

	// Identifier is a parsed registry package reference.
	Identifier struct {
		name string
		spec string
		typ  SpecType
	}

	// NotRegistryError is returned for references that do not resolve
	// through the registry.
	NotRegistryError struct {
		Value string
	}

	// InvalidPackageNameError is returned for names breaking npm naming rules.
	InvalidPackageNameError struct {
		Value  string
		Reason string
	}

	// InvalidSpecError is returned when the spec is neither a version, a
	// range nor a valid dist-tag.
	InvalidSpecError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *NotRegistryError) Error() string {
	return fmt.Sprintf("%q is not a registry package reference (local paths, git, tarball URLs and aliases cannot be verified)", e.Value)
}

// Unwrap returns ErrNotRegistry so callers can use errors.Is.
func (e *NotRegistryError) Unwrap() error { return ErrNotRegistry }

// Error implements the error interface.
func (e *InvalidPackageNameError) Error() string {
	return fmt.Sprintf("invalid package name %q: %s", e.Value, e.Reason)
}

// Unwrap returns ErrInvalidPackageName so callers can use errors.Is.
func (e *InvalidPackageNameError) Unwrap() error { return ErrInvalidPackageName }

// Error implements the error interface.
func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid version spec %q (want a version, a range or a dist-tag)", e.Value)
}

// Unwrap returns ErrInvalidSpec so callers can use errors.Is.
func (e *InvalidSpecError) Unwrap() error { return ErrInvalidSpec }

// Parse parses a package reference.
func Parse(arg string) (Identifier, error) {
	ref := strings.TrimSpace(arg)
	if ref == "" {
		return Identifier{}, &InvalidPackageNameError{Value: arg, Reason: "name is empty"}
	}
	if !isRegistryShaped(ref) {
		return Identifier{}, &NotRegistryError{Value: arg}
	}

	name, spec := splitReference(ref)
	if err := ValidateName(name); err != nil {
		return Identifier{}, err
	}
	if spec != "" && hasAnyPrefix(spec, nonRegistryPrefixes) {
		return Identifier{}, &NotRegistryError{Value: arg}
	}

	id := Identifier{name: name, spec: spec}
	switch {
	case spec == "":
		id.spec, id.typ = DefaultTag, TypeTag
	case npmver.IsVersion(spec):
		id.typ = TypeVersion
	case npmver.IsRange(spec):
		id.typ = TypeRange
	case tagPattern.MatchString(spec):
		id.typ = TypeTag
	default:
		return Identifier{}, &InvalidSpecError{Value: spec}
	}
	return id, nil
}

// ValidateName checks a package name against npm naming rules.
func ValidateName(name string) error {
	bare := name
	if strings.HasPrefix(name, "@") {
		_, bare, _ = strings.Cut(name, "/")
	}
	switch {
	case name == "":
		return &InvalidPackageNameError{Value: name, Reason: "name is empty"}
	case len(name) > maxNameLength:
		return &InvalidPackageNameError{Value: name, Reason: fmt.Sprintf("name is longer than %d characters", maxNameLength)}
	case strings.HasPrefix(bare, ".") || strings.HasPrefix(bare, "_"):
		return &InvalidPackageNameError{Value: name, Reason: `name cannot start with "." or "_"`}
	case containsFold(reservedNames, bare):
		return &InvalidPackageNameError{Value: name, Reason: "name is reserved"}
	case !namePattern.MatchString(name):
		return &InvalidPackageNameError{Value: name, Reason: "name contains characters that are not URL-safe"}
	}
	return nil
}

// Name returns the package name, including its scope.
func (id Identifier) Name() string { return id.name }

// Spec returns the fetch spec; "latest" when none was given.
func (id Identifier) Spec() string { return id.spec }

// Type returns how Spec is to be resolved.
func (id Identifier) Type() SpecType { return id.typ }

// Registry reports whether the reference resolves through the registry.
// Parse only produces registry identifiers.
func (id Identifier) Registry() bool { return id.name != "" }

// Scope returns the "@scope" part of a scoped name, or "".
func (id Identifier) Scope() string {
	if scope, _, ok := strings.Cut(id.name, "/"); ok && strings.HasPrefix(scope, "@") {
		return scope
	}
	return ""
}

// Raw renders the reference as name@spec.
func (id Identifier) Raw() string { return id.name + "@" + id.spec }

// String implements fmt.Stringer.
func (id Identifier) String() string { return id.Raw() }

func isRegistryShaped(ref string) bool {
	if hasAnyPrefix(ref, nonRegistryPrefixes) || drivePath.MatchString(ref) || strings.Contains(ref, `\`) {
		return false
	}
	name, _ := splitReference(ref)
	if !strings.HasPrefix(ref, "@") && strings.Contains(name, "/") {
		// owner/repo is the GitHub shorthand.
		return false
	}
	for _, suffix := range tarballSuffixes {
		if strings.HasSuffix(name, suffix) && !strings.Contains(ref[len(name):], "@") {
			return false
		}
	}
	return true
}

// splitReference separates name and spec at the first "@" that is not the
// scope marker.
func splitReference(ref string) (name, spec string) {
	start := 0
	if strings.HasPrefix(ref, "@") {
		start = 1
	}
	if i := strings.Index(ref[start:], "@"); i >= 0 {
		return ref[:start+i], strings.TrimSpace(ref[start+i+1:])
	}
	return ref, ""
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

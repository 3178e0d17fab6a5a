// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/npmverified/npm-verified/internal/npmver"
	"github.com/npmverified/npm-verified/internal/pkgspec"
)

// ErrVersionNotFound is the sentinel error wrapped by VersionNotFoundError.
var ErrVersionNotFound = errors.New("no matching version published")

type (
	// Packument is the registry document listing every published version.
	Packument struct {
		Name     string                 `json:"name"`
		DistTags map[string]string      `json:"dist-tags"`
		Versions map[string]VersionMeta `json:"versions"`
	}

	// VersionMeta is the per-version manifest stored in a packument.
	VersionMeta struct {
		Name       string          `json:"name"`
		Version    string          `json:"version"`
		Dist       Dist            `json:"dist"`
		Repository json.RawMessage `json:"repository,omitempty"`
	}

	// Dist locates and fingerprints a version's tarball.
	Dist struct {
		Tarball   string `json:"tarball"`
		Integrity string `json:"integrity,omitempty"`
		Shasum    string `json:"shasum,omitempty"`
	}

	// VersionNotFoundError reports a spec that matches no published version.
	VersionNotFoundError struct {
		Name string
		Spec string
		Type pkgspec.SpecType
	}
)

// Error implements the error interface.
func (e *VersionNotFoundError) Error() string {
	switch e.Type {
	case pkgspec.TypeTag:
		return fmt.Sprintf("no dist-tag %q published for %s", e.Spec, e.Name)
	case pkgspec.TypeRange:
		return fmt.Sprintf("no version of %s satisfies %q", e.Name, e.Spec)
	default:
		return fmt.Sprintf("version %s of %s is not published", e.Spec, e.Name)
	}
}

// Unwrap returns ErrVersionNotFound so callers can use errors.Is.
func (e *VersionNotFoundError) Unwrap() error { return ErrVersionNotFound }

// Resolve picks the published version id refers to: the dist-tag target for
// tags, the exact version for versions and the highest satisfying version
// for ranges.
func (p *Packument) Resolve(id pkgspec.Identifier) (*VersionMeta, error) {
	notFound := &VersionNotFoundError{Name: id.Name(), Spec: id.Spec(), Type: id.Type()}

	var version string
	switch id.Type() {
	case pkgspec.TypeTag:
		target, ok := p.DistTags[id.Spec()]
		if !ok {
			return nil, notFound
		}
		version = target
	case pkgspec.TypeVersion:
		v, ok := p.exactVersion(id.Spec())
		if !ok {
			return nil, notFound
		}
		version = v
	case pkgspec.TypeRange:
		rng, err := npmver.ParseRange(id.Spec())
		if err != nil {
			return nil, err
		}
		v, ok := rng.MaxSatisfying(p.versionKeys())
		if !ok {
			return nil, notFound
		}
		version = v
	default:
		return nil, fmt.Errorf("unknown spec type %q", id.Type())
	}

	meta, ok := p.Versions[version]
	if !ok {
		return nil, notFound
	}
	if meta.Version == "" {
		meta.Version = version
	}
	if meta.Name == "" {
		meta.Name = p.Name
	}
	return &meta, nil
}

// exactVersion matches spec against the published keys, tolerating a "v"
// prefix or build metadata differences in spec.
func (p *Packument) exactVersion(spec string) (string, bool) {
	if _, ok := p.Versions[spec]; ok {
		return spec, true
	}
	want, err := npmver.ParseVersion(spec)
	if err != nil {
		return "", false
	}
	for _, key := range p.versionKeys() {
		if v, err := npmver.ParseVersion(key); err == nil && v.Compare(want) == 0 {
			return key, true
		}
	}
	return "", false
}

// versionKeys lists published versions, newest first.
func (p *Packument) versionKeys() []string {
	return npmver.SortVersions(slices.Collect(maps.Keys(p.Versions)))
}

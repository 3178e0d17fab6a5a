// SPDX-License-Identifier: MPL-2.0

// Package pkgroot finds the directory of a named package inside a cloned
// repository, which may be a monorepo holding many package.json files.
package pkgroot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/iter"
	"github.com/tidwall/gjson"

	"github.com/npmverified/npm-verified/internal/logging"
)

// ManifestName is the file every npm package root carries.
const ManifestName = "package.json"

var (
	// ErrPackageNotFound is the sentinel error wrapped by NotFoundError.
	ErrPackageNotFound = errors.New("package root not found")
	// ErrPackageAmbiguous is the sentinel error wrapped by AmbiguousError.
	ErrPackageAmbiguous = errors.New("package root ambiguous")

	// DefaultExclude lists the directories never searched. Vendored copies
	// under node_modules are searched so they surface as ambiguous.
	DefaultExclude = []string{".git"}
)

type (
	// Candidate is one scanned manifest. Err is set when the file could not
	// be read or is not a JSON object; such candidates never match.
	Candidate struct {
		RootPath     string
		ManifestPath string
		Name         string
		Err          error
		data         []byte
	}

	// Location is the unique package root found for a name.
	Location struct {
		RootPath     string
		ManifestPath string
		Manifest     []byte
	}

	// NotFoundError reports that no manifest carries the requested name.
	// Scanned is the number of manifests looked at.
	NotFoundError struct {
		Name    string
		Scanned int
	}

	// AmbiguousError reports several manifests carrying the requested name.
	// Paths are relative to the checkout and sorted.
	AmbiguousError struct {
		Name  string
		Paths []string
	}

	// Options tune a Locator.
	Options struct {
		// Exclude holds doublestar patterns matched against slash-separated
		// directory paths relative to the checkout. Nil selects DefaultExclude.
		Exclude []string
		// Workers bounds the parse fan-out; zero selects GOMAXPROCS.
		Workers int
		Logger  *log.Logger
	}

	// Locator searches checkouts for package roots.
	Locator struct {
		exclude []string
		workers int
		logger  *log.Logger
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Scanned == 0 {
		return "no package.json files found in the cloned repository"
	}
	return fmt.Sprintf("no package.json files found for package name %q (%d package.json files scanned)", e.Name, e.Scanned)
}

// Unwrap returns ErrPackageNotFound so callers can use errors.Is.
func (e *NotFoundError) Unwrap() error { return ErrPackageNotFound }

// Error lists every matching manifest on its own line.
func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous package.json files found for package name %q:\n%s",
		e.Name, strings.Join(e.Paths, "\n"))
}

// Unwrap returns ErrPackageAmbiguous so callers can use errors.Is.
func (e *AmbiguousError) Unwrap() error { return ErrPackageAmbiguous }

// RelRoot returns the package root relative to checkout, "." for the
// repository root.
func (l Location) RelRoot(checkout string) string {
	rel, err := filepath.Rel(checkout, l.RootPath)
	if err != nil {
		return l.RootPath
	}
	return filepath.ToSlash(rel)
}

// New creates a Locator. Invalid exclude patterns are reported here rather
// than during a walk.
func New(opts Options) (*Locator, error) {
	exclude := opts.Exclude
	if exclude == nil {
		exclude = DefaultExclude
	}
	for _, pattern := range exclude {
		if _, err := doublestar.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
	}

	l := &Locator{
		exclude: slices.Clone(exclude),
		workers: opts.Workers,
		logger:  opts.Logger,
	}
	if l.workers <= 0 {
		l.workers = runtime.GOMAXPROCS(0)
	}
	if l.logger == nil {
		l.logger = logging.Discard()
	}
	return l, nil
}

// Locate returns the single package root in checkout whose manifest name
// equals name.
func (l *Locator) Locate(ctx context.Context, checkout, name string) (Location, error) {
	paths, err := l.scan(ctx, checkout)
	if err != nil {
		return Location{}, err
	}
	l.logger.Debug("scanned manifests", "count", len(paths), "checkout", checkout)
	if len(paths) == 0 {
		return Location{}, &NotFoundError{Name: name, Scanned: 0}
	}

	candidates := iter.Mapper[string, Candidate]{MaxGoroutines: l.workers}.Map(paths, func(p *string) Candidate {
		return parseCandidate(*p)
	})

	var matches []Candidate
	for _, c := range candidates {
		if c.Err != nil {
			l.logger.Debug("skipping manifest", "path", c.ManifestPath, "err", c.Err)
			continue
		}
		if c.Name == name {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return Location{}, &NotFoundError{Name: name, Scanned: len(paths)}
	case 1:
		m := matches[0]
		return Location{RootPath: m.RootPath, ManifestPath: m.ManifestPath, Manifest: m.data}, nil
	default:
		rels := make([]string, 0, len(matches))
		for _, m := range matches {
			rel, relErr := filepath.Rel(checkout, m.ManifestPath)
			if relErr != nil {
				rel = m.ManifestPath
			}
			rels = append(rels, filepath.ToSlash(rel))
		}
		slices.Sort(rels)
		return Location{}, &AmbiguousError{Name: name, Paths: rels}
	}
}

// scan lists regular package.json files below checkout without following
// symlinks, skipping excluded directories.
func (l *Locator) scan(ctx context.Context, checkout string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(checkout, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != checkout && l.excluded(checkout, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() == ManifestName && d.Type().IsRegular() {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", checkout, err)
	}
	return found, nil
}

func (l *Locator) excluded(checkout, dir string) bool {
	rel, err := filepath.Rel(checkout, dir)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range l.exclude {
		if matched, matchErr := doublestar.Match(pattern, rel); matchErr == nil && matched {
			return true
		}
	}
	return false
}

func parseCandidate(manifestPath string) Candidate {
	c := Candidate{RootPath: filepath.Dir(manifestPath), ManifestPath: manifestPath}
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		c.Err = err
		return c
	}
	if !gjson.ValidBytes(data) {
		c.Err = errors.New("invalid JSON")
		return c
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		c.Err = errors.New("manifest is not a JSON object")
		return c
	}
	// Duplicate keys resolve to the last occurrence, as JSON.parse does.
	var name gjson.Result
	doc.ForEach(func(key, value gjson.Result) bool {
		if key.Str == "name" {
			name = value
		}
		return true
	})
	if name.Type == gjson.String {
		c.Name = name.Str
	}
	c.data = data
	return c
}

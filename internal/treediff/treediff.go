// SPDX-License-Identifier: MPL-2.0

package treediff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/npmverified/npm-verified/internal/logging"
)

// DefaultContextLines is the number of unchanged lines kept around each change.
const DefaultContextLines = 4

// Kinds of difference.
const (
	KindContent Kind = "content"
	KindStat    Kind = "stat"
)

type (
	// Kind classifies a Record.
	Kind string

	// Hunk is one contiguous block of a unified line diff. Starts are 1-based;
	// every line carries a ' ', '-' or '+' prefix.
	Hunk struct {
		OldStart int      `json:"oldStart" yaml:"oldStart"`
		OldLines int      `json:"oldLines" yaml:"oldLines"`
		NewStart int      `json:"newStart" yaml:"newStart"`
		NewLines int      `json:"newLines" yaml:"newLines"`
		Lines    []string `json:"lines" yaml:"lines"`
	}

	// Record describes one differing path. Path is slash-separated and
	// relative to the compared roots.
	Record struct {
		Path  string `json:"path" yaml:"path"`
		Kind  Kind   `json:"kind" yaml:"kind"`
		Hunks []Hunk `json:"hunks" yaml:"hunks"`
	}

	// Result is the outcome of a comparison. Same is true exactly when Diffs
	// is empty.
	Result struct {
		Same  bool     `json:"same" yaml:"same"`
		Diffs []Record `json:"diffs" yaml:"diffs"`
	}

	// Options tune a Comparator.
	Options struct {
		// ContextLines around each change; values below 1 select DefaultContextLines.
		ContextLines int
		Logger       *log.Logger
	}

	// Comparator compares directory trees.
	Comparator struct {
		contextLines int
		logger       *log.Logger
	}

	// entry is what the walk remembers about one side of a path.
	entry struct {
		mode fs.FileMode
		size int64
	}
)

// New creates a Comparator.
func New(opts Options) *Comparator {
	c := &Comparator{
		contextLines: opts.ContextLines,
		logger:       opts.Logger,
	}
	if c.contextLines < 1 {
		c.contextLines = DefaultContextLines
	}
	if c.logger == nil {
		c.logger = logging.Discard()
	}
	return c
}

// Compare compares expected against actual with default options.
func Compare(expected, actual string) (Result, error) {
	return New(Options{}).Compare(context.Background(), expected, actual)
}

// Compare walks both trees and returns the differing paths. Hunks describe
// how expected would have to change to become actual. Only I/O failures are
// returned as errors; differences never are.
func (c *Comparator) Compare(ctx context.Context, expected, actual string) (Result, error) {
	left, err := walkTree(expected)
	if err != nil {
		return Result{}, err
	}
	right, err := walkTree(actual)
	if err != nil {
		return Result{}, err
	}

	var content, stat []Record
	for _, rel := range unionPaths(left, right) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		l, inLeft := left[rel]
		r, inRight := right[rel]
		if inLeft && inRight {
			same, eqErr := sameEntry(expected, actual, rel, l, r)
			if eqErr != nil {
				return Result{}, eqErr
			}
			if same {
				continue
			}
		}

		rec, ok, recErr := c.diffPath(expected, actual, rel)
		if recErr != nil {
			return Result{}, recErr
		}
		if !ok {
			continue
		}
		c.logger.Debug("difference", "path", rec.Path, "kind", rec.Kind, "hunks", len(rec.Hunks))
		if rec.Kind == KindContent {
			content = append(content, rec)
		} else {
			stat = append(stat, rec)
		}
	}

	diffs := make([]Record, 0, len(content)+len(stat))
	diffs = append(diffs, content...)
	diffs = append(diffs, stat...)
	return Result{Same: len(diffs) == 0, Diffs: diffs}, nil
}

// diffPath builds the record for a path already known to differ. ok is false
// when the difference vanishes on closer inspection.
func (c *Comparator) diffPath(expectedRoot, actualRoot, rel string) (Record, bool, error) {
	native := filepath.FromSlash(rel)
	expectedStat, err := statPath(filepath.Join(expectedRoot, native))
	if err != nil {
		return Record{}, false, err
	}
	actualStat, err := statPath(filepath.Join(actualRoot, native))
	if err != nil {
		return Record{}, false, err
	}

	if expectedStat != actualStat {
		hunks := lineHunks(expectedStat.render(), actualStat.render(), c.contextLines)
		return record(rel, KindStat, hunks)
	}
	if expectedStat.IsDirectory {
		return Record{}, false, nil
	}

	expectedText, err := os.ReadFile(filepath.Join(expectedRoot, native))
	if err != nil {
		return Record{}, false, fmt.Errorf("reading %s: %w", rel, err)
	}
	actualText, err := os.ReadFile(filepath.Join(actualRoot, native))
	if err != nil {
		return Record{}, false, fmt.Errorf("reading %s: %w", rel, err)
	}
	return record(rel, KindContent, lineHunks(string(expectedText), string(actualText), c.contextLines))
}

func record(rel string, kind Kind, hunks []Hunk) (Record, bool, error) {
	if rel == "" || len(hunks) == 0 {
		return Record{}, false, nil
	}
	return Record{Path: rel, Kind: kind, Hunks: hunks}, true, nil
}

// walkTree lists every descendant of root keyed by slash-separated relative
// path. Symlinks are recorded, not followed.
func walkTree(root string) (map[string]entry, error) {
	entries := make(map[string]entry)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if path == root {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		entries[filepath.ToSlash(rel)] = entry{mode: info.Mode().Type(), size: info.Size()}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return entries, nil
}

func sameEntry(expectedRoot, actualRoot, rel string, l, r entry) (bool, error) {
	if l.mode != r.mode {
		return false, nil
	}
	native := filepath.FromSlash(rel)
	switch {
	case l.mode.IsDir():
		return true, nil
	case l.mode&fs.ModeSymlink != 0:
		lt, err := os.Readlink(filepath.Join(expectedRoot, native))
		if err != nil {
			return false, fmt.Errorf("reading link %s: %w", rel, err)
		}
		rt, err := os.Readlink(filepath.Join(actualRoot, native))
		if err != nil {
			return false, fmt.Errorf("reading link %s: %w", rel, err)
		}
		return lt == rt, nil
	case l.mode.IsRegular():
		// Size only short-circuits the obvious case; equal sizes still need
		// a byte comparison.
		if l.size != r.size {
			return false, nil
		}
		return sameBytes(filepath.Join(expectedRoot, native), filepath.Join(actualRoot, native))
	default:
		return false, nil
	}
}

func sameBytes(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer func() { _ = fa.Close() }()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer func() { _ = fb.Close() }()

	bufA := make([]byte, 32<<10)
	bufB := make([]byte, 32<<10)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		doneA := errors.Is(errA, io.EOF) || errors.Is(errA, io.ErrUnexpectedEOF)
		doneB := errors.Is(errB, io.EOF) || errors.Is(errB, io.ErrUnexpectedEOF)
		if errA != nil && !doneA {
			return false, errA
		}
		if errB != nil && !doneB {
			return false, errB
		}
		if doneA || doneB {
			return doneA == doneB, nil
		}
	}
}

// unionPaths returns the keys of both maps ordered the way a depth-first walk
// visits them: segment by segment, lexically.
func unionPaths(left, right map[string]entry) []string {
	paths := make([]string, 0, len(left)+len(right))
	for p := range left {
		paths = append(paths, p)
	}
	for p := range right {
		if _, dup := left[p]; !dup {
			paths = append(paths, p)
		}
	}
	slices.SortFunc(paths, comparePaths)
	return paths
}

func comparePaths(a, b string) int {
	for {
		segA, restA, moreA := strings.Cut(a, "/")
		segB, restB, moreB := strings.Cut(b, "/")
		if c := strings.Compare(segA, segB); c != 0 {
			return c
		}
		switch {
		case !moreA && !moreB:
			return 0
		case !moreA:
			return -1
		case !moreB:
			return 1
		}
		a, b = restA, restB
	}
}

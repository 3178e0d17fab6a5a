// SPDX-License-Identifier: MPL-2.0

package benchmark

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/npmverified/npm-verified/internal/npmver"
	"github.com/npmverified/npm-verified/internal/pkgroot"
	"github.com/npmverified/npm-verified/internal/pkgspec"
	"github.com/npmverified/npm-verified/internal/staging"
	"github.com/npmverified/npm-verified/internal/testutil"
	"github.com/npmverified/npm-verified/internal/treediff"
)

// monorepo returns a checkout with n workspace packages, each with a
// node_modules directory the locator has to skip.
func monorepo(n int) testutil.Tree {
	tree := testutil.Tree{"package.json": `{"name":"root","private":true}`}
	for i := range n {
		dir := fmt.Sprintf("packages/pkg-%03d", i)
		tree[dir+"/package.json"] = fmt.Sprintf(`{"name":"@bench/pkg-%03d","version":"1.0.%d"}`, i, i)
		tree[dir+"/index.js"] = "module.exports = {}\n"
		tree[dir+"/node_modules/dep/package.json"] = fmt.Sprintf(`{"name":"@bench/pkg-%03d"}`, i)
	}
	return tree
}

// sourceTree returns a package with files of lines lines each.
func sourceTree(files, lines int, edit bool) testutil.Tree {
	tree := testutil.Tree{"package.json": `{"name":"bench","version":"1.0.0"}`}
	for f := range files {
		var sb strings.Builder
		for l := range lines {
			if edit && f%4 == 0 && l == lines/2 {
				sb.WriteString("// edited\n")
				continue
			}
			fmt.Fprintf(&sb, "export const v%d = %d;\n", l, l)
		}
		tree[fmt.Sprintf("lib/file-%03d.js", f)] = sb.String()
	}
	return tree
}

// BenchmarkParseReference benchmarks package reference classification.
func BenchmarkParseReference(b *testing.B) {
	refs := []string{"left-pad", "left-pad@1.3.0", "@scope/pkg@^2.1.0 || ^3", "react@next", "./local", "github:acme/demo"}

	b.ResetTimer()
	for b.Loop() {
		for _, ref := range refs {
			_, _ = pkgspec.Parse(ref)
		}
	}
}

// BenchmarkMaxSatisfying benchmarks range resolution over a long version list.
func BenchmarkMaxSatisfying(b *testing.B) {
	versions := make([]string, 0, 600)
	for major := range 6 {
		for minor := range 20 {
			for patch := range 5 {
				versions = append(versions, fmt.Sprintf("%d.%d.%d", major, minor, patch))
			}
		}
	}
	r, err := npmver.ParseRange(">=2.3.0 <4 || ^5.1")
	if err != nil {
		b.Fatalf("ParseRange failed: %v", err)
	}

	b.ResetTimer()
	for b.Loop() {
		if _, ok := r.MaxSatisfying(versions); !ok {
			b.Fatal("MaxSatisfying found nothing")
		}
	}
}

// BenchmarkLocate benchmarks package-root discovery in a monorepo.
// This exercises the parallel manifest parsing in internal/pkgroot.
func BenchmarkLocate(b *testing.B) {
	checkout := testutil.WriteTree(b, b.TempDir(), monorepo(200))
	locator, err := pkgroot.New(pkgroot.Options{Exclude: []string{".git", "**/node_modules"}})
	if err != nil {
		b.Fatalf("pkgroot.New failed: %v", err)
	}

	b.ResetTimer()
	for b.Loop() {
		if _, err := locator.Locate(b.Context(), checkout, "@bench/pkg-150"); err != nil {
			b.Fatalf("Locate failed: %v", err)
		}
	}
}

// BenchmarkExtract benchmarks unpacking an npm pack archive.
func BenchmarkExtract(b *testing.B) {
	archive := testutil.WriteTarGz(b, filepath.Join(b.TempDir(), "bench-1.0.0.tgz"), "package", sourceTree(100, 200, false))
	dest := b.TempDir()

	b.ResetTimer()
	for b.Loop() {
		if err := staging.ResetDir(dest); err != nil {
			b.Fatalf("ResetDir failed: %v", err)
		}
		if err := staging.ExtractTarGz(archive, dest); err != nil {
			b.Fatalf("ExtractTarGz failed: %v", err)
		}
	}
}

// BenchmarkCompareSame benchmarks comparing identical trees.
func BenchmarkCompareSame(b *testing.B) {
	tree := sourceTree(100, 200, false)
	expected := testutil.WriteTree(b, filepath.Join(b.TempDir(), "expected"), tree)
	actual := testutil.WriteTree(b, filepath.Join(b.TempDir(), "actual"), tree)
	cmp := treediff.New(treediff.Options{})

	b.ResetTimer()
	for b.Loop() {
		res, err := cmp.Compare(b.Context(), expected, actual)
		if err != nil {
			b.Fatalf("Compare failed: %v", err)
		}
		if !res.Same {
			b.Fatal("identical trees reported different")
		}
	}
}

// BenchmarkCompareDifferent benchmarks hunk generation for edited files.
func BenchmarkCompareDifferent(b *testing.B) {
	expected := testutil.WriteTree(b, filepath.Join(b.TempDir(), "expected"), sourceTree(100, 200, false))
	actual := testutil.WriteTree(b, filepath.Join(b.TempDir(), "actual"), sourceTree(100, 200, true))
	cmp := treediff.New(treediff.Options{})

	b.ResetTimer()
	for b.Loop() {
		res, err := cmp.Compare(b.Context(), expected, actual)
		if err != nil {
			b.Fatalf("Compare failed: %v", err)
		}
		if len(res.Diffs) != 25 {
			b.Fatalf("got %d diffs, want 25", len(res.Diffs))
		}
	}
}

// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"archive/tar"
	"bytes"
	"os"
	"path"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
)

// Tree maps slash-separated relative paths to file contents. A path ending
// in "/" denotes an empty directory.
type Tree map[string]string

// WriteTree materializes tree below root and returns root.
func WriteTree(t testing.TB, root string, tree Tree) string {
	t.Helper()
	MustMkdirAll(t, root)
	for _, rel := range sortedKeys(tree) {
		target := filepath.Join(root, filepath.FromSlash(rel))
		if rel[len(rel)-1] == '/' {
			MustMkdirAll(t, target)
			continue
		}
		MustWriteFile(t, target, tree[rel])
	}
	return root
}

// TarGz returns a gzipped tarball holding tree under the wrapper directory,
// the way npm pack lays out its archives.
func TarGz(t testing.TB, wrapper string, tree Tree) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	mtime := time.Date(1985, 10, 26, 8, 15, 0, 0, time.UTC)

	for _, rel := range sortedKeys(tree) {
		name := path.Join(wrapper, rel)
		if rel[len(rel)-1] == '/' {
			hdr := &tar.Header{Name: name + "/", Typeflag: tar.TypeDir, Mode: 0o755, ModTime: mtime}
			if err := tw.WriteHeader(hdr); err != nil {
				t.Fatalf("writing tar header %s: %v", name, err)
			}
			continue
		}
		body := []byte(tree[rel])
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0o644, Size: int64(len(body)), ModTime: mtime}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("writing tar header %s: %v", name, err)
		}
		if _, err := tw.Write(body); err != nil {
			t.Fatalf("writing tar body %s: %v", name, err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("closing tar writer: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip writer: %v", err)
	}
	return buf.Bytes()
}

// WriteTarGz writes TarGz output to path.
func WriteTarGz(t testing.TB, archivePath, wrapper string, tree Tree) string {
	t.Helper()
	MustMkdirAll(t, filepath.Dir(archivePath))
	if err := os.WriteFile(archivePath, TarGz(t, wrapper, tree), 0o644); err != nil {
		t.Fatalf("writing %s: %v", archivePath, err)
	}
	return archivePath
}

func sortedKeys(tree Tree) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// maxEntryBytes bounds a single extracted file to guard against decompression bombs.
const maxEntryBytes = 1 << 30

// ErrUnsafeArchivePath is returned for entries that would land outside the
// extraction directory.
var ErrUnsafeArchivePath = errors.New("archive entry escapes destination")

// ExtractTarGz extracts a gzipped tarball into dest, dropping the first path
// segment of every entry (npm wraps package contents in a "package/" folder).
// Entries that consist of the wrapper alone are skipped.
func ExtractTarGz(archivePath, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }() // read-only handle

	if err := ExtractTarGzReader(f, dest); err != nil {
		return fmt.Errorf("extracting %s: %w", filepath.Base(archivePath), err)
	}
	return nil
}

// ExtractTarGzReader is ExtractTarGz over an arbitrary stream.
func ExtractTarGzReader(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dest, err)
	}

	tr := tar.NewReader(gz)
	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}
		if errors.Is(nextErr, tar.ErrInsecurePath) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchivePath, hdr.Name)
		}
		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}

		rel, ok := stripWrapper(hdr.Name)
		if !ok {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !withinDir(dest, target) {
			return fmt.Errorf("%w: %s", ErrUnsafeArchivePath, hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("creating directory %s: %w", rel, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("writing %s: %w", rel, err)
			}
		default:
			// npm tarballs only carry files and directories; links and
			// devices are ignored rather than materialized.
		}
	}
}

func writeEntry(r io.Reader, target string, perm os.FileMode) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	// Owner read/write keeps the scratch tree removable.
	perm |= 0o600

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	n, err := io.Copy(out, io.LimitReader(r, maxEntryBytes+1))
	if err != nil {
		return err
	}
	if n > maxEntryBytes {
		return fmt.Errorf("entry exceeds %d bytes", maxEntryBytes)
	}
	return nil
}

// stripWrapper removes the first segment of a tar entry name.
func stripWrapper(name string) (string, bool) {
	name = strings.TrimPrefix(path.Clean(strings.TrimPrefix(name, "./")), "/")
	_, rest, found := strings.Cut(name, "/")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

func withinDir(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

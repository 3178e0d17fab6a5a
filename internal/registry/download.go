// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/npmverified/npm-verified/internal/manifest"
	"github.com/npmverified/npm-verified/internal/pkgspec"
	"github.com/npmverified/npm-verified/internal/staging"
)

// Downloaded describes a published package unpacked on disk.
type Downloaded struct {
	Name     string
	Version  string
	Path     string
	Tarball  string
	Manifest *manifest.Manifest
}

// Download resolves id, fetches and verifies its tarball and unpacks it into
// dest/<name>/ without the archive's wrapper directory.
func (c *Client) Download(ctx context.Context, id pkgspec.Identifier, dest string) (*Downloaded, error) {
	doc, err := c.Packument(ctx, id.Name())
	if err != nil {
		return nil, err
	}
	meta, err := doc.Resolve(id)
	if err != nil {
		return nil, err
	}
	if meta.Dist.Tarball == "" {
		return nil, fmt.Errorf("%s@%s has no tarball", meta.Name, meta.Version)
	}
	c.logger.Info("resolved", "package", id.Raw(), "version", meta.Version)

	archive, err := c.fetchTarball(ctx, meta, dest)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(archive) }()

	pkgDir := filepath.Join(dest, filepath.FromSlash(id.Name()))
	if err := staging.ExtractTarGz(archive, pkgDir); err != nil {
		return nil, err
	}

	m, err := manifest.Load(filepath.Join(pkgDir, "package.json"))
	if err != nil {
		return nil, fmt.Errorf("published %s@%s: %w", meta.Name, meta.Version, err)
	}

	return &Downloaded{
		Name:     meta.Name,
		Version:  meta.Version,
		Path:     pkgDir,
		Tarball:  meta.Dist.Tarball,
		Manifest: m,
	}, nil
}

// fetchTarball streams the tarball into dest while hashing it and returns
// the temp file path once the digest checks out.
func (c *Client) fetchTarball(ctx context.Context, meta *VersionMeta, dest string) (_ string, err error) {
	chk, err := newChecker(meta.Dist)
	if err != nil {
		return "", err
	}
	if chk == nil {
		c.logger.Warn("registry published no integrity for tarball", "package", meta.Name, "version", meta.Version)
	}

	body, err := c.openTarball(ctx, meta.Dist.Tarball)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }() // read-only HTTP response body

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dest, err)
	}
	tmp, err := os.CreateTemp(dest, "tarball-*.tgz")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if closeErr := tmp.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	var w io.Writer = tmp
	if chk != nil {
		w = io.MultiWriter(tmp, chk)
	}
	n, err := io.Copy(w, io.LimitReader(body, maxTarballBytes+1))
	if err != nil {
		return "", fmt.Errorf("writing tarball: %w", err)
	}
	if n > maxTarballBytes {
		return "", fmt.Errorf("tarball exceeds %d bytes", maxTarballBytes)
	}
	if chk != nil {
		if err := chk.verify(redactURL(meta.Dist.Tarball)); err != nil {
			return "", err
		}
	}
	return tmp.Name(), nil
}

// SPDX-License-Identifier: MPL-2.0

package staging

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/npmverified/npm-verified/internal/logging"
)

// Working directory names under a scratch root.
const (
	DownloadDir = "download"
	CloneDir    = "clone"
	UnpackDir   = "unpack"

	rootPattern = "npm-verified-*"
)

// Scratch is a per-run scratch root.
type Scratch struct {
	root   string
	keep   bool
	logger *log.Logger
}

// New creates a fresh scratch root under parent. An empty parent means
// os.TempDir(). When keep is true, Close leaves the tree on disk.
func New(parent string, keep bool, logger *log.Logger) (*Scratch, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("creating scratch parent: %w", err)
		}
	}

	root, err := os.MkdirTemp(parent, rootPattern)
	if err != nil {
		return nil, fmt.Errorf("creating scratch root: %w", err)
	}

	if logger == nil {
		logger = logging.Discard()
	}
	logger.Debug("scratch root created", "path", root, "keep", keep)

	return &Scratch{root: root, keep: keep, logger: logger}, nil
}

// Root returns the absolute scratch root path.
func (s *Scratch) Root() string {
	return s.root
}

// Path returns the path of the named working directory without touching disk.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.root, name)
}

// Reset empties the named working directory, creating it if needed, and
// returns its path.
func (s *Scratch) Reset(name string) (string, error) {
	dir := s.Path(name)
	if err := ResetDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Close removes the scratch root unless it was created with keep set.
// It is safe to call more than once.
func (s *Scratch) Close() error {
	if s.keep {
		s.logger.Info("keeping scratch root", "path", s.root)
		return nil
	}
	if err := os.RemoveAll(s.root); err != nil {
		return fmt.Errorf("removing scratch root %s: %w", s.root, err)
	}
	return nil
}

// ResetDir removes dir and everything below it, then recreates it empty.
func ResetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clearing %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

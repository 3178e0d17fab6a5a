// SPDX-License-Identifier: MPL-2.0

package gitclone

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/npmverified/npm-verified/internal/testutil"
)

// initTaggedRepo creates a repository with one commit tagged as tag.
func initTaggedRepo(t *testing.T, tag string) string {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("PlainInit() error = %v", err)
	}
	testutil.MustWriteFile(t, filepath.Join(dir, "package.json"), `{"name":"fixture","version":"2.0.0"}`)

	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() error = %v", err)
	}
	if _, err := wt.Add("package.json"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	hash, err := wt.Commit("release", &git.CommitOptions{
		Author: &object.Signature{Name: "fixture", Email: "fixture@example.com", When: time.Unix(0, 0)},
	})
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if _, err := repo.CreateTag(tag, hash, nil); err != nil {
		t.Fatalf("CreateTag() error = %v", err)
	}
	return dir
}

func TestGoGitCloner_FallbackAgainstLocalRepo(t *testing.T) {
	t.Parallel()

	// go-git's file transport shells out to git-upload-pack.
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available")
	}

	origin := initTaggedRepo(t, "2.0.0")
	dest := filepath.Join(t.TempDir(), "clone")

	res, err := NewResolver(NewGoGitCloner(nil), nil).Resolve(context.Background(), origin, "2.0.0", dest)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Tag != "2.0.0" {
		t.Errorf("Tag = %q, want 2.0.0", res.Tag)
	}
	if n := len(res.Attempts()); n != 1 {
		t.Errorf("Attempts() = %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dest, "package.json")); err != nil {
		t.Errorf("package.json missing from checkout: %v", err)
	}
}

func TestGoGitCloner_MissingTag(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available")
	}

	origin := initTaggedRepo(t, "1.0.0")
	_, err := NewResolver(NewGoGitCloner(nil), nil).Resolve(context.Background(), origin, "9.9.9", filepath.Join(t.TempDir(), "clone"))
	if !errors.Is(err, ErrTagsExhausted) {
		t.Fatalf("Resolve() error = %v, want ErrTagsExhausted", err)
	}
}

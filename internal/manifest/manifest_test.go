// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/npmverified/npm-verified/internal/testutil"
)

func TestRepositoryDescriptor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		want    Repository
		wantErr error
	}{
		{
			name: "git",
			doc:  `{"name":"x","repository":{"type":"git","url":"git+https://github.com/u/x.git"}}`,
			want: Repository{Type: "git", URL: "git+https://github.com/u/x.git"},
		},
		{
			name: "monorepo_directory",
			doc:  `{"name":"x","repository":{"type":"git","url":"https://github.com/u/m.git","directory":"packages/x"}}`,
			want: Repository{Type: "git", URL: "https://github.com/u/m.git", Directory: "packages/x"},
		},
		{"missing", `{"name":"x"}`, Repository{}, ErrRepositoryNotFound},
		{"null", `{"name":"x","repository":null}`, Repository{}, ErrRepositoryNotFound},
		{"string_shorthand", `{"name":"x","repository":"github:u/x"}`, Repository{}, ErrInvalidRepository},
		{"missing_url", `{"name":"x","repository":{"type":"git"}}`, Repository{}, ErrInvalidRepository},
		{"missing_type", `{"name":"x","repository":{"url":"https://github.com/u/x.git"}}`, Repository{}, ErrInvalidRepository},
		{"empty_url", `{"name":"x","repository":{"type":"git","url":""}}`, Repository{}, ErrInvalidRepository},
		{"svn", `{"name":"x","repository":{"type":"svn","url":"svn://example.com/x"}}`, Repository{}, ErrUnsupportedRepository},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := Parse([]byte(tt.doc))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			got, err := m.RepositoryDescriptor()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("RepositoryDescriptor() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("RepositoryDescriptor() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("RepositoryDescriptor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestUnsupportedRepositoryError_Message(t *testing.T) {
	t.Parallel()

	err := &UnsupportedRepositoryError{Type: "svn"}
	if got, want := err.Error(), "unsupported repository type: svn"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "package.json")
	testutil.MustWriteFile(t, path, `{"name":"@scope/x","version":"1.2.3"}`)

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Name != "@scope/x" || m.Version != "1.2.3" {
		t.Errorf("Load() = %+v, want name @scope/x version 1.2.3", m)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Load() of a missing file returned no error")
	}
	testutil.MustWriteFile(t, path, `not json`)
	if _, err := Load(path); err == nil {
		t.Error("Load() of invalid JSON returned no error")
	}
}

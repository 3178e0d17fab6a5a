// SPDX-License-Identifier: MPL-2.0

// Package manifest decodes package.json documents and derives the source
// repository a published package claims to come from.
package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/kaptinlin/jsonschema"
)

// GitType is the only repository type that can be verified.
const GitType = "git"

var (
	// ErrRepositoryNotFound is returned when the manifest has no repository field.
	ErrRepositoryNotFound = errors.New("repository not found in the installed package.json")
	// ErrInvalidRepository is the sentinel error wrapped by InvalidRepositoryError.
	ErrInvalidRepository = errors.New("repository descriptor found in the installed package.json is invalid")
	// ErrUnsupportedRepository is the sentinel error wrapped by UnsupportedRepositoryError.
	ErrUnsupportedRepository = errors.New("unsupported repository type")

	//go:embed repository_schema.json
	repositorySchemaJSON []byte

	compileRepositorySchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
		return jsonschema.NewCompiler().Compile(repositorySchemaJSON)
	})
)

type (
	// Manifest is the subset of package.json the verifier reads.
	Manifest struct {
		Name       string          `json:"name"`
		Version    string          `json:"version"`
		Repository json.RawMessage `json:"repository,omitempty"`
	}

	// Repository is the repository descriptor of a manifest. Directory is
	// the optional monorepo hint; it is informational only.
	Repository struct {
		Type      string `json:"type" yaml:"type"`
		URL       string `json:"url" yaml:"url"`
		Directory string `json:"directory,omitempty" yaml:"directory,omitempty"`
	}

	// InvalidRepositoryError reports a repository field that is not an
	// object with a type and a url.
	InvalidRepositoryError struct {
		Reason string
	}

	// UnsupportedRepositoryError reports a repository whose type is not git.
	UnsupportedRepositoryError struct {
		Type string
	}
)

// Error implements the error interface.
func (e *InvalidRepositoryError) Error() string {
	if e.Reason == "" {
		return ErrInvalidRepository.Error()
	}
	return ErrInvalidRepository.Error() + ": " + e.Reason
}

// Unwrap returns ErrInvalidRepository so callers can use errors.Is.
func (e *InvalidRepositoryError) Unwrap() error { return ErrInvalidRepository }

// Error implements the error interface.
func (e *UnsupportedRepositoryError) Error() string {
	return fmt.Sprintf("unsupported repository type: %s", e.Type)
}

// Unwrap returns ErrUnsupportedRepository so callers can use errors.Is.
func (e *UnsupportedRepositoryError) Unwrap() error { return ErrUnsupportedRepository }

// Parse decodes a package.json document.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding package.json: %w", err)
	}
	return &m, nil
}

// Load reads and decodes the package.json at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading package.json: %w", err)
	}
	return Parse(data)
}

// RepositoryDescriptor validates and returns the repository field.
func (m *Manifest) RepositoryDescriptor() (Repository, error) {
	raw := bytes.TrimSpace(m.Repository)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Repository{}, ErrRepositoryNotFound
	}

	schema, err := compileRepositorySchema()
	if err != nil {
		return Repository{}, fmt.Errorf("compiling repository schema: %w", err)
	}
	if result := schema.ValidateJSON(raw); !result.IsValid() {
		return Repository{}, &InvalidRepositoryError{Reason: fmt.Sprint(result.Errors)}
	}

	var repo Repository
	if err := json.Unmarshal(raw, &repo); err != nil {
		return Repository{}, &InvalidRepositoryError{Reason: err.Error()}
	}
	if repo.Type != GitType {
		return Repository{}, &UnsupportedRepositoryError{Type: repo.Type}
	}
	return repo, nil
}

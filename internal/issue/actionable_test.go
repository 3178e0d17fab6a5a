// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "load configuration"},
			want: "failed to load configuration",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load configuration", Resource: "./npm-verified.cue"},
			want: "failed to load configuration: ./npm-verified.cue",
		},
		{
			name: "with resource and cause",
			err: &ActionableError{
				Operation: "parse package reference",
				Resource:  "./local",
				Cause:     errors.New("not a registry package"),
			},
			want: "failed to parse package reference: ./local: not a registry package",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().WithOperation("verify").Wrap(sentinel).BuildError()
	if !errors.Is(err, sentinel) {
		t.Error("errors.Is() should find the wrapped cause")
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      *ActionableError
		verbose  bool
		contains []string
		excludes []string
	}{
		{
			name: "suggestions",
			err: &ActionableError{
				Operation:   "load configuration",
				Resource:    "./npm-verified.cue",
				Suggestions: []string{"Check the CUE syntax", "Remove the file"},
			},
			contains: []string{
				"failed to load configuration: ./npm-verified.cue",
				"• Check the CUE syntax",
				"• Remove the file",
			},
		},
		{
			name:     "no chain when not verbose",
			err:      &ActionableError{Operation: "load configuration", Cause: errors.New("syntax error")},
			contains: []string{"failed to load configuration: syntax error"},
			excludes: []string{"Error chain:"},
		},
		{
			name: "nested chain when verbose",
			err: &ActionableError{
				Operation: "verify package",
				Cause: &ActionableError{
					Operation: "read manifest",
					Cause:     errors.New("file not found"),
				},
			},
			verbose: true,
			contains: []string{
				"Error chain:",
				"1. failed to read manifest: file not found",
				"2. file not found",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.err.Format(tt.verbose)
			for _, s := range tt.contains {
				if !strings.Contains(got, s) {
					t.Errorf("Format() missing %q\ngot:\n%s", s, got)
				}
			}
			for _, s := range tt.excludes {
				if strings.Contains(got, s) {
					t.Errorf("Format() should not contain %q\ngot:\n%s", s, got)
				}
			}
		})
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	ae := NewErrorContext().
		WithOperation("load configuration").
		WithResource("config.cue").
		WithSuggestion("one").
		WithSuggestion("two").
		WithIssue(ConfigLoadFailedId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Operation != "load configuration" || ae.Resource != "config.cue" {
		t.Errorf("Build() = %+v", ae)
	}
	if len(ae.Suggestions) != 2 || ae.Suggestions[1] != "two" {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Issue != ConfigLoadFailedId {
		t.Errorf("Issue = %d, want %d", ae.Issue, ConfigLoadFailedId)
	}
	if !errors.Is(ae.Cause, cause) {
		t.Errorf("Cause = %v", ae.Cause)
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() = %+v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}
}

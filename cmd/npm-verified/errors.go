// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/npmverified/npm-verified/internal/build"
	"github.com/npmverified/npm-verified/internal/gitclone"
	"github.com/npmverified/npm-verified/internal/issue"
	"github.com/npmverified/npm-verified/internal/manifest"
	"github.com/npmverified/npm-verified/internal/pipeline"
	"github.com/npmverified/npm-verified/internal/pkgroot"
	"github.com/npmverified/npm-verified/internal/pkgspec"
	"github.com/npmverified/npm-verified/internal/registry"
)

// classifyError maps a run failure to an issue catalog ID (0 when none
// applies) and returns a styled message for CLI rendering.
func classifyError(err error, verbose bool) (issueID issue.Id, styledMsg string) {
	switch {
	case errors.Is(err, pkgspec.ErrNotRegistry):
		issueID = issue.NotRegistryPackageId
	case errors.Is(err, pkgspec.ErrInvalidPackageName), errors.Is(err, pkgspec.ErrInvalidSpec):
		issueID = issue.InvalidPackageNameId
	case errors.Is(err, registry.ErrNotFound):
		issueID = issue.PackageNotPublishedId
	case errors.Is(err, registry.ErrVersionNotFound):
		issueID = issue.VersionNotPublishedId
	case errors.Is(err, registry.ErrIntegrityMismatch):
		issueID = issue.IntegrityMismatchId
	case errors.Is(err, manifest.ErrRepositoryNotFound):
		issueID = issue.RepositoryMissingId
	case errors.Is(err, manifest.ErrInvalidRepository):
		issueID = issue.RepositoryInvalidId
	case errors.Is(err, manifest.ErrUnsupportedRepository):
		issueID = issue.RepositoryUnsupportedId
	case errors.Is(err, gitclone.ErrTagsExhausted):
		issueID = issue.TagsExhaustedId
	case errors.Is(err, pkgroot.ErrPackageNotFound):
		issueID = issue.PackageRootNotFoundId
	case errors.Is(err, pkgroot.ErrPackageAmbiguous):
		issueID = issue.PackageRootAmbiguousId
	case errors.Is(err, build.ErrPackFailed), errors.Is(err, build.ErrCommandFailed):
		issueID = issue.BuildFailedId
	case errors.Is(err, os.ErrPermission):
		issueID = issue.PermissionDeniedId
	default:
		var ae *issue.ActionableError
		if errors.As(err, &ae) {
			issueID = ae.Issue
		}
	}

	return issueID, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode a stage failure is prefixed with its stage.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	var se *pipeline.StageError
	if verbose && errors.As(err, &se) {
		return se.Describe()
	}
	return err.Error()
}

// renderFailure prints err (and its catalog entry in verbose mode) to the
// command's stderr and returns the ExitError that carries the exit code.
func renderFailure(cmd *cobra.Command, err error, verbose, color bool) error {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	code := ExitCodeError
	if errors.Is(err, context.Canceled) {
		code = ExitCodeInterrupted
	}

	w := cmd.ErrOrStderr()
	issueID, msg := classifyError(err, verbose)
	fmt.Fprint(w, msg)
	if verbose {
		renderIssue(w, issueID, color)
	}
	return &ExitError{Code: code, Err: err}
}

func renderIssue(w io.Writer, id issue.Id, color bool) {
	entry := issue.Get(id)
	if entry == nil {
		return
	}
	style := "dark"
	if !color {
		style = "notty"
	}
	rendered, err := entry.Render(style)
	if err != nil {
		return
	}
	fmt.Fprint(w, rendered)
}

// inputError explains a package reference that cannot be verified.
func inputError(ref string, err error) error {
	ctx := issue.NewErrorContext().
		WithOperation("parse package reference").
		WithResource(ref).
		Wrap(err)
	if errors.Is(err, pkgspec.ErrNotRegistry) {
		return ctx.WithIssue(issue.NotRegistryPackageId).
			WithSuggestion("Only registry packages can be verified: pass name, name@version, name@range or name@tag").
			BuildError()
	}
	return ctx.WithIssue(issue.InvalidPackageNameId).
		WithSuggestion("Check the package name against https://www.npmjs.com/package/<name>").
		BuildError()
}

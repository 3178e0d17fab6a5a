// SPDX-License-Identifier: MPL-2.0

package gitclone

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/npmverified/npm-verified/internal/logging"
	"github.com/npmverified/npm-verified/internal/staging"
)

// ErrTagsExhausted is the sentinel error wrapped by TagsExhaustedError.
var ErrTagsExhausted = errors.New("no candidate tag could be cloned")

type (
	// Cloner checks out url at tag into dest, which exists and is empty.
	Cloner interface {
		Clone(ctx context.Context, url, tag, dest string) error
	}

	// Attempt records one failed clone.
	Attempt struct {
		Tag string
		Err error
	}

	// Resolution describes a successful checkout.
	Resolution struct {
		URL  string
		Tag  string
		Path string

		failed []Attempt
	}

	// TagsExhaustedError is returned when every candidate tag failed. It
	// unwraps to ErrTagsExhausted and to each recorded cause.
	TagsExhaustedError struct {
		URL     string
		Version string
		Tags    []string
		Causes  []error
	}

	// Resolver clones a repository at the tag matching a package version.
	Resolver struct {
		cloner Cloner
		logger *log.Logger
	}
)

// Error lists the attempted tags followed by each cause on its own line.
func (e *TagsExhaustedError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "unable to clone %s at version %q: attempted \"%s\".",
		e.URL, e.Version, strings.Join(e.Tags, `", "`))
	for _, cause := range e.Causes {
		msg.WriteString("\n")
		msg.WriteString(cause.Error())
	}
	return msg.String()
}

// Unwrap exposes ErrTagsExhausted and the clone failures to errors.Is/As.
func (e *TagsExhaustedError) Unwrap() []error {
	return append([]error{ErrTagsExhausted}, e.Causes...)
}

// Attempts returns the failures recorded before the successful tag.
func (r *Resolution) Attempts() []Attempt {
	return slices.Clone(r.failed)
}

// NewResolver creates a Resolver using cloner for the actual checkout.
func NewResolver(cloner Cloner, logger *log.Logger) *Resolver {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Resolver{cloner: cloner, logger: logger}
}

// Resolve checks out repoURL at "v<version>", falling back to "<version>".
// dest is emptied before every attempt, so a partial checkout never leaks
// into the next one.
func (r *Resolver) Resolve(ctx context.Context, repoURL, version, dest string) (*Resolution, error) {
	url := NormalizeURL(repoURL)
	tags := CandidateTags(version)
	res := &Resolution{URL: url, Path: dest}

	for _, tag := range tags {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := staging.ResetDir(dest); err != nil {
			return nil, err
		}

		r.logger.Debug("cloning", "url", url, "tag", tag, "dest", dest)
		err := r.cloner.Clone(ctx, url, tag, dest)
		if err == nil {
			res.Tag = tag
			r.logger.Info("cloned", "url", url, "tag", tag, "failed_attempts", len(res.failed))
			return res, nil
		}
		r.logger.Debug("clone failed", "url", url, "tag", tag, "err", err)
		res.failed = append(res.failed, Attempt{Tag: tag, Err: err})
	}

	causes := make([]error, 0, len(res.failed))
	for _, a := range res.failed {
		causes = append(causes, a.Err)
	}
	return nil, &TagsExhaustedError{URL: url, Version: version, Tags: tags, Causes: causes}
}

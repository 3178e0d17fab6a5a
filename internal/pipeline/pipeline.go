// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/npmverified/npm-verified/internal/build"
	"github.com/npmverified/npm-verified/internal/config"
	"github.com/npmverified/npm-verified/internal/gitclone"
	"github.com/npmverified/npm-verified/internal/logging"
	"github.com/npmverified/npm-verified/internal/manifest"
	"github.com/npmverified/npm-verified/internal/pkgroot"
	"github.com/npmverified/npm-verified/internal/pkgspec"
	"github.com/npmverified/npm-verified/internal/registry"
	"github.com/npmverified/npm-verified/internal/staging"
	"github.com/npmverified/npm-verified/internal/treediff"
)

// Exit codes of a completed run.
const (
	ExitSame      = 0
	ExitDifferent = 1
)

type (
	// Downloader fetches and unpacks the published package.
	Downloader interface {
		Download(ctx context.Context, id pkgspec.Identifier, dest string) (*registry.Downloaded, error)
	}

	// TagResolver clones a repository at the tag matching a version.
	TagResolver interface {
		Resolve(ctx context.Context, repoURL, version, dest string) (*gitclone.Resolution, error)
	}

	// Locator finds the package root inside a checkout.
	Locator interface {
		Locate(ctx context.Context, checkout, name string) (pkgroot.Location, error)
	}

	// Builder rebuilds a package root into an archive.
	Builder interface {
		Pack(ctx context.Context, root string) (string, error)
	}

	// Comparator compares the rebuilt tree (expected) with the published one
	// (actual).
	Comparator interface {
		Compare(ctx context.Context, expected, actual string) (treediff.Result, error)
	}

	// Reporter renders a finished comparison.
	Reporter interface {
		Report(outcome *Outcome) error
	}

	// Dependencies are the collaborators of a run. A nil Downloader is
	// replaced per run by a registry client for RunConfig.Registry; a nil
	// Reporter ends the run at StageCompared.
	Dependencies struct {
		Downloader  Downloader
		TagResolver TagResolver
		Locator     Locator
		Builder     Builder
		Comparator  Comparator
		Reporter    Reporter
	}

	// RunConfig is the immutable input of a run.
	RunConfig struct {
		Identifier pkgspec.Identifier
		// Registry is the registry base URL used by the default downloader.
		Registry string
		// ScratchParent is where the per-run scratch root is created
		// ("" = os.TempDir()).
		ScratchParent string
		// KeepScratch leaves the scratch root on disk after the run.
		KeepScratch bool
	}

	// Outcome is the result of a run that reached the comparison.
	Outcome struct {
		Identifier pkgspec.Identifier
		Repository manifest.Repository
		// Version is the published version that was verified.
		Version string
		// Tag is the git tag the repository was cloned at.
		Tag string
		// PackageRoot is the package directory relative to the checkout,
		// "." for the repository root.
		PackageRoot string
		Result      treediff.Result
		Stage       Stage
	}

	// Pipeline runs verifications.
	Pipeline struct {
		deps      Dependencies
		observer  Observer
		logger    *log.Logger
		token     string
		userAgent string
	}

	// Option configures a Pipeline.
	Option func(*Pipeline)
)

// ExitCode is 0 when the trees are the same, 1 otherwise.
func (o *Outcome) ExitCode() int {
	if o.Result.Same {
		return ExitSame
	}
	return ExitDifferent
}

// WithDependencies overrides collaborators; nil fields keep their defaults.
func WithDependencies(d Dependencies) Option {
	return func(p *Pipeline) {
		if d.Downloader != nil {
			p.deps.Downloader = d.Downloader
		}
		if d.TagResolver != nil {
			p.deps.TagResolver = d.TagResolver
		}
		if d.Locator != nil {
			p.deps.Locator = d.Locator
		}
		if d.Builder != nil {
			p.deps.Builder = d.Builder
		}
		if d.Comparator != nil {
			p.deps.Comparator = d.Comparator
		}
		if d.Reporter != nil {
			p.deps.Reporter = d.Reporter
		}
	}
}

// WithObserver sets the progress observer.
func WithObserver(o Observer) Option {
	return func(p *Pipeline) {
		if o != nil {
			p.observer = o
		}
	}
}

// WithLogger sets the parent logger; stages log under their own prefixes.
func WithLogger(l *log.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent of the default downloader.
func WithUserAgent(ua string) Option {
	return func(p *Pipeline) {
		p.userAgent = ua
	}
}

// New builds a Pipeline whose default collaborators are configured from cfg.
// buildOutput receives the install and pack output; nil discards it.
func New(cfg *config.Config, buildOutput io.Writer, opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		observer:  NopObserver{},
		logger:    logging.Discard(),
		token:     cfg.RegistryToken,
		userAgent: "npm-verified",
	}
	for _, opt := range opts {
		opt(p)
	}

	locator, err := pkgroot.New(pkgroot.Options{
		Exclude: cfg.Locate.Exclude,
		Logger:  logging.Named(p.logger, logging.Locate),
	})
	if err != nil {
		return nil, fmt.Errorf("locate.exclude: %w", err)
	}
	cloneLogger := logging.Named(p.logger, logging.Clone)

	defaults := Dependencies{
		TagResolver: gitclone.NewResolver(gitclone.NewGoGitCloner(cloneLogger), cloneLogger),
		Locator:     locator,
		Builder: build.NewPacker(
			build.WithCommands(build.Commands{
				Install:     cfg.Build.InstallCommand,
				YarnInstall: cfg.Build.YarnInstallCommand,
				Pack:        cfg.Build.PackCommand,
			}),
			build.WithOutput(buildOutput),
			build.WithLogger(logging.Named(p.logger, logging.Pack)),
		),
		Comparator: treediff.New(treediff.Options{
			ContextLines: cfg.Compare.ContextLines,
			Logger:       logging.Named(p.logger, logging.Compare),
		}),
	}
	overrides := p.deps
	p.deps = defaults
	WithDependencies(overrides)(p)
	return p, nil
}

// Run executes every stage in order. A stage failure is returned as a
// *StageError; the scratch root is removed on every path unless
// rc.KeepScratch is set.
func (p *Pipeline) Run(ctx context.Context, rc RunConfig) (*Outcome, error) {
	out := &Outcome{Identifier: rc.Identifier, Stage: StageInit}

	scratch, err := staging.New(rc.ScratchParent, rc.KeepScratch, p.logger)
	if err != nil {
		return nil, &StageError{Stage: StageInit, Err: err}
	}
	defer func() {
		if closeErr := scratch.Close(); closeErr != nil {
			p.logger.Warn("failed to remove scratch directory", "path", scratch.Root(), "err", closeErr)
		}
	}()

	fail := func(stage Stage, err error) (*Outcome, error) {
		p.logger.Debug("stage failed", "stage", stage, "err", err)
		return nil, &StageError{Stage: stage, Err: err}
	}

	// Downloaded
	p.observer.Downloading(rc.Identifier.Raw())
	downloadDir, err := scratch.Reset(staging.DownloadDir)
	if err != nil {
		return fail(StageDownloaded, err)
	}
	published, err := p.downloader(rc).Download(ctx, rc.Identifier, downloadDir)
	if err != nil {
		return fail(StageDownloaded, err)
	}
	out.Version = published.Version
	out.Stage = StageDownloaded

	// RepoResolved
	repo, err := published.Manifest.RepositoryDescriptor()
	if err != nil {
		return fail(StageRepoResolved, err)
	}
	out.Repository = repo
	out.Stage = StageRepoResolved

	// RepoCloned
	p.observer.Cloning(repo.URL, repo.Type, published.Version)
	cloneDir := scratch.Path(staging.CloneDir)
	res, err := p.deps.TagResolver.Resolve(ctx, repo.URL, published.Version, cloneDir)
	if err != nil {
		return fail(StageRepoCloned, err)
	}
	out.Tag = res.Tag
	out.Stage = StageRepoCloned

	// PackageRootFound
	loc, err := p.deps.Locator.Locate(ctx, res.Path, rc.Identifier.Name())
	if err != nil {
		return fail(StagePackageRootFound, err)
	}
	out.PackageRoot = loc.RelRoot(res.Path)
	out.Stage = StagePackageRootFound
	p.observer.FoundPackageRoot(rc.Identifier.Name(), out.PackageRoot)

	// Rebuilt
	p.observer.Preparing(out.PackageRoot)
	archive, err := p.deps.Builder.Pack(ctx, loc.RootPath)
	if err != nil {
		return fail(StageRebuilt, err)
	}
	out.Stage = StageRebuilt

	// Unpacked
	unpackDir, err := scratch.Reset(staging.UnpackDir)
	if err != nil {
		return fail(StageUnpacked, err)
	}
	if err := staging.ExtractTarGz(archive, unpackDir); err != nil {
		return fail(StageUnpacked, err)
	}
	out.Stage = StageUnpacked

	// Compared
	p.observer.Comparing()
	result, err := p.deps.Comparator.Compare(ctx, unpackDir, published.Path)
	if err != nil {
		return fail(StageCompared, err)
	}
	out.Result = result
	out.Stage = StageCompared
	p.logger.Info("compared", "same", result.Same, "diffs", len(result.Diffs))

	// Reported
	if p.deps.Reporter == nil {
		return out, nil
	}
	if err := p.deps.Reporter.Report(out); err != nil {
		return fail(StageReported, err)
	}
	out.Stage = StageReported
	return out, nil
}

func (p *Pipeline) downloader(rc RunConfig) Downloader {
	if p.deps.Downloader != nil {
		return p.deps.Downloader
	}
	return registry.NewClient(
		registry.WithBaseURL(rc.Registry),
		registry.WithToken(p.token),
		registry.WithUserAgent(p.userAgent),
		registry.WithLogger(logging.Named(p.logger, logging.Download)),
	)
}

// IsStage reports whether err stopped a run at stage.
func IsStage(err error, stage Stage) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}

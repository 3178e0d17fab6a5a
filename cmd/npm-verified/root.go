// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the npm-verified command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/npmverified/npm-verified/internal/config"
	"github.com/npmverified/npm-verified/internal/logging"
	"github.com/npmverified/npm-verified/internal/pipeline"
	"github.com/npmverified/npm-verified/internal/pkgspec"
	"github.com/npmverified/npm-verified/internal/report"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// rootCmd represents the base command
	rootCmd = newRootCommand(pipeline.Dependencies{})
)

// rootFlags holds the command line flags of a single invocation.
type rootFlags struct {
	configFile  string
	registry    string
	format      string
	keepScratch bool
	verbose     bool
	debug       bool
	noColor     bool
}

// newRootCommand builds the command. deps overrides pipeline collaborators;
// the zero value runs against the real registry, git and npm.
func newRootCommand(deps pipeline.Dependencies) *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "npm-verified <package>",
		Short: "Verify a published npm package against its source repository",
		Long: TitleStyle.Render("npm-verified") + SubtitleStyle.Render(" - Verify a published npm package against its source repository") + `

npm-verified downloads a package from the registry, clones the repository
declared in its package.json at the tag of the published version, rebuilds
the package with npm (or yarn) and compares both trees file by file.

` + SubtitleStyle.Render("Exit status:") + `
  0  the published package matches the one prepared from source
  1  the packages differ
  2  verification could not complete

` + SubtitleStyle.Render("Examples:") + `
  npm-verified left-pad               Verify the latest version
  npm-verified left-pad@1.3.0         Verify an exact version
  npm-verified @scope/pkg@^2          Verify the highest 2.x version
  npm-verified --format json lodash   Print the report as canonical JSON`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args[0], flags, deps)
		},
	}

	flags.register(cmd.Flags())

	return cmd
}

func (f *rootFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.configFile, "config", "", "config file (default is $XDG_CONFIG_HOME/npm-verified/config.cue)")
	fs.StringVar(&f.registry, "registry", "", "npm registry base URL")
	fs.StringVarP(&f.format, "format", "f", "", "report format: text, json or yaml")
	fs.BoolVar(&f.keepScratch, "keep-scratch", false, "keep the scratch directory after the run")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "enable verbose output")
	fs.BoolVar(&f.debug, "debug", false, "enable debug tracing")
	fs.BoolVar(&f.noColor, "no-color", false, "disable colored output")
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command and exits with its status.
// This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitCodeError)
	}
}

// apply overrides cfg with the flags that were set explicitly.
func (f *rootFlags) apply(fs *pflag.FlagSet, cfg *config.Config) {
	if fs.Changed("registry") {
		cfg.Registry = f.registry
	}
	if fs.Changed("format") {
		cfg.UI.Format = config.Format(f.format)
	}
	if f.verbose {
		cfg.UI.Verbose = true
	}
	if f.noColor {
		cfg.UI.Color = false
	}
}

func runVerify(cmd *cobra.Command, ref string, flags *rootFlags, deps pipeline.Dependencies) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: flags.configFile})
	if err != nil {
		return renderFailure(cmd, err, flags.verbose, !flags.noColor)
	}
	flags.apply(cmd.Flags(), cfg)
	verbose, color := cfg.UI.Verbose, cfg.UI.Color
	if err := cfg.Validate(); err != nil {
		return renderFailure(cmd, err, verbose, color)
	}

	id, err := pkgspec.Parse(ref)
	if err != nil {
		return renderFailure(cmd, inputError(ref, err), verbose, color)
	}

	// --keep-scratch raises the level so the kept path is logged.
	logger := logging.New(stderr, logging.Options{
		Verbose: verbose || flags.keepScratch,
		Debug:   flags.debug,
	})

	renderer, err := report.New(stdout, cfg.UI.Format, color)
	if err != nil {
		return renderFailure(cmd, err, verbose, color)
	}

	// Structured reports own stdout.
	progressOut := stdout
	if cfg.UI.Format != config.FormatText {
		progressOut = stderr
	}
	var buildOutput io.Writer
	if verbose {
		buildOutput = stderr
	}

	deps.Reporter = renderer
	p, err := pipeline.New(cfg, buildOutput,
		pipeline.WithDependencies(deps),
		pipeline.WithObserver(newProgress(progressOut, color)),
		pipeline.WithLogger(logger),
		pipeline.WithUserAgent("npm-verified/"+Version),
	)
	if err != nil {
		return renderFailure(cmd, err, verbose, color)
	}

	outcome, err := p.Run(ctx, pipeline.RunConfig{
		Identifier:    id,
		Registry:      cfg.Registry,
		ScratchParent: cfg.ScratchDir,
		KeepScratch:   flags.keepScratch,
	})
	if err != nil {
		return renderFailure(cmd, err, verbose, color)
	}

	if code := outcome.ExitCode(); code != pipeline.ExitSame {
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		return &ExitError{Code: code}
	}
	return nil
}

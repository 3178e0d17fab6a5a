// SPDX-License-Identifier: MPL-2.0

package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/npmverified/npm-verified/internal/logging"
)

// YarnLockfile selects the yarn installer when present in the package root.
const YarnLockfile = "yarn.lock"

var (
	// ErrPackFailed is returned when pack produced no archive.
	ErrPackFailed = errors.New("package pack failed, .tgz not found")

	// ErrCommandFailed is the sentinel error wrapped by CommandError.
	ErrCommandFailed = errors.New("build command failed")
)

type (
	// Commands are the shell command lines used to rebuild a package.
	Commands struct {
		Install     string
		YarnInstall string
		Pack        string
	}

	// Packer installs dependencies and packs a package root.
	Packer struct {
		commands   Commands
		environ    []string
		output     io.Writer
		middleware []func(interp.ExecHandlerFunc) interp.ExecHandlerFunc
		logger     *log.Logger
	}

	// Option configures a Packer.
	Option func(*Packer)

	// CommandError reports a command that exited with a non-zero status.
	CommandError struct {
		Command  string
		ExitCode int
		Stderr   string
	}

	// PackError reports a pack run whose archive is missing.
	PackError struct {
		Root    string
		Archive string
	}
)

// Error implements the error interface.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%q exited with status %d", e.Command, e.ExitCode)
	if stderr := strings.TrimRight(e.Stderr, "\n"); stderr != "" {
		msg += "\n" + stderr
	}
	return msg
}

// Unwrap returns ErrCommandFailed so callers can use errors.Is.
func (e *CommandError) Unwrap() error { return ErrCommandFailed }

// Error implements the error interface.
func (e *PackError) Error() string {
	if e.Archive == "" {
		return ErrPackFailed.Error()
	}
	return fmt.Sprintf("%s: %s", ErrPackFailed, e.Archive)
}

// Unwrap returns ErrPackFailed so callers can use errors.Is.
func (e *PackError) Unwrap() error { return ErrPackFailed }

// DefaultCommands returns the npm/yarn command lines.
func DefaultCommands() Commands {
	return Commands{
		Install:     "npm install",
		YarnInstall: "yarn",
		Pack:        "npm pack",
	}
}

// WithCommands overrides the command lines. Empty fields keep their defaults.
func WithCommands(c Commands) Option {
	return func(p *Packer) {
		if c.Install != "" {
			p.commands.Install = c.Install
		}
		if c.YarnInstall != "" {
			p.commands.YarnInstall = c.YarnInstall
		}
		if c.Pack != "" {
			p.commands.Pack = c.Pack
		}
	}
}

// WithEnviron replaces the inherited process environment.
func WithEnviron(env []string) Option {
	return func(p *Packer) {
		p.environ = env
	}
}

// WithOutput mirrors command output to w.
func WithOutput(w io.Writer) Option {
	return func(p *Packer) {
		if w != nil {
			p.output = w
		}
	}
}

// WithExecMiddleware intercepts external programs started by the commands.
func WithExecMiddleware(mw func(interp.ExecHandlerFunc) interp.ExecHandlerFunc) Option {
	return func(p *Packer) {
		p.middleware = append(p.middleware, mw)
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(p *Packer) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewPacker creates a Packer with the default commands and the process
// environment.
func NewPacker(opts ...Option) *Packer {
	p := &Packer{
		commands: DefaultCommands(),
		environ:  os.Environ(),
		output:   io.Discard,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Pack installs dependencies in root and packs it, returning the path of the
// produced archive.
func (p *Packer) Pack(ctx context.Context, root string) (string, error) {
	install := p.InstallCommand(root)
	p.logger.Info("installing dependencies", "root", root, "command", install)
	if _, err := p.run(ctx, root, install); err != nil {
		return "", err
	}

	pack := p.commands.Pack + ` "$1"`
	p.logger.Info("packing", "root", root, "command", pack)
	stdout, err := p.run(ctx, root, pack, root)
	if err != nil {
		return "", err
	}

	name := lastLine(stdout)
	if name == "" {
		return "", &PackError{Root: root}
	}
	archive := filepath.Join(root, name)
	info, err := os.Lstat(archive)
	if err != nil || !info.Mode().IsRegular() {
		return "", &PackError{Root: root, Archive: name}
	}
	p.logger.Debug("packed", "archive", archive)
	return archive, nil
}

// InstallCommand picks yarn when root holds a yarn.lock file, npm otherwise.
func (p *Packer) InstallCommand(root string) string {
	info, err := os.Lstat(filepath.Join(root, YarnLockfile))
	if err == nil && info.Mode().IsRegular() {
		return p.commands.YarnInstall
	}
	return p.commands.Install
}

// run executes a command line in dir and returns its stdout.
func (p *Packer) run(ctx context.Context, dir, command string, params ...string) (string, error) {
	prog, err := syntax.NewParser().Parse(strings.NewReader(command), "command")
	if err != nil {
		return "", fmt.Errorf("failed to parse %q: %w", command, err)
	}

	env := append(append([]string(nil), p.environ...), "NODE_ENV=development")
	var stdout, stderr bytes.Buffer
	opts := []interp.RunnerOption{
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, io.MultiWriter(&stdout, p.output), io.MultiWriter(&stderr, p.output)),
	}
	if len(p.middleware) > 0 {
		opts = append(opts, interp.ExecHandlers(p.middleware...))
	}
	// "--" keeps paths starting with a dash from being read as shell options.
	if len(params) > 0 {
		opts = append(opts, interp.Params(append([]string{"--"}, params...)...))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return "", &CommandError{Command: command, ExitCode: int(exitStatus), Stderr: stderr.String()}
		}
		return "", fmt.Errorf("running %q: %w", command, err)
	}
	return stdout.String(), nil
}

func lastLine(out string) string {
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}

// SPDX-License-Identifier: MPL-2.0

package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"mvdan.cc/sh/v3/interp"
)

// fakeTools stands in for npm and yarn inside the shell interpreter.
type fakeTools struct {
	mu       sync.Mutex
	calls    []string
	nodeEnv  []string
	packName string
	noWrite  bool
	failOn   string
}

func (f *fakeTools) middleware(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		if args[0] != "npm" && args[0] != "yarn" {
			return next(ctx, args)
		}
		hc := interp.HandlerCtx(ctx)

		f.mu.Lock()
		f.calls = append(f.calls, strings.Join(args, " "))
		f.nodeEnv = append(f.nodeEnv, hc.Env.Get("NODE_ENV").String())
		f.mu.Unlock()

		if f.failOn != "" && strings.Join(args, " ") == f.failOn {
			_, _ = fmt.Fprintln(hc.Stderr, "npm ERR! boom")
			return interp.ExitStatus(3)
		}
		if len(args) > 1 && args[1] == "pack" {
			_, _ = fmt.Fprintln(hc.Stdout, "npm notice Tarball Contents")
			if f.packName == "" {
				return nil
			}
			if !f.noWrite {
				if err := os.WriteFile(filepath.Join(hc.Dir, f.packName), []byte("tgz"), 0o644); err != nil {
					return err
				}
			}
			_, _ = fmt.Fprintf(hc.Stdout, "%s\n\n", f.packName)
		}
		return nil
	}
}

func newTestPacker(f *fakeTools, opts ...Option) *Packer {
	opts = append([]Option{WithEnviron([]string{"PATH=/nonexistent", "NODE_ENV=production"}), WithExecMiddleware(f.middleware)}, opts...)
	return NewPacker(opts...)
}

func TestPack_NpmInstall(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tools := &fakeTools{packName: "demo-1.0.0.tgz"}

	archive, err := newTestPacker(tools).Pack(context.Background(), root)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if want := filepath.Join(root, "demo-1.0.0.tgz"); archive != want {
		t.Errorf("Pack() = %q, want %q", archive, want)
	}

	wantCalls := []string{"npm install", "npm pack " + root}
	if strings.Join(tools.calls, "|") != strings.Join(wantCalls, "|") {
		t.Errorf("calls = %q, want %q", tools.calls, wantCalls)
	}
	for i, v := range tools.nodeEnv {
		if v != "development" {
			t.Errorf("call %d NODE_ENV = %q, want development", i, v)
		}
	}
}

func TestPack_YarnLockSelectsYarn(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, YarnLockfile), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	tools := &fakeTools{packName: "demo-1.0.0.tgz"}

	if _, err := newTestPacker(tools).Pack(context.Background(), root); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if tools.calls[0] != "yarn" {
		t.Errorf("install call = %q, want yarn", tools.calls[0])
	}
}

func TestInstallCommand_YarnLockDirectoryIgnored(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, YarnLockfile), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := NewPacker().InstallCommand(root); got != "npm install" {
		t.Errorf("InstallCommand() = %q, want npm install", got)
	}
}

func TestPack_QuotesRootWithSpaces(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "my pkg")
	if err := os.Mkdir(root, 0o755); err != nil {
		t.Fatal(err)
	}
	tools := &fakeTools{packName: "demo-1.0.0.tgz"}

	if _, err := newTestPacker(tools).Pack(context.Background(), root); err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if got := tools.calls[1]; got != "npm pack "+root {
		t.Errorf("pack call = %q", got)
	}
}

func TestPack_MissingArchive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tools *fakeTools
	}{
		{"no_output_name", &fakeTools{}},
		{"named_file_absent", &fakeTools{packName: "demo-1.0.0.tgz", noWrite: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := newTestPacker(tt.tools).Pack(context.Background(), t.TempDir())
			if !errors.Is(err, ErrPackFailed) {
				t.Fatalf("Pack() error = %v, want ErrPackFailed", err)
			}
		})
	}
}

func TestPack_ArchiveNameFromLastLine(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	tools := &fakeTools{}
	p := NewPacker(
		WithEnviron(nil),
		WithExecMiddleware(tools.middleware),
		WithCommands(Commands{Pack: "echo first.tgz; echo; echo last.tgz; true"}),
	)
	if err := os.WriteFile(filepath.Join(root, "last.tgz"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	archive, err := p.Pack(context.Background(), root)
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if filepath.Base(archive) != "last.tgz" {
		t.Errorf("archive = %q, want last.tgz", archive)
	}
}

func TestPack_CommandFailureCarriesStderr(t *testing.T) {
	t.Parallel()

	tools := &fakeTools{packName: "x.tgz", failOn: "npm install"}
	_, err := newTestPacker(tools).Pack(context.Background(), t.TempDir())

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Pack() error = %v, want *CommandError", err)
	}
	if cmdErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", cmdErr.ExitCode)
	}
	if !strings.Contains(err.Error(), "npm ERR! boom") {
		t.Errorf("error %q does not carry stderr", err)
	}
	if len(tools.calls) != 1 {
		t.Errorf("pack ran after failed install: %q", tools.calls)
	}
}

func TestPack_SyntaxError(t *testing.T) {
	t.Parallel()

	p := NewPacker(WithCommands(Commands{Install: "npm install ("}))
	if _, err := p.Pack(context.Background(), t.TempDir()); err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Fatalf("Pack() error = %v, want parse error", err)
	}
}

func TestLastLine(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                   "",
		"a.tgz":              "a.tgz",
		"notice\na.tgz\n":    "a.tgz",
		"a.tgz\n  \n\n":      "a.tgz",
		"a\r\nb.tgz\r\n":     "b.tgz",
		"  spaced.tgz  \n\n": "spaced.tgz",
	}
	for in, want := range tests {
		if got := lastLine(in); got != want {
			t.Errorf("lastLine(%q) = %q, want %q", in, got, want)
		}
	}
}

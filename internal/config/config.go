// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"

	"github.com/npmverified/npm-verified/internal/cueutil"
	"github.com/npmverified/npm-verified/internal/issue"
)

const (
	// AppName is the application name.
	AppName = "npm-verified"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFileName is looked up in the working directory.
	LocalConfigFileName = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides (NPM_VERIFIED_REGISTRY, ...).
	EnvPrefix = "NPM_VERIFIED"
	// TokenEnv is the conventional npm token variable, used when
	// NPM_VERIFIED_REGISTRY_TOKEN is unset.
	TokenEnv = "NPM_TOKEN"
)

//go:embed config_schema.cue
var configSchema []byte

// ConfigDir returns the npm-verified configuration directory using
// platform-specific conventions: Windows uses %APPDATA%, macOS uses
// ~/Library/Application Support, and Linux/others use $XDG_CONFIG_HOME
// (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("registry_token", EnvPrefix+"_REGISTRY_TOKEN", TokenEnv); err != nil {
		return nil, fmt.Errorf("failed to bind token environment: %w", err)
	}

	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables for typos").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(err).
			BuildError()
	}
	return &cfg, nil
}

// resolvePath returns the config file to load, or "" for defaults. An
// explicit path must exist.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}
	if p := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt); fileExists(p) {
		return p, nil
	}

	if p := filepath.Join(opts.WorkDir, LocalConfigFileName); fileExists(p) {
		return p, nil
	}
	return "", nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("registry", d.Registry)
	v.SetDefault("registry_token", d.RegistryToken)
	v.SetDefault("scratch_dir", d.ScratchDir)
	v.SetDefault("build.install_command", d.Build.InstallCommand)
	v.SetDefault("build.yarn_install_command", d.Build.YarnInstallCommand)
	v.SetDefault("build.pack_command", d.Build.PackCommand)
	v.SetDefault("locate.exclude", d.Locate.Exclude)
	v.SetDefault("compare.context_lines", d.Compare.ContextLines)
	v.SetDefault("ui.format", string(d.UI.Format))
	v.SetDefault("ui.verbose", d.UI.Verbose)
	v.SetDefault("ui.color", d.UI.Color)
}

// loadCUEIntoViper validates a CUE file against #Config and merges it into
// Viper, keeping defaults for unset keys and letting env overrides win.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.ParseAndDecode[map[string]any](
		configSchema, data, "#Config",
		cueutil.WithConcrete(false),
		cueutil.WithFilename(path),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(*configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

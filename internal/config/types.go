// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

const (
	// FormatText renders a styled human report.
	FormatText Format = "text"
	// FormatJSON renders canonical JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
)

var (
	// ErrInvalidFormat is returned when a Format value is not recognized.
	ErrInvalidFormat = errors.New("invalid report format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// Format selects the report rendering.
	Format string

	// InvalidFormatError is returned when a Format value is not recognized.
	InvalidFormatError struct {
		Value Format
	}

	// InvalidConfigError collects field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Registry is the npm registry base URL.
		Registry string `json:"registry" mapstructure:"registry"`
		// RegistryToken is sent as a bearer token to the registry host.
		RegistryToken string `json:"registry_token" mapstructure:"registry_token"`
		// ScratchDir is the parent of per-run scratch roots ("" = os.TempDir()).
		ScratchDir string        `json:"scratch_dir" mapstructure:"scratch_dir"`
		Build      BuildConfig   `json:"build" mapstructure:"build"`
		Locate     LocateConfig  `json:"locate" mapstructure:"locate"`
		Compare    CompareConfig `json:"compare" mapstructure:"compare"`
		UI         UIConfig      `json:"ui" mapstructure:"ui"`

		// Path is the file the config was loaded from, empty for defaults.
		Path string `json:"-" mapstructure:"-"`
	}

	// BuildConfig holds the shell command lines used to rebuild a package.
	BuildConfig struct {
		InstallCommand     string `json:"install_command" mapstructure:"install_command"`
		YarnInstallCommand string `json:"yarn_install_command" mapstructure:"yarn_install_command"`
		PackCommand        string `json:"pack_command" mapstructure:"pack_command"`
	}

	// LocateConfig configures the package-root scan.
	LocateConfig struct {
		// Exclude lists doublestar globs of directories to skip.
		Exclude []string `json:"exclude" mapstructure:"exclude"`
	}

	// CompareConfig configures the tree comparison.
	CompareConfig struct {
		ContextLines int `json:"context_lines" mapstructure:"context_lines"`
	}

	// UIConfig configures output.
	UIConfig struct {
		Format  Format `json:"format" mapstructure:"format"`
		Verbose bool   `json:"verbose" mapstructure:"verbose"`
		Color   bool   `json:"color" mapstructure:"color"`
	}
)

// Formats lists the supported report formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// Validate returns an *InvalidFormatError for unknown formats.
func (f Format) Validate() error {
	if slices.Contains(Formats(), f) {
		return nil
	}
	return &InvalidFormatError{Value: f}
}

// String returns the string representation of the Format.
func (f Format) String() string { return string(f) }

// Error implements the error interface.
func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid report format %q (valid: text, json, yaml)", e.Value)
}

// Unwrap returns ErrInvalidFormat for errors.Is() compatibility.
func (e *InvalidFormatError) Unwrap() error { return ErrInvalidFormat }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %v", errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Registry: "https://registry.npmjs.org",
		Build: BuildConfig{
			InstallCommand:     "npm install",
			YarnInstallCommand: "yarn",
			PackCommand:        "npm pack",
		},
		Locate: LocateConfig{
			Exclude: []string{".git"},
		},
		Compare: CompareConfig{
			ContextLines: 4,
		},
		UI: UIConfig{
			Format: FormatText,
			Color:  true,
		},
	}
}

// Validate checks values the CUE schema cannot see, such as environment
// overrides and flag values applied after loading.
func (c *Config) Validate() error {
	var errs []error
	if err := c.UI.Format.Validate(); err != nil {
		errs = append(errs, err)
	}
	if u, err := url.Parse(c.Registry); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("registry: %q is not an http(s) URL", c.Registry))
	}
	if c.Compare.ContextLines < 0 {
		errs = append(errs, fmt.Errorf("compare.context_lines: must be >= 0, got %d", c.Compare.ContextLines))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

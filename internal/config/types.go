// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/devsoap/devlaunch/internal/webapp"
)

const (
	// FormatterText is the human-readable charm log format.
	FormatterText LogFormatter = "text"
	// FormatterLogfmt emits key=value lines.
	FormatterLogfmt LogFormatter = "logfmt"
	// FormatterJSON emits one JSON object per line.
	FormatterJSON LogFormatter = "json"

	// OutputStyleExpanded is the readable CSS style.
	OutputStyleExpanded OutputStyle = "expanded"
	// OutputStyleCompressed strips whitespace from the CSS.
	OutputStyleCompressed OutputStyle = "compressed"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidLogFormatter is returned when a LogFormatter value is not recognized.
	ErrInvalidLogFormatter = errors.New("invalid log formatter")
	// ErrInvalidOutputStyle is returned when an OutputStyle value is not recognized.
	ErrInvalidOutputStyle = errors.New("invalid output style")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogFormatter selects the charm log output format.
	LogFormatter string

	// OutputStyle selects the CSS output style of the stylesheet compiler.
	OutputStyle string

	// ColorScheme selects the style used to render issue guides.
	ColorScheme string

	// Config holds the devlaunch configuration.
	Config struct {
		// Server configures the dev server runtime.
		Server ServerConfig `json:"server" mapstructure:"server"`
		// Log configures the process logger.
		Log LogConfig `json:"log" mapstructure:"log"`
		// Sass configures the stylesheet compiler.
		Sass SassConfig `json:"sass" mapstructure:"sass"`
		// UI configures user-facing output.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// ServerConfig configures the dev server.
	ServerConfig struct {
		// Host is the bind address; empty binds every interface.
		Host string `json:"host" mapstructure:"host"`
		// ShutdownTimeout bounds the graceful shutdown.
		ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
		// ReadHeaderTimeout bounds reading request headers.
		ReadHeaderTimeout time.Duration `json:"read_header_timeout" mapstructure:"read_header_timeout"`
		// ContainerIncludePattern is matched against classpath directories
		// to decide which are scanned for annotations.
		ContainerIncludePattern string `json:"container_include_pattern" mapstructure:"container_include_pattern"`
		// DirAllowed enables directory listings.
		DirAllowed bool `json:"dir_allowed" mapstructure:"dir_allowed"`
		// MetricsPath mounts the Prometheus handler when non-empty.
		MetricsPath string `json:"metrics_path" mapstructure:"metrics_path"`
		// IntrospectionPath mounts the JSON context description when non-empty.
		IntrospectionPath string `json:"introspection_path" mapstructure:"introspection_path"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level      string       `json:"level" mapstructure:"level"`
		Formatter  LogFormatter `json:"formatter" mapstructure:"formatter"`
		Timestamps bool         `json:"timestamps" mapstructure:"timestamps"`
	}

	// SassConfig configures the stylesheet compiler.
	SassConfig struct {
		// Binary is the Dart Sass executable; empty means look up "sass" on PATH.
		Binary        string        `json:"binary" mapstructure:"binary"`
		OutputStyle   OutputStyle   `json:"output_style" mapstructure:"output_style"`
		Timeout       time.Duration `json:"timeout" mapstructure:"timeout"`
		WatchDebounce time.Duration `json:"watch_debounce" mapstructure:"watch_debounce"`
	}

	// UIConfig configures user-facing output.
	UIConfig struct {
		// Verbose includes error chains and issue guides.
		Verbose     bool        `json:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme"`
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for error chain matching.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// Validate returns nil if the LogFormatter is one of the supported formats.
func (f LogFormatter) Validate() error {
	switch f {
	case FormatterText, FormatterLogfmt, FormatterJSON:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected text, logfmt or json)", ErrInvalidLogFormatter, string(f))
	}
}

// Validate returns nil if the OutputStyle is supported.
func (s OutputStyle) Validate() error {
	switch s {
	case OutputStyleExpanded, OutputStyleCompressed:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected expanded or compressed)", ErrInvalidOutputStyle, string(s))
	}
}

// Validate returns nil if the ColorScheme is supported.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return fmt.Errorf("%w: %q (expected auto, dark or light)", ErrInvalidColorScheme, string(c))
	}
}

// GlamourStyle maps the scheme to a glamour standard style name.
func (c ColorScheme) GlamourStyle() string {
	switch c {
	case ColorSchemeDark:
		return "dark"
	case ColorSchemeLight:
		return "light"
	default:
		return "auto"
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ShutdownTimeout:         10 * time.Second,
			ReadHeaderTimeout:       10 * time.Second,
			ContainerIncludePattern: webapp.DefaultContainerIncludePattern,
			DirAllowed:              true,
		},
		Log: LogConfig{
			Level:      "info",
			Formatter:  FormatterText,
			Timestamps: true,
		},
		Sass: SassConfig{
			OutputStyle:   OutputStyleExpanded,
			Timeout:       30 * time.Second,
			WatchDebounce: 500 * time.Millisecond,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// Validate checks the constraints the schema cannot see, such as values
// arriving from the environment and regular expression syntax.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be positive, got %s", c.Server.ShutdownTimeout))
	}
	if c.Server.ReadHeaderTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_header_timeout must be positive, got %s", c.Server.ReadHeaderTimeout))
	}
	if _, err := regexp.Compile(c.Server.ContainerIncludePattern); err != nil {
		errs = append(errs, fmt.Errorf("server.container_include_pattern: %w", err))
	}
	for _, route := range []struct{ key, path string }{
		{"server.metrics_path", c.Server.MetricsPath},
		{"server.introspection_path", c.Server.IntrospectionPath},
	} {
		if route.path != "" && !strings.HasPrefix(route.path, "/") {
			errs = append(errs, fmt.Errorf("%s must start with '/', got %q", route.key, route.path))
		}
	}
	if c.Server.MetricsPath != "" && c.Server.MetricsPath == c.Server.IntrospectionPath {
		errs = append(errs, fmt.Errorf("server.metrics_path and server.introspection_path must differ, both are %q", c.Server.MetricsPath))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if err := c.Log.Formatter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log.formatter: %w", err))
	}

	if err := c.Sass.OutputStyle.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sass.output_style: %w", err))
	}
	if c.Sass.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("sass.timeout must be positive, got %s", c.Sass.Timeout))
	}
	if c.Sass.WatchDebounce < 0 {
		errs = append(errs, fmt.Errorf("sass.watch_debounce must not be negative, got %s", c.Sass.WatchDebounce))
	}

	if err := c.UI.ColorScheme.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("ui.color_scheme: %w", err))
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

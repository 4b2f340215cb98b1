// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/devsoap/devlaunch/internal/issue"
)

const (
	// AppName names the per-user config directory.
	AppName = "devlaunch"
	// ConfigFileName is the per-user config file name without extension.
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// TOMLFileExt is the alternative config file extension. TOML files are
	// checked against the same schema.
	TOMLFileExt = "toml"
	// LocalConfigFile is the project-local config file looked up in the working directory.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides, e.g. DEVLAUNCH_SERVER_HOST.
	EnvPrefix = "DEVLAUNCH"

	maxConfigFileSize = 1 << 20
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the per-user devlaunch directory: %APPDATA% on Windows,
// ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (or ~/.config)
// elsewhere.
//
//nolint:revive // config.Dir would read as the directory of the config package
func ConfigDir() (string, error) {
	if dir := configDirOverride(); dir != "" {
		return dir, nil
	}

	var root string
	switch runtime.GOOS {
	case "windows":
		root = os.Getenv("APPDATA")
		if root == "" {
			root = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		root = filepath.Join(home, "Library", "Application Support")
	default:
		if root = os.Getenv("XDG_CONFIG_HOME"); root == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			root = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(root, AppName), nil
}

// loadWithOptions resolves, validates and decodes the configuration. The
// returned path is the file that was merged, empty when only defaults and
// the environment applied.
//
// Precedence, highest first: DEVLAUNCH_* environment, the config file,
// DefaultConfig.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("load config canceled: %w", err)
	}

	v := newViper()

	path, err := findConfigFile(opts)
	if err != nil {
		return nil, "", err
	}
	if path != "" {
		if err := loadFileIntoViper(v, path); err != nil {
			return nil, "", loadError("load configuration", path, err,
				"Check that the file contains valid CUE or TOML syntax",
				"Verify the configuration values match the expected schema")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", loadError("validate configuration", path, err,
			"Check environment variables starting with "+EnvPrefix+"_",
			"Durations use Go syntax such as 5s or 250ms")
	}
	return &cfg, path, nil
}

// newViper returns a Viper instance carrying the defaults and the
// environment binding.
func newViper() *viper.Viper {
	v := viper.New()
	d := DefaultConfig()
	for key, value := range map[string]any{
		"server.host":                      d.Server.Host,
		"server.shutdown_timeout":          d.Server.ShutdownTimeout,
		"server.read_header_timeout":       d.Server.ReadHeaderTimeout,
		"server.container_include_pattern": d.Server.ContainerIncludePattern,
		"server.dir_allowed":               d.Server.DirAllowed,
		"server.metrics_path":              d.Server.MetricsPath,
		"server.introspection_path":        d.Server.IntrospectionPath,
		"log.level":                        d.Log.Level,
		"log.formatter":                    string(d.Log.Formatter),
		"log.timestamps":                   d.Log.Timestamps,
		"sass.binary":                      d.Sass.Binary,
		"sass.output_style":                string(d.Sass.OutputStyle),
		"sass.timeout":                     d.Sass.Timeout,
		"sass.watch_debounce":              d.Sass.WatchDebounce,
		"ui.verbose":                       d.UI.Verbose,
		"ui.color_scheme":                  string(d.UI.ColorScheme),
	} {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// findConfigFile returns the file to merge. An explicit path must exist;
// otherwise the per-user file wins over the project-local one and CUE wins
// over TOML in the same directory. No file at all is fine, and neither is an
// unresolvable per-user directory.
func findConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", loadError("load configuration", opts.ConfigFilePath,
				fmt.Errorf("config file not found: %s", opts.ConfigFilePath),
				"Verify the file path is correct",
				"Check that the file exists and is readable")
		}
		return opts.ConfigFilePath, nil
	}

	var candidates []string
	dir := opts.ConfigDirPath
	if dir == "" {
		var err error
		if dir, err = ConfigDir(); err != nil {
			// The per-user directory is optional; without a home there is
			// still the project-local file.
			if opts.Logger != nil {
				opts.Logger.Debug("skipping per-user config directory", "err", err)
			}
		}
	}
	if dir != "" {
		candidates = append(candidates,
			filepath.Join(dir, ConfigFileName+"."+ConfigFileExt),
			filepath.Join(dir, ConfigFileName+"."+TOMLFileExt))
	}
	candidates = append(candidates,
		filepath.Join(opts.WorkDir, LocalConfigFile),
		filepath.Join(opts.WorkDir, AppName+"."+TOMLFileExt))

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", nil
}

func loadError(op, resource string, cause error, suggestions ...string) error {
	ec := issue.NewErrorContext().
		WithOperation(op).
		WithResource(resource).
		WithIssue(issue.ConfigLoadFailedId).
		Wrap(cause)
	for _, s := range suggestions {
		ec.WithSuggestion(s)
	}
	return ec.BuildError()
}

// loadFileIntoViper checks path against #Config and merges it into v.
// The file is decoded to a map rather than a struct so that keys it leaves
// out keep their defaults and environment overrides.
func loadFileIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return fmt.Errorf("%s: file size %d bytes exceeds maximum %d bytes", path, len(data), maxConfigFileSize)
	}

	cctx := cuecontext.New()
	schema := cctx.CompileString(configSchema)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", err)
	}

	user, err := compileUserFile(cctx, path, data)
	if err != nil {
		return err
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var values map[string]any
	if err := unified.Decode(&values); err != nil {
		return formatCUEError(err, path)
	}
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// compileUserFile turns the file into a CUE value. TOML is decoded first and
// encoded into the same context so that it unifies with the schema.
func compileUserFile(cctx *cue.Context, path string, data []byte) (cue.Value, error) {
	if !strings.EqualFold(filepath.Ext(path), "."+TOMLFileExt) {
		user := cctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return cue.Value{}, formatCUEError(err, path)
		}
		return user, nil
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return cue.Value{}, fmt.Errorf("%s:%d:%d: %s", path, row, col, derr.Error())
		}
		return cue.Value{}, fmt.Errorf("%s: %w", path, err)
	}
	user := cctx.Encode(doc)
	if err := user.Err(); err != nil {
		return cue.Value{}, formatCUEError(err, path)
	}
	return user, nil
}

// fileExists reports whether path names a regular file or symlink to one.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devsoap/devlaunch/pkg/types"
)

const (
	// MinArgs is the number of required positional arguments.
	MinArgs = 4
	// MaxArgs includes the reserved trailing log-level slot.
	MaxArgs = 5

	// ClassDirSeparator splits the class-directories argument.
	ClassDirSeparator = ","
)

// ErrInvalidArguments is the sentinel error wrapped by ArgumentError.
var ErrInvalidArguments = errors.New("invalid launcher arguments")

type (
	// LaunchConfig is the parsed invocation. It is immutable after ParseArgs.
	LaunchConfig struct {
		port         types.ListenPort
		webAppDir    types.FilesystemPath
		classDirs    []types.FilesystemPath
		resourcesDir types.FilesystemPath
		logLevel     string
	}

	// ArgumentError describes a missing or malformed positional argument.
	ArgumentError struct {
		// Arg is the argument name, empty for arity errors.
		Arg string
		// Got is the number of arguments received.
		Got int
		Err error
	}
)

// ParseArgs parses [port, webAppDir, classDirs, resourcesDir, (logLevel)].
//
// classDirs is split on commas without trimming or deduplication; empty
// segments are preserved, so an empty argument yields one empty entry.
// The optional fifth argument is kept in LogLevel and otherwise ignored.
func ParseArgs(args []string) (LaunchConfig, error) {
	if len(args) < MinArgs || len(args) > MaxArgs {
		return LaunchConfig{}, &ArgumentError{Got: len(args)}
	}

	port, err := types.ParseListenPort(args[0])
	if err != nil {
		return LaunchConfig{}, &ArgumentError{Arg: "port", Got: len(args), Err: err}
	}
	if port.IsEphemeral() {
		return LaunchConfig{}, &ArgumentError{
			Arg: "port", Got: len(args),
			Err: &types.InvalidListenPortError{Raw: args[0], Value: port},
		}
	}

	webAppDir := types.FilesystemPath(args[1])
	if err := webAppDir.Validate("webAppDir"); err != nil {
		return LaunchConfig{}, &ArgumentError{Arg: "webAppDir", Got: len(args), Err: err}
	}

	resourcesDir := types.FilesystemPath(args[3])
	if err := resourcesDir.Validate("resourcesDir"); err != nil {
		return LaunchConfig{}, &ArgumentError{Arg: "resourcesDir", Got: len(args), Err: err}
	}

	segments := strings.Split(args[2], ClassDirSeparator)
	classDirs := make([]types.FilesystemPath, len(segments))
	for i, s := range segments {
		classDirs[i] = types.FilesystemPath(s)
	}

	cfg := LaunchConfig{
		port:         port,
		webAppDir:    webAppDir,
		classDirs:    classDirs,
		resourcesDir: resourcesDir,
	}
	if len(args) == MaxArgs {
		cfg.logLevel = args[4]
	}
	return cfg, nil
}

// Port returns the listen port.
func (c LaunchConfig) Port() types.ListenPort { return c.port }

// WebAppDir returns the web application directory.
func (c LaunchConfig) WebAppDir() types.FilesystemPath { return c.webAppDir }

// ClassDirs returns a copy of the ordered class directories.
func (c LaunchConfig) ClassDirs() []types.FilesystemPath {
	out := make([]types.FilesystemPath, len(c.classDirs))
	copy(out, c.classDirs)
	return out
}

// ResourcesDir returns the resources directory.
func (c LaunchConfig) ResourcesDir() types.FilesystemPath { return c.resourcesDir }

// LogLevel returns the reserved fifth argument. It has no effect.
func (c LaunchConfig) LogLevel() string { return c.logLevel }

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("expected %d or %d arguments (port webAppDir classDirs resourcesDir [logLevel]), got %d",
			MinArgs, MaxArgs, e.Got)
	}
	return fmt.Sprintf("argument %s: %v", e.Arg, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *ArgumentError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidArguments}
	}
	return []error{ErrInvalidArguments, e.Err}
}

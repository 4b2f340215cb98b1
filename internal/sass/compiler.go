// SPDX-License-Identifier: MPL-2.0

package sass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/shell"

	"github.com/devsoap/devlaunch/pkg/types"
)

// DefaultBinary is looked up on PATH when no compiler binary is configured.
const DefaultBinary = "sass"

var (
	// ErrCompilerNotFound is returned when no Dart Sass binary can be located.
	ErrCompilerNotFound = errors.New("dart sass compiler not found")
	// ErrInputNotFound is returned when the resolved stylesheet does not exist.
	ErrInputNotFound = errors.New("stylesheet not found")
)

type (
	// Transpiler is the subset of the Dart Sass embedded host used here.
	Transpiler interface {
		Execute(args godartsass.Args) (godartsass.Result, error)
		Close() error
	}

	// Options configures a Compiler.
	Options struct {
		// OutputStyle is "expanded" or "compressed". Empty means expanded.
		OutputStyle string
		// Logger receives progress messages. Nil discards them.
		Logger *log.Logger
	}

	// Compiler compiles Requests with a Transpiler. It is safe for
	// sequential use; watch mode never overlaps compilations.
	Compiler struct {
		transpiler Transpiler
		style      godartsass.OutputStyle
		logger     *log.Logger
	}

	// CompileError reports a failed compilation of Input.
	CompileError struct {
		Input types.FilesystemPath
		Err   error
	}

	// StartOptions configures StartTranspiler.
	StartOptions struct {
		// Binary is the Dart Sass executable. Empty means DefaultBinary on PATH.
		Binary string
		// Timeout bounds a single compilation. Zero keeps the library default.
		Timeout time.Duration
		// Logger receives @warn and @debug output of the stylesheets.
		Logger *log.Logger
	}
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	return fmt.Sprintf("compile %s: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error.
func (e *CompileError) Unwrap() error { return e.Err }

// New creates a Compiler.
func New(t Transpiler, opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	style := godartsass.OutputStyleExpanded
	if strings.EqualFold(opts.OutputStyle, "compressed") {
		style = godartsass.OutputStyleCompressed
	}
	return &Compiler{transpiler: t, style: style, logger: logger}
}

// Close stops the transpiler.
func (c *Compiler) Close() error {
	return c.transpiler.Close()
}

// Compile writes the CSS and source map for req. The output files are
// created up front so the build sees them even before the first successful
// compilation; on any failure both are removed.
func (c *Compiler) Compile(ctx context.Context, req Request) (err error) {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("compile canceled: %w", err)
	}

	output, sourceMap := req.Output, req.SourceMap()
	for _, p := range []types.FilesystemPath{output, sourceMap} {
		if err := ensureFile(p); err != nil {
			return err
		}
	}
	defer func() {
		if err != nil {
			removeQuietly(output, c.logger)
			removeQuietly(sourceMap, c.logger)
		}
	}()

	input := req.ResolveInput()
	source, err := os.ReadFile(string(input))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &CompileError{Input: input, Err: ErrInputNotFound}
		}
		return &CompileError{Input: input, Err: err}
	}

	absInput, err := filepath.Abs(string(input))
	if err != nil {
		return &CompileError{Input: input, Err: err}
	}

	args := godartsass.Args{
		Source:                  string(source),
		URL:                     fileURL(absInput),
		OutputStyle:             c.style,
		SourceSyntax:            syntaxOf(input),
		IncludePaths:            []string{string(req.ThemeDir()), string(req.UnpackedThemes)},
		EnableSourceMap:         true,
		SourceMapIncludeSources: true,
	}

	started := time.Now()
	res, err := c.transpiler.Execute(args)
	if err != nil {
		return &CompileError{Input: input, Err: err}
	}

	css := res.CSS + "\n\n/*# sourceMappingURL=" + sourceMap.Base() + " */\n"
	if err := writeFile(string(output), []byte(css)); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	if err := writeFile(string(sourceMap), []byte(res.SourceMap)); err != nil {
		return fmt.Errorf("write %s: %w", sourceMap, err)
	}

	c.logger.Info("compiled stylesheet", "input", input, "output", output, "took", time.Since(started).Round(time.Millisecond))
	return nil
}

// StartTranspiler locates the Dart Sass binary and starts the embedded host.
func StartTranspiler(opts StartOptions) (Transpiler, error) {
	bin, err := LookupBinary(opts.Binary)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: bin,
		Timeout:                  opts.Timeout,
		LogEventHandler: func(e godartsass.LogEvent) {
			switch e.Type {
			case godartsass.LogEventTypeDebug:
				logger.Debug(e.Message)
			default:
				logger.Warn(e.Message)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start dart sass %s: %w", bin, err)
	}
	return t, nil
}

// LookupBinary resolves the configured binary, or DefaultBinary, on PATH.
// Environment references such as $HOME/bin/sass are expanded first.
func LookupBinary(configured string) (string, error) {
	name := configured
	if name == "" {
		name = DefaultBinary
	}
	name, err := shell.Expand(name, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCompilerNotFound, configured, err)
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrCompilerNotFound, name, err)
	}
	return path, nil
}

func syntaxOf(p types.FilesystemPath) godartsass.SourceSyntax {
	switch {
	case isIndented(p):
		return godartsass.SourceSyntaxSASS
	case strings.EqualFold(filepath.Ext(string(p)), ".css"):
		return godartsass.SourceSyntaxCSS
	default:
		return godartsass.SourceSyntaxSCSS
	}
}

func fileURL(abs string) string {
	p := filepath.ToSlash(abs)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// ensureFile creates p, and its parent directories, when it does not exist.
func ensureFile(p types.FilesystemPath) error {
	if p.Exists() {
		return nil
	}
	if err := os.MkdirAll(string(p.Dir()), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", p, err)
	}
	f, err := os.OpenFile(string(p), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", p, err)
	}
	return f.Close()
}

func removeQuietly(p types.FilesystemPath, logger *log.Logger) {
	if err := os.Remove(string(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("remove after failed compile", "path", p, "err", err)
	}
}

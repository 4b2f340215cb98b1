// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/devsoap/devlaunch/internal/cli"
	"github.com/devsoap/devlaunch/internal/config"
	"github.com/devsoap/devlaunch/internal/issue"
	"github.com/devsoap/devlaunch/internal/logging"
	"github.com/devsoap/devlaunch/internal/sass"
	"github.com/devsoap/devlaunch/internal/watch"
	"github.com/devsoap/devlaunch/pkg/types"
)

type options struct {
	cfgFile string
	verbose bool
	watch   bool
}

// startTranspiler is replaced in tests.
var startTranspiler = sass.StartTranspiler

func execute(ctx context.Context) types.ExitCode {
	r := &cli.Renderer{}
	return cli.Execute(ctx, newRootCommand(r), r)
}

func newRootCommand(r *cli.Renderer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "compiler <input> <output> <unpackedThemes>",
		Short: "Compile a theme stylesheet with Dart Sass",
		Long: cli.TitleStyle.Render("compiler") + cli.SubtitleStyle.Render(" - theme stylesheet compiler") + `

Compiles <unpackedThemes>/<theme>/<file>, where theme and file are taken
from <input>, into <output> and <output>.map. Both files are created before
compiling and removed if compilation fails.

` + cli.SubtitleStyle.Render("Example:") + `
  ` + cli.CmdStyle.Render("compiler src/main/themes/mytheme/styles.scss build/styles.css build/unpacked-themes") + `
  ` + cli.CmdStyle.Render("compiler --watch src/main/themes/mytheme/styles.scss build/styles.css build/unpacked-themes"),
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &opts, r)
		},
	}

	cmd.Flags().StringVar(&opts.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/devlaunch/config.cue, then ./devlaunch.cue)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show error chains and issue guides")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "recompile when the theme changes")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options, r *cli.Renderer) error {
	ctx := cmd.Context()
	r.Verbose = opts.verbose

	var req sass.Request
	err := fmt.Errorf("%w: expected 3 arguments, got %d", sass.ErrInvalidRequest, len(args))
	if len(args) == 3 {
		req, err = sass.NewRequest(args[0], args[1], args[2])
	}
	if err != nil {
		return &cli.ExitError{
			Code: types.ExitUsage,
			Err: issue.NewErrorContext().
				WithOperation("parse arguments").
				WithSuggestion("Usage: " + cmd.UseLine()).
				Wrap(err).
				BuildError(),
		}
	}

	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: opts.cfgFile})
	if err != nil {
		return &cli.ExitError{Code: types.ExitUsage, Err: err}
	}
	r.Verbose = r.Verbose || cfg.UI.Verbose
	r.GuideStyle = cfg.UI.ColorScheme.GlamourStyle()

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:      cfg.Log.Level,
		Formatter:  string(cfg.Log.Formatter),
		Timestamps: cfg.Log.Timestamps,
		Prefix:     "compiler",
	})
	if err != nil {
		return &cli.ExitError{Code: types.ExitUsage, Err: err}
	}

	transpiler, err := startTranspiler(sass.StartOptions{
		Binary:  cfg.Sass.Binary,
		Timeout: cfg.Sass.Timeout,
		Logger:  logger,
	})
	if err != nil {
		return &cli.ExitError{Code: types.ExitFailure, Err: compileError(err, req)}
	}

	compiler := sass.New(transpiler, sass.Options{
		OutputStyle: string(cfg.Sass.OutputStyle),
		Logger:      logger,
	})
	defer func() {
		if err := compiler.Close(); err != nil {
			logger.Warn("close dart sass", "err", err)
		}
	}()

	if !opts.watch {
		if err := compiler.Compile(ctx, req); err != nil {
			return &cli.ExitError{Code: types.ExitFailure, Err: compileError(err, req)}
		}
		return nil
	}

	return watchAndCompile(ctx, compiler, req, cfg, logger)
}

// watchAndCompile compiles once, then on every change under the unpacked
// theme directory until ctx is cancelled. Failed compilations are reported
// and watching continues.
func watchAndCompile(ctx context.Context, compiler *sass.Compiler, req sass.Request, cfg *config.Config, logger *log.Logger) error {
	if err := compiler.Compile(ctx, req); err != nil {
		logger.Error("compile failed", "err", err)
	}

	w, err := watch.New(watch.Config{
		BaseDir:  string(req.ThemeDir()),
		Patterns: watch.StylesheetPatterns,
		Debounce: cfg.Sass.WatchDebounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, changed []string) error {
			logger.Info("recompiling", "changed", changed)
			return compiler.Compile(ctx, req)
		},
	})
	if err != nil {
		return &cli.ExitError{Code: types.ExitFailure, Err: err}
	}

	logger.Info("watching for changes", "dir", w.BaseDir())
	if err := w.Run(ctx); err != nil {
		return &cli.ExitError{Code: types.ExitFailure, Err: err}
	}
	return nil
}

func compileError(err error, req sass.Request) error {
	ec := issue.NewErrorContext().WithOperation("compile stylesheet").Wrap(err)
	switch {
	case errors.Is(err, sass.ErrCompilerNotFound):
		ec.WithOperation("start stylesheet compiler").
			WithSuggestion("Install Dart Sass or set sass.binary in the configuration").
			WithIssue(issue.SassCompilerNotFoundId)
	case errors.Is(err, sass.ErrInputNotFound):
		ec.WithResource(string(req.ResolveInput())).
			WithSuggestion("Check that the themes were unpacked before compiling").
			WithIssue(issue.StylesheetInputNotFoundId)
	default:
		ec.WithResource(string(req.ResolveInput())).
			WithIssue(issue.StylesheetCompileFailedId)
	}
	return ec.BuildError()
}

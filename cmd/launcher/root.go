// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/devsoap/devlaunch/internal/cli"
	"github.com/devsoap/devlaunch/internal/config"
	"github.com/devsoap/devlaunch/internal/core/serverbase"
	"github.com/devsoap/devlaunch/internal/devserver"
	"github.com/devsoap/devlaunch/internal/issue"
	"github.com/devsoap/devlaunch/internal/launch"
	"github.com/devsoap/devlaunch/internal/lifecycle"
	"github.com/devsoap/devlaunch/internal/logging"
	"github.com/devsoap/devlaunch/internal/webapp"
	"github.com/devsoap/devlaunch/pkg/types"
)

// hookTarget selects the core the lifecycle hook is installed on; replaced
// in tests.
var hookTarget = func(srv *devserver.Server) any { return srv }

type options struct {
	cfgFile string
	verbose bool
}

func execute(ctx context.Context) types.ExitCode {
	r := &cli.Renderer{}
	return cli.Execute(ctx, newRootCommand(r), r)
}

func newRootCommand(r *cli.Renderer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "launcher <port> <webAppDir> <classDirs> <resourcesDir> [logLevel]",
		Short: "Run a web application in a development server",
		Long: cli.TitleStyle.Render("launcher") + cli.SubtitleStyle.Render(" - development server with lifecycle tokens") + `

Serves the static resources of a web application and reports its lifecycle
on the log as tokens a build tool can wait for:

  Jetty starting, Jetty started, Jetty error, Jetty stopping, Jetty stopped

` + cli.SubtitleStyle.Render("Arguments:") + `
  port           TCP port to listen on (1-65535)
  webAppDir      web application root, used only if it is a directory
  classDirs      comma separated class output directories
  resourcesDir   processed resources directory
  logLevel       reserved, accepted and ignored

` + cli.SubtitleStyle.Render("Example:") + `
  ` + cli.CmdStyle.Render("launcher 8080 src/main/webapp build/classes/java/main build/resources/main"),
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, &opts, r)
		},
	}

	cmd.Flags().StringVar(&opts.cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/devlaunch/config.cue, then ./devlaunch.cue)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show error chains and issue guides")

	return cmd
}

func run(cmd *cobra.Command, args []string, opts *options, r *cli.Renderer) error {
	ctx := cmd.Context()
	r.Verbose = opts.verbose

	launchCfg, err := launch.ParseArgs(args)
	if err != nil {
		return &cli.ExitError{
			Code: types.ExitUsage,
			Err: issue.NewErrorContext().
				WithOperation("parse arguments").
				WithSuggestion("Usage: " + cmd.UseLine()).
				WithIssue(issue.InvalidArgumentsId).
				Wrap(err).
				BuildError(),
		}
	}

	cfg, source, err := config.NewProvider().LoadWithSource(ctx, config.LoadOptions{ConfigFilePath: opts.cfgFile})
	if err != nil {
		return &cli.ExitError{Code: types.ExitUsage, Err: err}
	}
	r.Verbose = r.Verbose || cfg.UI.Verbose
	r.GuideStyle = cfg.UI.ColorScheme.GlamourStyle()

	logger, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:      cfg.Log.Level,
		Formatter:  string(cfg.Log.Formatter),
		Timestamps: cfg.Log.Timestamps,
		Prefix:     "launcher",
	})
	if err != nil {
		return &cli.ExitError{Code: types.ExitUsage, Err: err}
	}
	if source != "" {
		logger.Debug("configuration loaded", "file", source)
	}
	if lvl := launchCfg.LogLevel(); lvl != "" {
		logger.Debug("log level argument is reserved and ignored", "logLevel", lvl)
	}

	roots := launch.ResolveResources(launchCfg, logger)
	wctx := webapp.NewContext(roots, webapp.Options{
		ContainerIncludePattern: cfg.Server.ContainerIncludePattern,
		DirAllowed:              cfg.Server.DirAllowed,
		Logger:                  logger,
	})

	srv := devserver.New(devserver.Config{
		Host:              cfg.Server.Host,
		Port:              launchCfg.Port(),
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		MetricsPath:       cfg.Server.MetricsPath,
		IntrospectionPath: cfg.Server.IntrospectionPath,
	}, devserver.NewWebApp(wctx, logger), devserver.WithLogger(logger))

	reporter := lifecycle.NewReporter(logger)
	strategy, err := lifecycle.Install(hookTarget(srv), reporter)
	if err != nil {
		reporter.ReportHookFailure(err)
		return &cli.ExitError{
			Code: types.ExitHookUnavailable,
			Err: issue.NewErrorContext().
				WithOperation("install lifecycle hook").
				WithResource(serverbase.ListenerAPI).
				WithIssue(issue.HookUnavailableId).
				Wrap(err).
				BuildError(),
		}
	}
	logger.Debug("lifecycle hook installed", "strategy", strategy, "listeners", srv.ListenerCount())

	if err := srv.Start(ctx); err != nil {
		return &cli.ExitError{Code: types.ExitFailure, Err: startError(err, launchCfg.Port())}
	}
	if err := srv.Join(); err != nil {
		return &cli.ExitError{Code: types.ExitFailure, Err: err}
	}
	return nil
}

// startError attaches remediation hints to the failures a developer can fix.
func startError(err error, port types.ListenPort) error {
	var stageErr *webapp.StageError
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		return issue.NewErrorContext().
			WithOperation("start dev server").
			WithResource(fmt.Sprintf("port %s", port)).
			WithSuggestion("Stop the process using the port or choose another one").
			WithIssue(issue.PortInUseId).
			Wrap(err).
			BuildError()
	case errors.As(err, &stageErr):
		return issue.NewErrorContext().
			WithOperation("configure web application").
			WithResource(string(stageErr.Stage)).
			WithIssue(issue.WebAppConfigFailedId).
			Wrap(err).
			BuildError()
	default:
		return err
	}
}

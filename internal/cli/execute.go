// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/devsoap/devlaunch/internal/issue"
	"github.com/devsoap/devlaunch/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// VersionString returns a formatted version string for display.
func VersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Renderer decides how much detail errors are printed with. The commands
// fill it in once configuration is loaded.
type Renderer struct {
	// Verbose adds the error chain and the linked issue guide.
	Verbose bool
	// GuideStyle is the glamour style for issue guides.
	GuideStyle string
}

// Execute runs root with fang and returns the process exit code. SIGINT and
// SIGTERM cancel the command context.
func Execute(ctx context.Context, root *cobra.Command, r *Renderer) types.ExitCode {
	err := fang.Execute(
		ctx,
		root,
		fang.WithVersion(VersionString()),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			r.Print(w, err)
		}),
	)
	return ExitCodeOf(err)
}

// Print writes err for a user. An ExitError without a cause prints nothing,
// the command has already reported.
func (r *Renderer) Print(w io.Writer, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	fmt.Fprintln(w, ErrorStyle.Render("Error: ")+FormatError(err, r.Verbose))

	if !r.Verbose {
		return
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.Issue == 0 {
		return
	}
	guide := issue.Get(ae.Issue)
	if guide == nil {
		return
	}
	style := r.GuideStyle
	if style == "" {
		style = "auto"
	}
	rendered, renderErr := guide.Render(style)
	if renderErr != nil {
		fmt.Fprintln(w, VerboseStyle.Render("(issue guide unavailable: "+renderErr.Error()+")"))
		return
	}
	fmt.Fprint(w, rendered)
}

// FormatError formats an error for user display.
// An ActionableError contributes its suggestions, and in verbose mode the full chain.
func FormatError(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

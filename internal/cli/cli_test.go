// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/devsoap/devlaunch/internal/issue"
	"github.com/devsoap/devlaunch/pkg/types"
)

func TestExitCodeOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want types.ExitCode
	}{
		{"nil", nil, types.ExitOK},
		{"plain", errors.New("x"), types.ExitFailure},
		{"usage", &ExitError{Code: types.ExitUsage}, types.ExitUsage},
		{"wrapped hook", fmt.Errorf("run: %w", &ExitError{Code: types.ExitHookUnavailable}), types.ExitHookUnavailable},
	}
	for _, tt := range tests {
		if got := ExitCodeOf(tt.err); got != tt.want {
			t.Errorf("%s: ExitCodeOf() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestExitError_Message(t *testing.T) {
	t.Parallel()

	if got := (&ExitError{Code: 3}).Error(); got != "exit status 3" {
		t.Errorf("Error() = %q", got)
	}
	cause := errors.New("boom")
	e := &ExitError{Code: 1, Err: cause}
	if e.Error() != "boom" || !errors.Is(e, cause) {
		t.Errorf("ExitError should present and unwrap its cause")
	}
}

func actionable() error {
	return &ExitError{
		Code: types.ExitUsage,
		Err: issue.NewErrorContext().
			WithOperation("parse arguments").
			WithSuggestion("Pass a port between 1 and 65535").
			WithIssue(issue.InvalidArgumentsId).
			Wrap(errors.New("invalid listen port \"x\"")).
			BuildError(),
	}
}

func TestRenderer_Print(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	(&Renderer{}).Print(&buf, actionable())
	out := buf.String()

	for _, want := range []string{"Error: ", "failed to parse arguments", "Pass a port between 1 and 65535"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Error chain") {
		t.Errorf("non-verbose output should not include the chain:\n%s", out)
	}
}

func TestRenderer_PrintVerbose(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	(&Renderer{Verbose: true, GuideStyle: "notty"}).Print(&buf, actionable())
	out := buf.String()

	if !strings.Contains(out, "Error chain:") {
		t.Errorf("verbose output should include the chain:\n%s", out)
	}
	if !strings.Contains(out, "invalid arguments") {
		t.Errorf("verbose output should include the issue guide:\n%s", out)
	}
}

func TestRenderer_SilentExitError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	(&Renderer{}).Print(&buf, &ExitError{Code: types.ExitFailure})
	if buf.Len() != 0 {
		t.Errorf("bare ExitError should print nothing, got %q", buf.String())
	}
}

func TestVersionString(t *testing.T) {
	t.Parallel()

	if Version == "dev" && VersionString() != "dev (built from source)" {
		t.Errorf("VersionString() = %q", VersionString())
	}
}

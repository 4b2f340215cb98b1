// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "start dev server"},
			want: "failed to start dev server",
		},
		{
			name: "with resource",
			err:  &ActionableError{Operation: "load configuration", Resource: "devlaunch.cue"},
			want: "failed to load configuration: devlaunch.cue",
		},
		{
			name: "with resource and cause",
			err: &ActionableError{
				Operation: "listen",
				Resource:  ":8080",
				Cause:     errors.New("address already in use"),
			},
			want: "failed to listen: :8080: address already in use",
		},
		{
			name: "cause without resource",
			err:  &ActionableError{Operation: "compile stylesheet", Cause: errors.New("boom")},
			want: "failed to compile stylesheet: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_ErrorsIs(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := NewErrorContext().
		WithOperation("parse arguments").
		Wrap(fmt.Errorf("wrapped: %w", sentinel)).
		BuildError()

	if !errors.Is(err, sentinel) {
		t.Error("errors.Is should find the wrapped sentinel")
	}

	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Fatal("errors.As should find *ActionableError")
	}
	if ae.Operation != "parse arguments" {
		t.Errorf("Operation = %q", ae.Operation)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Parallel()

	root := errors.New("root cause")
	err := &ActionableError{
		Operation:   "load configuration",
		Resource:    "devlaunch.cue",
		Suggestions: []string{"Check the syntax", "Remove the file"},
		Cause:       fmt.Errorf("decode: %w", root),
	}

	quiet := err.Format(false)
	for _, want := range []string{"failed to load configuration", "  • Check the syntax", "  • Remove the file"} {
		if !strings.Contains(quiet, want) {
			t.Errorf("Format(false) missing %q:\n%s", want, quiet)
		}
	}
	if strings.Contains(quiet, "Error chain") {
		t.Errorf("Format(false) should not include the chain:\n%s", quiet)
	}

	verbose := err.Format(true)
	for _, want := range []string{"Error chain:", "1. decode: root cause", "2. root cause"} {
		if !strings.Contains(verbose, want) {
			t.Errorf("Format(true) missing %q:\n%s", want, verbose)
		}
	}
}

func TestActionableError_HasSuggestions(t *testing.T) {
	t.Parallel()

	if (&ActionableError{Operation: "x"}).HasSuggestions() {
		t.Error("HasSuggestions() = true without suggestions")
	}
	if !(&ActionableError{Operation: "x", Suggestions: []string{"y"}}).HasSuggestions() {
		t.Error("HasSuggestions() = false with a suggestion")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	ae := NewErrorContext().
		WithOperation("start dev server").
		WithResource("127.0.0.1:8080").
		WithSuggestion("one").
		WithSuggestion("two").
		WithIssue(PortInUseId).
		Wrap(cause).
		Build()

	if ae == nil {
		t.Fatal("Build() returned nil")
	}
	if ae.Resource != "127.0.0.1:8080" {
		t.Errorf("Resource = %q", ae.Resource)
	}
	if len(ae.Suggestions) != 2 {
		t.Errorf("Suggestions = %v", ae.Suggestions)
	}
	if ae.Issue != PortInUseId {
		t.Errorf("Issue = %d, want %d", ae.Issue, PortInUseId)
	}
	if !errors.Is(ae, cause) {
		t.Error("Build() lost the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if ae := NewErrorContext().WithResource("x").Build(); ae != nil {
		t.Errorf("Build() = %v, want nil", ae)
	}
	if err := NewErrorContext().BuildError(); err != nil {
		t.Errorf("BuildError() = %v, want untyped nil", err)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	if WrapWithContext(nil, "op", "res") != nil {
		t.Error("WrapWithContext(nil) should return nil")
	}

	cause := errors.New("io")
	ae := WrapWithContext(cause, "read descriptor", "WEB-INF/web.xml")
	if ae.Error() != "failed to read descriptor: WEB-INF/web.xml: io" {
		t.Errorf("Error() = %q", ae.Error())
	}
}

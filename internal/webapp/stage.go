// SPDX-License-Identifier: MPL-2.0

package webapp

import (
	"errors"
	"fmt"
)

const (
	// StageWebXML parses WEB-INF/web.xml.
	StageWebXML StageName = "webxml"
	// StageWebInf adds WEB-INF/classes and WEB-INF/lib jars to the classpath.
	StageWebInf StageName = "webinf"
	// StagePlus binds descriptor env-entries.
	StagePlus StageName = "plus"
	// StageMetaInf discovers META-INF resources and fragments on the classpath.
	StageMetaInf StageName = "metainf"
	// StageFragment merges queued web-fragment.xml descriptors.
	StageFragment StageName = "fragment"
	// StageEnv applies WEB-INF/jetty-env.xml bindings.
	StageEnv StageName = "env"
	// StageAnnotations indexes classes on matching classpath directories.
	StageAnnotations StageName = "annotations"
	// StageJettyWeb applies the WEB-INF/jetty-web.xml overlay.
	StageJettyWeb StageName = "jetty-web"
)

var (
	// ErrStageOrder is the sentinel error wrapped by StageOrderError.
	ErrStageOrder = errors.New("invalid configuration stage order")

	// ErrAlreadyConfigured is returned when Configure runs a second time.
	ErrAlreadyConfigured = errors.New("web application context already configured")

	canonicalOrder = []StageName{
		StageWebXML, StageWebInf, StagePlus, StageMetaInf,
		StageFragment, StageEnv, StageAnnotations, StageJettyWeb,
	}
)

type (
	// StageName identifies a configuration stage.
	StageName string

	// Stage is one ordered step in configuring a Context.
	Stage interface {
		Name() StageName
		Configure(c *Context) error
	}

	// StageError wraps a failure raised by a stage.
	StageError struct {
		Stage StageName
		Err   error
	}

	// StageOrderError reports a stage list that breaks the canonical order.
	StageOrderError struct {
		Stage  StageName
		Reason string
	}

	stageFunc struct {
		name StageName
		fn   func(*Context) error
	}
)

// DefaultStages returns the full stage list in canonical order.
func DefaultStages() []Stage {
	return []Stage{
		stageFunc{StageWebXML, configureWebXML},
		stageFunc{StageWebInf, configureWebInf},
		stageFunc{StagePlus, configurePlus},
		stageFunc{StageMetaInf, configureMetaInf},
		stageFunc{StageFragment, configureFragments},
		stageFunc{StageEnv, configureEnv},
		stageFunc{StageAnnotations, configureAnnotations},
		stageFunc{StageJettyWeb, configureJettyWeb},
	}
}

// ValidateOrder checks that stages use known names, appear at most once and
// follow the canonical relative order. Subsets are allowed.
func ValidateOrder(stages []Stage) error {
	last := -1
	seen := make(map[StageName]bool, len(stages))
	for _, s := range stages {
		name := s.Name()
		idx := name.position()
		switch {
		case idx < 0:
			return &StageOrderError{Stage: name, Reason: "unknown stage"}
		case seen[name]:
			return &StageOrderError{Stage: name, Reason: "listed twice"}
		case idx < last:
			return &StageOrderError{Stage: name, Reason: fmt.Sprintf("must run before %s", canonicalOrder[last])}
		}
		seen[name] = true
		last = idx
	}
	return nil
}

func (n StageName) position() int {
	for i, c := range canonicalOrder {
		if c == n {
			return i
		}
	}
	return -1
}

// String returns the stage name.
func (n StageName) String() string { return string(n) }

func (s stageFunc) Name() StageName            { return s.name }
func (s stageFunc) Configure(c *Context) error { return s.fn(c) }

// Error implements the error interface.
func (e *StageError) Error() string {
	return fmt.Sprintf("configuration stage %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying stage failure.
func (e *StageError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *StageOrderError) Error() string {
	return fmt.Sprintf("stage %s: %s", e.Stage, e.Reason)
}

// Unwrap returns ErrStageOrder for errors.Is() compatibility.
func (e *StageOrderError) Unwrap() error { return ErrStageOrder }

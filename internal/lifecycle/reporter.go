// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"github.com/charmbracelet/log"

	"github.com/devsoap/devlaunch/internal/core/serverbase"
)

var _ serverbase.LifeCycleListener = (*Reporter)(nil)

// Reporter writes one token line per lifecycle transition.
// It is safe for concurrent use; serverbase serializes the callbacks anyway.
type Reporter struct {
	sink *log.Logger
}

// NewReporter creates a Reporter writing through a child of logger.
// Tokens are written at INFO; the child logger is raised to INFO when the
// parent is configured more quietly so the tokens always reach the stream.
func NewReporter(logger *log.Logger) *Reporter {
	sink := logger.With()
	if sink.GetLevel() > log.InfoLevel {
		sink.SetLevel(log.InfoLevel)
	}
	return &Reporter{sink: sink}
}

// Report writes the token for e.
func (r *Reporter) Report(e Event) {
	if tok := e.Token(); tok != "" {
		r.sink.Info(tok)
	}
}

// LifeCycleStarting implements serverbase.LifeCycleListener.
func (r *Reporter) LifeCycleStarting() { r.Report(EventStarting) }

// LifeCycleStarted implements serverbase.LifeCycleListener.
func (r *Reporter) LifeCycleStarted() { r.Report(EventStarted) }

// LifeCycleFailure implements serverbase.LifeCycleListener.
// The cause goes on its own line after the token.
func (r *Reporter) LifeCycleFailure(cause error) {
	r.Report(EventFailed)
	if cause != nil {
		r.sink.Error("lifecycle failure", "err", cause)
	}
}

// LifeCycleStopping implements serverbase.LifeCycleListener.
func (r *Reporter) LifeCycleStopping() { r.Report(EventStopping) }

// LifeCycleStopped implements serverbase.LifeCycleListener.
func (r *Reporter) LifeCycleStopped() { r.Report(EventStopped) }

// ReportHookFailure writes the distinct hook-installation failure line.
func (r *Reporter) ReportHookFailure(cause error) {
	r.sink.Error(TokenHookFailed, "err", cause)
}

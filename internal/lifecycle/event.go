// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"
	"strings"
)

// Tokens written to the log stream, one per physical line.
const (
	TokenStarting = "Jetty starting"
	TokenStarted  = "Jetty started"
	TokenFailed   = "Jetty error"
	TokenStopping = "Jetty stopping"
	TokenStopped  = "Jetty stopped"

	// TokenHookFailed is written instead of any lifecycle token when no
	// registration mechanism could attach the reporter.
	TokenHookFailed = "Jetty hook error"
)

const (
	// EventStarting fires when the server begins starting.
	EventStarting Event = iota
	// EventStarted fires when the server accepts connections.
	EventStarted
	// EventFailed fires on start, configuration or runtime failure.
	EventFailed
	// EventStopping fires when an orderly stop begins.
	EventStopping
	// EventStopped fires when an orderly stop completes.
	EventStopped
)

// ErrInvalidEvent is the sentinel error wrapped by InvalidEventError.
var ErrInvalidEvent = errors.New("invalid lifecycle event")

type (
	// Event is one of the five observable lifecycle transitions.
	Event int

	// InvalidEventError is returned when an Event value is not recognized.
	InvalidEventError struct {
		Value Event
	}
)

// Events returns all events in their canonical order.
func Events() []Event {
	return []Event{EventStarting, EventStarted, EventFailed, EventStopping, EventStopped}
}

// Token returns the wire token for the event, or "" for unknown values.
func (e Event) Token() string {
	switch e {
	case EventStarting:
		return TokenStarting
	case EventStarted:
		return TokenStarted
	case EventFailed:
		return TokenFailed
	case EventStopping:
		return TokenStopping
	case EventStopped:
		return TokenStopped
	default:
		return ""
	}
}

// String returns a lowercase event name.
func (e Event) String() string {
	switch e {
	case EventStarting:
		return "starting"
	case EventStarted:
		return "started"
	case EventFailed:
		return "failure"
	case EventStopping:
		return "stopping"
	case EventStopped:
		return "stopped"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Validate returns an error if the Event is not one of the five transitions.
func (e Event) Validate() error {
	if e.Token() == "" {
		return &InvalidEventError{Value: e}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("invalid lifecycle event %d", int(e.Value))
}

// Unwrap returns ErrInvalidEvent for errors.Is() compatibility.
func (e *InvalidEventError) Unwrap() error { return ErrInvalidEvent }

// ParseToken maps a log line containing a token back to its event.
// Lines are matched as whole-line substrings, so surrounding log formatting
// (level, prefix, timestamp) is tolerated.
func ParseToken(line string) (Event, bool) {
	for _, e := range Events() {
		if strings.Contains(line, e.Token()) {
			return e, true
		}
	}
	return 0, false
}

// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidListenPort is the sentinel error wrapped by InvalidListenPortError.
var ErrInvalidListenPort = errors.New("invalid listen port")

type (
	// ListenPort is a TCP port the dev server binds to.
	// The zero value (0) asks the kernel for an ephemeral port; it is valid for
	// the runtime but rejected on the command line, where the parent build
	// process must know the port up front.
	ListenPort int

	// InvalidListenPortError is returned when a port argument is not a
	// decimal integer or falls outside 0-65535.
	InvalidListenPortError struct {
		Raw   string
		Value ListenPort
	}
)

// ParseListenPort parses a decimal port argument. Surrounding whitespace is
// not trimmed: the parent process passes the value verbatim.
func ParseListenPort(raw string) (ListenPort, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &InvalidListenPortError{Raw: raw}
	}
	p := ListenPort(n)
	if err := p.Validate(); err != nil {
		return 0, &InvalidListenPortError{Raw: raw, Value: p}
	}
	return p, nil
}

// String returns the decimal string representation of the ListenPort.
func (p ListenPort) String() string { return strconv.Itoa(int(p)) }

// IsEphemeral reports whether the port requests kernel auto-selection.
func (p ListenPort) IsEphemeral() bool { return p == 0 }

// Validate returns an error if the ListenPort is outside 0-65535.
func (p ListenPort) Validate() error {
	if p < 0 || p > 65535 {
		return &InvalidListenPortError{Raw: p.String(), Value: p}
	}
	return nil
}

// Error implements the error interface for InvalidListenPortError.
func (e *InvalidListenPortError) Error() string {
	return fmt.Sprintf("invalid listen port %q: must be a port number in 0-65535", e.Raw)
}

// Unwrap returns ErrInvalidListenPort for errors.Is() compatibility.
func (e *InvalidListenPortError) Unwrap() error { return ErrInvalidListenPort }

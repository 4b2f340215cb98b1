// SPDX-License-Identifier: MPL-2.0

// Package logging builds the process logger from configuration.
package logging

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// ErrInvalidFormatter is returned for an unknown formatter name.
var ErrInvalidFormatter = errors.New("invalid log formatter")

// Options configures New.
type Options struct {
	// Level is a charm log level name: debug, info, warn, error or fatal.
	Level string
	// Formatter is one of text, logfmt or json. Empty means text.
	Formatter string
	// Timestamps prefixes every line with the wall-clock time.
	Timestamps bool
	// Prefix is printed before every message, e.g. the binary name.
	Prefix string
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) (*log.Logger, error) {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}

	formatter, err := parseFormatter(opts.Formatter)
	if err != nil {
		return nil, err
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          opts.Prefix,
		ReportTimestamp: opts.Timestamps,
		TimeFormat:      time.TimeOnly,
		Formatter:       formatter,
	}), nil
}

func parseFormatter(name string) (log.Formatter, error) {
	switch name {
	case "", "text":
		return log.TextFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("%w: %q", ErrInvalidFormatter, name)
	}
}

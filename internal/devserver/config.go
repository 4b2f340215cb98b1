// SPDX-License-Identifier: MPL-2.0

package devserver

import (
	"time"

	"github.com/devsoap/devlaunch/pkg/types"
)

const (
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
)

// Config holds the listener and HTTP settings of a Server.
type Config struct {
	// Host to bind. Empty binds all interfaces.
	Host string
	// Port to bind. 0 asks the kernel for a free port.
	Port types.ListenPort

	ShutdownTimeout   time.Duration
	ReadHeaderTimeout time.Duration

	// MetricsPath serves Prometheus metrics when non-empty.
	MetricsPath string
	// IntrospectionPath serves a JSON description of the application when non-empty.
	IntrospectionPath string
}

func (c Config) withDefaults() Config {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.ReadHeaderTimeout <= 0 {
		c.ReadHeaderTimeout = defaultReadHeaderTimeout
	}
	return c
}

// SPDX-License-Identifier: MPL-2.0

package lifecycle

import (
	"errors"
	"fmt"

	"github.com/devsoap/devlaunch/internal/core/serverbase"
)

const (
	// LegacyHook registers through AddLifeCycleListener.
	LegacyHook Strategy = iota + 1
	// ModernHook registers through AddEventListener.
	ModernHook
)

// ErrNoRegistrationMechanism is returned when a server core exposes neither
// registration method.
var ErrNoRegistrationMechanism = errors.New("no lifecycle registration mechanism available")

type (
	// Strategy identifies the registration mechanism used to attach a listener.
	Strategy int

	// LegacyRegistrar is a server core with the lifecycle-listener API.
	LegacyRegistrar interface {
		AddLifeCycleListener(serverbase.LifeCycleListener)
	}

	// ModernRegistrar is a server core with the generic event-listener API.
	ModernRegistrar interface {
		AddEventListener(serverbase.EventListener) error
	}
)

// String returns the strategy name used in logs.
func (s Strategy) String() string {
	switch s {
	case LegacyHook:
		return "legacy"
	case ModernHook:
		return "modern"
	default:
		return "none"
	}
}

// Probe reports which registration mechanism core supports.
// The legacy mechanism wins when both are present.
func Probe(core any) (Strategy, error) {
	if _, ok := core.(LegacyRegistrar); ok {
		return LegacyHook, nil
	}
	if _, ok := core.(ModernRegistrar); ok {
		return ModernHook, nil
	}
	return 0, fmt.Errorf("%w on %T", ErrNoRegistrationMechanism, core)
}

// Install registers listener on core exactly once and returns the strategy used.
func Install(core any, listener serverbase.LifeCycleListener) (Strategy, error) {
	strategy, err := Probe(core)
	if err != nil {
		return 0, err
	}

	switch strategy {
	case LegacyHook:
		core.(LegacyRegistrar).AddLifeCycleListener(listener)
	case ModernHook:
		if err := core.(ModernRegistrar).AddEventListener(listener); err != nil {
			return 0, fmt.Errorf("registering %s lifecycle hook: %w", strategy, err)
		}
	}
	return strategy, nil
}

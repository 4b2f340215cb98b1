// SPDX-License-Identifier: MPL-2.0

//go:build !legacyhooks

package serverbase

import (
	"errors"
	"fmt"
)

// ListenerAPI names the registration generation compiled into this binary.
const ListenerAPI = "event-listener"

// ErrUnsupportedListener is returned by AddEventListener for listeners that
// implement no known callback interface.
var ErrUnsupportedListener = errors.New("unsupported event listener")

// AddEventListener registers a generic event listener. Lifecycle callbacks are
// delivered when l implements LifeCycleListener.
func (b *Base) AddEventListener(l EventListener) error {
	ll, ok := l.(LifeCycleListener)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedListener, l)
	}
	b.addListener(ll)
	return nil
}

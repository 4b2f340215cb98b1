// SPDX-License-Identifier: MPL-2.0

//go:build legacyhooks

package serverbase

// ListenerAPI names the registration generation compiled into this binary.
const ListenerAPI = "lifecycle-listener"

// AddLifeCycleListener registers a lifecycle listener.
func (b *Base) AddLifeCycleListener(l LifeCycleListener) {
	b.addListener(l)
}

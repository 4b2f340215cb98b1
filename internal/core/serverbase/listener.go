// SPDX-License-Identifier: MPL-2.0

package serverbase

type (
	// LifeCycleListener observes the five lifecycle transitions of a Base.
	// Callbacks run on the goroutine performing the transition while the
	// transition lock is held; they must not call back into transition methods.
	LifeCycleListener interface {
		LifeCycleStarting()
		LifeCycleStarted()
		LifeCycleFailure(cause error)
		LifeCycleStopping()
		LifeCycleStopped()
	}

	// EventListener is the generic listener accepted by AddEventListener.
	// Only values that also implement LifeCycleListener receive lifecycle
	// callbacks.
	EventListener = any
)

func (b *Base) addListener(l LifeCycleListener) {
	b.listenersMu.Lock()
	defer b.listenersMu.Unlock()
	b.listeners = append(b.listeners, l)
}

// ListenerCount returns the number of registered lifecycle listeners.
func (b *Base) ListenerCount() int {
	b.listenersMu.RLock()
	defer b.listenersMu.RUnlock()
	return len(b.listeners)
}

// notify calls fn for every listener in registration order.
// Callers must hold transMu.
func (b *Base) notify(fn func(LifeCycleListener)) {
	b.listenersMu.RLock()
	snapshot := make([]LifeCycleListener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.listenersMu.RUnlock()

	for _, l := range snapshot {
		fn(l)
	}
}

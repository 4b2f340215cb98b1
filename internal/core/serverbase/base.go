// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base provides common fields and lifecycle infrastructure for servers.
// Concrete server implementations embed this struct.
//
// A server instance is single-use: once stopped or failed, create a new instance.
type Base struct {
	// State management (atomic for lock-free reads)
	state atomic.Int32

	// transMu serializes state changes together with listener dispatch.
	transMu sync.Mutex

	// stateMu guards lastErr.
	stateMu sync.Mutex
	lastErr error

	listenersMu sync.RWMutex
	listeners   []LifeCycleListener

	wg       sync.WaitGroup
	doneCh   chan struct{}
	doneOnce sync.Once
}

// NewBase creates a Base in the Created state.
func NewBase() *Base {
	b := &Base{doneCh: make(chan struct{})}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current server state (atomic, lock-free read).
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true if the server is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Done returns a channel that is closed once the server reaches a terminal state.
func (b *Base) Done() <-chan struct{} {
	return b.doneCh
}

// LastError returns the error that caused the Failed state, or nil.
func (b *Base) LastError() error {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.lastErr
}

// --- Lifecycle helpers for concrete implementations ---

// TransitionToStarting attempts to transition from Created to Starting and
// notifies listeners. Returns an error if the current state is not Created.
// A context that is already cancelled yields Starting followed by Failed.
// Must be called at the beginning of Start().
func (b *Base) TransitionToStarting(ctx context.Context) error {
	b.transMu.Lock()
	defer b.transMu.Unlock()

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return fmt.Errorf("cannot start server in state %s", b.State())
	}
	b.notify(LifeCycleListener.LifeCycleStarting)

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("context cancelled before start: %w", err)
		b.failLocked(err)
		return err
	}
	return nil
}

// TransitionToRunning marks the server as running and notifies listeners.
// Must be called when the server is ready to accept connections.
func (b *Base) TransitionToRunning() {
	b.transMu.Lock()
	defer b.transMu.Unlock()

	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		b.notify(LifeCycleListener.LifeCycleStarted)
	}
}

// TransitionToFailed marks the server as failed with the given error.
// It is valid from Starting, Running and Stopping, and a no-op once the
// server is already terminal.
func (b *Base) TransitionToFailed(err error) {
	b.transMu.Lock()
	defer b.transMu.Unlock()
	b.failLocked(err)
}

func (b *Base) failLocked(err error) {
	prev := b.State()
	if prev.IsTerminal() {
		return
	}

	b.stateMu.Lock()
	b.lastErr = err
	b.stateMu.Unlock()

	b.state.Store(int32(StateFailed))

	// A server that never started has nobody expecting a failure event.
	if prev != StateCreated {
		b.notify(func(l LifeCycleListener) { l.LifeCycleFailure(err) })
	}
	b.closeDone()
}

// TransitionToStopping attempts to transition to Stopping state and notifies
// listeners. Returns true if transition occurred, false if already
// stopped/stopping.
func (b *Base) TransitionToStopping() bool {
	b.transMu.Lock()
	defer b.transMu.Unlock()

	switch current := b.State(); current {
	case StateCreated:
		// Never started: mark stopped without events.
		b.state.Store(int32(StateStopped))
		b.closeDone()
		return false
	case StateStarting, StateRunning:
		b.state.Store(int32(StateStopping))
		b.notify(LifeCycleListener.LifeCycleStopping)
		return true
	default:
		return false
	}
}

// TransitionToStopped marks the server as fully stopped and notifies listeners.
// Must be called after all goroutines have exited. Only a Stopping server
// emits the stopped event; terminal servers are left untouched.
func (b *Base) TransitionToStopped() {
	b.transMu.Lock()
	defer b.transMu.Unlock()

	switch b.State() {
	case StateStopping:
		b.state.Store(int32(StateStopped))
		b.notify(LifeCycleListener.LifeCycleStopped)
		b.closeDone()
	case StateCreated:
		b.state.Store(int32(StateStopped))
		b.closeDone()
	default:
	}
}

func (b *Base) closeDone() {
	b.doneOnce.Do(func() { close(b.doneCh) })
}

// WaitForShutdown blocks until all goroutines tracked by WG have completed.
func (b *Base) WaitForShutdown() {
	b.wg.Wait()
}

// AddGoroutine increments the WaitGroup counter.
// Must be called before starting a goroutine.
func (b *Base) AddGoroutine() {
	b.wg.Add(1)
}

// DoneGoroutine decrements the WaitGroup counter.
// Must be deferred at the start of each goroutine.
func (b *Base) DoneGoroutine() {
	b.wg.Done()
}

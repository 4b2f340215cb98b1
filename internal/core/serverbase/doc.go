// SPDX-License-Identifier: MPL-2.0

// Package serverbase provides the lifecycle core shared by server components:
// a single-use state machine with atomic state reads, serialized transitions,
// WaitGroup goroutine tracking and context-based cancellation.
//
// Every observable transition (starting, started, failure, stopping, stopped)
// is dispatched synchronously to the registered lifecycle listeners while the
// transition lock is held, so listeners observe events in exactly the order
// the transitions happened.
//
// Listener registration comes in two generations. Builds with the
// "legacyhooks" tag expose AddLifeCycleListener; default builds expose the
// generic AddEventListener. Exactly one of the two methods exists in any
// given binary.
package serverbase

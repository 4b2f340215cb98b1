// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// batcher collects changed paths and flushes them once no new path has
// arrived for the quiet period. Flushes never overlap: a flush that comes
// due while the previous one is still running is pushed back by one period.
// After stop returns no flush is running and none will start.
type batcher struct {
	quiet time.Duration
	flush func(ctx context.Context, paths []string)

	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	stopped  bool
	busy     atomic.Bool
	inflight sync.WaitGroup
}

func newBatcher(quiet time.Duration, flush func(context.Context, []string)) *batcher {
	return &batcher{
		quiet:   quiet,
		flush:   flush,
		pending: make(map[string]struct{}),
	}
}

// add records path and restarts the quiet period.
func (b *batcher) add(ctx context.Context, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}

	b.pending[path] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.quiet, func() { b.fire(ctx) })
		return
	}
	b.timer.Reset(b.quiet)
}

// fire runs on the timer goroutine, possibly after ctx was cancelled.
func (b *batcher) fire(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if !b.busy.CompareAndSwap(false, true) {
		b.mu.Lock()
		if !b.stopped {
			b.timer.Reset(b.quiet)
		}
		b.mu.Unlock()
		return
	}
	defer b.busy.Store(false)

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	paths := slices.Sorted(maps.Keys(b.pending))
	clear(b.pending)
	b.inflight.Add(1)
	b.mu.Unlock()
	defer b.inflight.Done()

	if len(paths) > 0 {
		b.flush(ctx, paths)
	}
}

// stop cancels a scheduled flush and waits for a running one to return.
func (b *batcher) stop() {
	b.mu.Lock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	b.inflight.Wait()
}

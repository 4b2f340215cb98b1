// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// recorder captures lifecycle callbacks as short event names.
type recorder struct {
	mu     sync.Mutex
	events []string
	causes []error
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) LifeCycleStarting() { r.add("starting") }

func (r *recorder) LifeCycleStarted() { r.add("started") }

func (r *recorder) LifeCycleStopping() { r.add("stopping") }

func (r *recorder) LifeCycleStopped() { r.add("stopped") }

func (r *recorder) LifeCycleFailure(cause error) {
	r.mu.Lock()
	r.causes = append(r.causes, cause)
	r.mu.Unlock()
	r.add("failure")
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newRecorded() (*Base, *recorder) {
	b := NewBase()
	r := &recorder{}
	b.addListener(r)
	return b, r
}

func TestStateTransitions(t *testing.T) {
	t.Parallel()

	t.Run("Created to Starting to Running to Stopped", func(t *testing.T) {
		t.Parallel()

		b, r := newRecorded()
		if b.State() != StateCreated {
			t.Errorf("expected StateCreated, got %s", b.State())
		}

		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("TransitionToStarting failed: %v", err)
		}
		if b.State() != StateStarting {
			t.Errorf("expected StateStarting, got %s", b.State())
		}

		b.TransitionToRunning()
		if !b.IsRunning() {
			t.Error("IsRunning should return true")
		}

		if !b.TransitionToStopping() {
			t.Error("TransitionToStopping should return true")
		}
		if b.State() != StateStopping {
			t.Errorf("expected StateStopping, got %s", b.State())
		}

		b.TransitionToStopped()
		if b.State() != StateStopped {
			t.Errorf("expected StateStopped, got %s", b.State())
		}

		want := []string{"starting", "started", "stopping", "stopped"}
		if diff := cmp.Diff(want, r.snapshot()); diff != "" {
			t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
		}
		select {
		case <-b.Done():
		default:
			t.Error("Done() should be closed after Stopped")
		}
	})

	t.Run("Starting to Failed", func(t *testing.T) {
		t.Parallel()

		b, r := newRecorded()
		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("TransitionToStarting failed: %v", err)
		}

		testErr := errors.New("bind: address already in use")
		b.TransitionToFailed(testErr)

		if b.State() != StateFailed {
			t.Errorf("expected StateFailed, got %s", b.State())
		}
		if !errors.Is(b.LastError(), testErr) {
			t.Errorf("expected %v, got %v", testErr, b.LastError())
		}
		if diff := cmp.Diff([]string{"starting", "failure"}, r.snapshot()); diff != "" {
			t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
		}
		if len(r.causes) != 1 || !errors.Is(r.causes[0], testErr) {
			t.Errorf("failure cause = %v, want %v", r.causes, testErr)
		}
	})

	t.Run("Stopping to Failed", func(t *testing.T) {
		t.Parallel()

		b, r := newRecorded()
		_ = b.TransitionToStarting(context.Background())
		b.TransitionToRunning()
		b.TransitionToStopping()
		b.TransitionToFailed(context.DeadlineExceeded)
		b.TransitionToStopped()

		want := []string{"starting", "started", "stopping", "failure"}
		if diff := cmp.Diff(want, r.snapshot()); diff != "" {
			t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
		}
		if b.State() != StateFailed {
			t.Errorf("expected StateFailed, got %s", b.State())
		}
	})
}

func TestTerminalStateIsSticky(t *testing.T) {
	t.Parallel()

	b, r := newRecorded()
	_ = b.TransitionToStarting(context.Background())
	b.TransitionToRunning()
	b.TransitionToStopping()
	b.TransitionToStopped()

	b.TransitionToFailed(errors.New("late fault"))
	b.TransitionToRunning()
	if b.TransitionToStopping() {
		t.Error("TransitionToStopping after Stopped should return false")
	}
	b.TransitionToStopped()

	want := []string{"starting", "started", "stopping", "stopped"}
	if diff := cmp.Diff(want, r.snapshot()); diff != "" {
		t.Errorf("no events may follow a terminal state (-want +got):\n%s", diff)
	}
	if b.LastError() != nil {
		t.Errorf("LastError() = %v, want nil", b.LastError())
	}
}

func TestListenerOrder(t *testing.T) {
	t.Parallel()

	b := NewBase()
	var (
		mu    sync.Mutex
		calls []string
	)
	for i := range 3 {
		b.addListener(&funcListener{starting: func() {
			mu.Lock()
			calls = append(calls, fmt.Sprintf("l%d", i))
			mu.Unlock()
		}})
	}
	if b.ListenerCount() != 3 {
		t.Fatalf("ListenerCount() = %d, want 3", b.ListenerCount())
	}

	_ = b.TransitionToStarting(context.Background())

	if diff := cmp.Diff([]string{"l0", "l1", "l2"}, calls); diff != "" {
		t.Errorf("listeners must be called in registration order (-want +got):\n%s", diff)
	}
}

type funcListener struct {
	starting func()
}

func (f *funcListener) LifeCycleStarting() {
	if f.starting != nil {
		f.starting()
	}
}

func (f *funcListener) LifeCycleStarted()          {}
func (f *funcListener) LifeCycleFailure(err error) {}
func (f *funcListener) LifeCycleStopping()         {}
func (f *funcListener) LifeCycleStopped()          {}

func TestRaceConditions(t *testing.T) {
	t.Parallel()

	t.Run("concurrent state reads during transitions", func(t *testing.T) {
		t.Parallel()

		b, _ := newRecorded()

		var wg sync.WaitGroup
		for range 10 {
			wg.Go(func() {
				for range 100 {
					_ = b.State()
					_ = b.IsRunning()
				}
			})
		}

		_ = b.TransitionToStarting(context.Background())
		b.TransitionToRunning()
		b.TransitionToStopping()
		b.TransitionToStopped()

		wg.Wait()
	})

	t.Run("concurrent Stop calls emit one stopping event", func(t *testing.T) {
		t.Parallel()

		b, r := newRecorded()
		_ = b.TransitionToStarting(context.Background())
		b.TransitionToRunning()

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners int
		)
		for range 10 {
			wg.Go(func() {
				if b.TransitionToStopping() {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			})
		}
		wg.Wait()
		b.TransitionToStopped()

		if winners != 1 {
			t.Errorf("expected exactly one successful TransitionToStopping, got %d", winners)
		}
		want := []string{"starting", "started", "stopping", "stopped"}
		if diff := cmp.Diff(want, r.snapshot()); diff != "" {
			t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestIdempotency(t *testing.T) {
	t.Parallel()

	t.Run("double Start returns error", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		if err := b.TransitionToStarting(context.Background()); err != nil {
			t.Fatalf("first TransitionToStarting failed: %v", err)
		}
		if err := b.TransitionToStarting(context.Background()); err == nil {
			t.Error("second TransitionToStarting should return error")
		}
	})

	t.Run("Stop without Start is silent", func(t *testing.T) {
		t.Parallel()

		b, r := newRecorded()
		if b.TransitionToStopping() {
			t.Error("TransitionToStopping on Created should return false")
		}
		if b.State() != StateStopped {
			t.Errorf("expected StateStopped, got %s", b.State())
		}
		if got := r.snapshot(); len(got) != 0 {
			t.Errorf("expected no events, got %v", got)
		}
		select {
		case <-b.Done():
		default:
			t.Error("Done() should be closed")
		}
	})

	t.Run("Stop on Failed is safe", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		_ = b.TransitionToStarting(context.Background())
		b.TransitionToFailed(errors.New("test error"))

		if b.TransitionToStopping() {
			t.Error("TransitionToStopping on Failed should return false")
		}
		if b.State() != StateFailed {
			t.Errorf("expected StateFailed to be preserved, got %s", b.State())
		}
	})
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()

	t.Run("Start with already cancelled context emits starting then failure", func(t *testing.T) {
		t.Parallel()

		b, r := newRecorded()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := b.TransitionToStarting(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if b.State() != StateFailed {
			t.Errorf("expected StateFailed, got %s", b.State())
		}
		if diff := cmp.Diff([]string{"starting", "failure"}, r.snapshot()); diff != "" {
			t.Errorf("event sequence mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Done carries the failure cause", func(t *testing.T) {
		t.Parallel()

		b := NewBase()
		_ = b.TransitionToStarting(context.Background())
		cause := errors.New("bind failed")
		b.TransitionToFailed(cause)

		select {
		case <-b.Done():
		case <-time.After(time.Second):
			t.Fatal("Done() not closed after failure")
		}
		if err := b.LastError(); !errors.Is(err, cause) {
			t.Errorf("LastError() = %v, want %v", err, cause)
		}
	})
}

func TestStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state    State
		expected string
	}{
		{StateCreated, "CREATED"},
		{StateStarting, "STARTING"},
		{StateRunning, "STARTED"},
		{StateStopping, "STOPPING"},
		{StateStopped, "STOPPED"},
		{StateFailed, "FAILED"},
		{State(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()
			if got := tt.state.String(); got != tt.expected {
				t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.expected)
			}
		})
	}
}

func TestState_Validate(t *testing.T) {
	t.Parallel()

	for _, s := range []State{StateCreated, StateStarting, StateRunning, StateStopping, StateStopped, StateFailed} {
		if err := s.Validate(); err != nil {
			t.Errorf("State(%d).Validate() = %v, want nil", s, err)
		}
	}
	for _, s := range []State{-1, 6, 99} {
		err := s.Validate()
		if !errors.Is(err, ErrInvalidState) {
			t.Errorf("State(%d).Validate() = %v, want ErrInvalidState", s, err)
		}
	}
	if !StateStopped.IsTerminal() || !StateFailed.IsTerminal() || StateRunning.IsTerminal() {
		t.Error("only Stopped and Failed are terminal")
	}
}

func TestGoroutineTracking(t *testing.T) {
	t.Parallel()

	b := NewBase()
	var finished bool
	b.AddGoroutine()
	go func() {
		defer b.DoneGoroutine()
		time.Sleep(5 * time.Millisecond)
		finished = true
	}()

	b.WaitForShutdown()
	if !finished {
		t.Error("WaitForShutdown returned before tracked goroutine finished")
	}
}

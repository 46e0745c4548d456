package searchstate

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// manualClock only moves when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now += d
	var due []*manualTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && t.at <= c.now {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

// gatedFetcher records each fetch and blocks it until the test releases it.
type gatedFetcher struct {
	started chan string
	release chan error
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		started: make(chan string, 16),
		release: make(chan error, 16),
	}
}

func (f *gatedFetcher) Fetch(ctx context.Context, value string) (string, error) {
	f.started <- value
	if err := <-f.release; err != nil {
		return "", err
	}
	return "result:" + value, nil
}

func (f *gatedFetcher) expectStarted(t *testing.T, want string) {
	t.Helper()
	select {
	case got := <-f.started:
		require.Equal(t, want, got)
	case <-time.After(waitTimeout):
		t.Fatalf("fetch for %q never started", want)
	}
}

func (f *gatedFetcher) expectIdle(t *testing.T) {
	t.Helper()
	select {
	case got := <-f.started:
		t.Fatalf("unexpected fetch for %q", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func waitFor[T any](t *testing.T, ch <-chan T, match func(T) bool) T {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case v := <-ch:
			if match(v) {
				return v
			}
		case <-deadline:
			t.Fatal("timed out waiting for event")
		}
	}
}

type machineHarness struct {
	clock   *manualClock
	fetcher *gatedFetcher
	events  chan Event[string]
	machine *Machine[string]
}

func newMachineHarness(t *testing.T, initial string) *machineHarness {
	t.Helper()
	h := &machineHarness{
		clock:   &manualClock{},
		fetcher: newGatedFetcher(),
		events:  make(chan Event[string], 256),
	}
	h.machine = New(context.Background(), Options[string]{
		Debounce: 300 * time.Millisecond,
		Clock:    h.clock,
		Fetch:    h.fetcher.Fetch,
		Listener: func(ev Event[string]) { h.events <- ev },
		Initial:  initial,
	})
	t.Cleanup(h.machine.Close)
	return h
}

func (h *machineHarness) waitResult(t *testing.T) *Result[string] {
	t.Helper()
	ev := waitFor(t, h.events, func(ev Event[string]) bool { return ev.Result != nil })
	return ev.Result
}

func (h *machineHarness) waitStatus(t *testing.T, status Status) UIState {
	t.Helper()
	ev := waitFor(t, h.events, func(ev Event[string]) bool { return ev.State.Status == status })
	return ev.State
}

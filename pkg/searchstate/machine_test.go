package searchstate

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_DebounceCoalescesKeystrokes(t *testing.T) {
	t.Parallel()
	h := newMachineHarness(t, "")

	h.machine.Input("a")
	h.clock.Advance(100 * time.Millisecond)
	h.machine.Input("ab")
	h.clock.Advance(100 * time.Millisecond)
	h.machine.Input("abc")

	state := h.machine.State()
	assert.Equal(t, PendingDebounce, state.Status)
	assert.Equal(t, "abc", state.PendingQuery)
	assert.Equal(t, 3, state.PendingUpdateCount)
	assert.True(t, state.IsPending)
	assert.False(t, state.IsInFlight)

	// The window restarts on every keystroke.
	h.clock.Advance(299 * time.Millisecond)
	h.fetcher.expectIdle(t)

	h.clock.Advance(time.Millisecond)
	h.fetcher.expectStarted(t, "abc")
	assert.Equal(t, Committing, h.machine.State().Status)

	h.fetcher.release <- nil
	res := h.waitResult(t)
	assert.Equal(t, "abc", res.Value)
	assert.Equal(t, "result:abc", res.Data)
	require.NoError(t, res.Err)

	state = h.machine.State()
	assert.Equal(t, Idle, state.Status)
	assert.Equal(t, "abc", state.CommittedQuery)
	assert.Equal(t, 0, state.PendingUpdateCount)
	assert.False(t, state.IsPending)

	h.clock.Advance(time.Second)
	h.fetcher.expectIdle(t)
}

func TestMachine_BackpressureRedispatchesLatest(t *testing.T) {
	t.Parallel()
	h := newMachineHarness(t, "")

	h.machine.Submit("a")
	h.fetcher.expectStarted(t, "a")

	h.machine.Input("ab")
	h.machine.Input("abc")
	state := h.machine.State()
	assert.Equal(t, CoalescedPending, state.Status)
	assert.True(t, state.IsInFlight)
	assert.Equal(t, "abc", state.PendingQuery)

	// No timer runs while a dispatch is in flight.
	h.clock.Advance(time.Second)
	h.fetcher.expectIdle(t)

	h.fetcher.release <- nil
	h.fetcher.expectStarted(t, "abc")

	h.fetcher.release <- nil
	res := h.waitResult(t)
	assert.Equal(t, "abc", res.Value)

	h.fetcher.expectIdle(t)
	assert.Equal(t, "abc", h.machine.State().CommittedQuery)
}

func TestMachine_SupersededResultIsNotPublished(t *testing.T) {
	t.Parallel()
	h := newMachineHarness(t, "")

	h.machine.Submit("first")
	h.fetcher.expectStarted(t, "first")
	h.machine.Submit("second")

	h.fetcher.release <- nil
	h.fetcher.expectStarted(t, "second")
	h.fetcher.release <- nil

	var published []string
	deadline := time.After(waitTimeout)
	for len(published) == 0 {
		select {
		case ev := <-h.events:
			if ev.Result != nil {
				published = append(published, ev.Result.Value)
			}
		case <-deadline:
			t.Fatal("timed out waiting for result")
		}
	}
	assert.Equal(t, []string{"second"}, published)
	assert.Equal(t, "second", h.machine.State().CommittedQuery)
}

func TestMachine_NoRedundantDispatch(t *testing.T) {
	t.Parallel()

	t.Run("coalesced value equals the one in flight", func(tt *testing.T) {
		h := newMachineHarness(tt, "")

		h.machine.Submit("a")
		h.fetcher.expectStarted(tt, "a")
		h.machine.Input("b")
		h.machine.Input("a")

		h.fetcher.release <- nil
		res := h.waitResult(tt)
		assert.Equal(tt, "a", res.Value)
		h.fetcher.expectIdle(tt)
		assert.Equal(tt, Idle, h.machine.State().Status)
	})

	t.Run("debounced value equals the committed one", func(tt *testing.T) {
		h := newMachineHarness(tt, "q")

		h.machine.Input("qx")
		h.machine.Input("q")
		h.clock.Advance(time.Second)

		h.fetcher.expectIdle(tt)
		state := h.machine.State()
		assert.Equal(tt, Idle, state.Status)
		assert.Equal(tt, "q", state.CommittedQuery)
		assert.False(tt, state.IsPending)
	})

	t.Run("submit of the committed value", func(tt *testing.T) {
		h := newMachineHarness(tt, "q")

		h.machine.Submit("q")
		h.fetcher.expectIdle(tt)
		assert.Equal(tt, Idle, h.machine.State().Status)
	})
}

func TestMachine_SubmitCancelsDebounce(t *testing.T) {
	t.Parallel()
	h := newMachineHarness(t, "")

	h.machine.Input("typed")
	h.machine.Submit("toggled")
	h.fetcher.expectStarted(t, "toggled")

	h.clock.Advance(time.Second)
	h.fetcher.expectIdle(t)

	h.fetcher.release <- nil
	res := h.waitResult(t)
	assert.Equal(t, "toggled", res.Value)
}

func TestMachine_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("dispatches the committed value", func(t *testing.T) {
		t.Parallel()
		h := newMachineHarness(t, "q")

		h.machine.Refresh("q")
		h.fetcher.expectStarted(t, "q")
		h.fetcher.release <- nil
		res := h.waitResult(t)
		assert.Equal(t, "q", res.Value)
	})

	t.Run("refetches the value already in flight", func(t *testing.T) {
		t.Parallel()
		h := newMachineHarness(t, "")

		h.machine.Submit("q")
		h.fetcher.expectStarted(t, "q")
		h.machine.Refresh("q")
		assert.Equal(t, CoalescedPending, h.machine.State().Status)

		h.fetcher.release <- nil
		h.fetcher.expectStarted(t, "q")
		h.fetcher.release <- nil

		ev := waitFor(t, h.events, func(ev Event[string]) bool { return ev.Result != nil })
		assert.Equal(t, "q", ev.Result.Value)
		assert.Equal(t, Idle, ev.State.Status)
		h.fetcher.expectIdle(t)
		assert.Empty(t, h.events)
	})
}

func TestMachine_FailedFetch(t *testing.T) {
	t.Parallel()
	h := newMachineHarness(t, "old")

	h.machine.Submit("new")
	h.fetcher.expectStarted(t, "new")
	h.fetcher.release <- errors.New("boom")

	res := h.waitResult(t)
	require.Error(t, res.Err)
	assert.Equal(t, "new", res.Value)

	state := h.machine.State()
	assert.Equal(t, Idle, state.Status)
	assert.Equal(t, "old", state.CommittedQuery)
}

func TestMachine_Close(t *testing.T) {
	t.Parallel()
	h := newMachineHarness(t, "")

	h.machine.Submit("a")
	h.fetcher.expectStarted(t, "a")
	h.machine.Close()
	h.fetcher.release <- nil

	h.machine.Input("b")
	h.clock.Advance(time.Second)
	h.fetcher.expectIdle(t)

	select {
	case ev := <-h.events:
		if ev.Result != nil {
			t.Fatalf("result published after close: %q", ev.Result.Value)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestStatus_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending_debounce", PendingDebounce.String())
	assert.Equal(t, "committing", Committing.String())
	assert.Equal(t, "coalesced_pending", CoalescedPending.String())
	assert.Equal(t, "unknown", Status(42).String())
}

package searchstate

import (
	"context"
	"sync"
	"time"
)

// Status is the state of a Machine.
type Status int

const (
	// Idle means nothing is waiting to be dispatched or in flight.
	Idle Status = iota
	// PendingDebounce means input arrived and the debounce window is open.
	PendingDebounce
	// Committing means one dispatch is in flight.
	Committing
	// CoalescedPending means a dispatch is in flight and newer input is
	// waiting for it to finish.
	CoalescedPending
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingDebounce:
		return "pending_debounce"
	case Committing:
		return "committing"
	case CoalescedPending:
		return "coalesced_pending"
	}
	return "unknown"
}

// UIState is what the renderer needs to know about the machine. IsPending
// drives the loading indicator and is true for every status but Idle.
type UIState struct {
	CommittedQuery     string `json:"committed_query"`
	PendingQuery       string `json:"pending_query"`
	IsInFlight         bool   `json:"is_in_flight"`
	PendingUpdateCount int    `json:"pending_update_count"`
	Status             Status `json:"state"`
	IsPending          bool   `json:"is_pending"`
}

// Fetcher performs the navigation for a committed value.
type Fetcher[R any] func(ctx context.Context, value string) (R, error)

// Result is the outcome of one dispatch.
type Result[R any] struct {
	Seq   uint64
	Value string
	Data  R
	Err   error
}

// Event is delivered to the listener on every state change. Result is set
// only when a dispatch completed and was not superseded.
type Event[R any] struct {
	State  UIState
	Result *Result[R]
}

// Options configures a Machine.
type Options[R any] struct {
	Debounce time.Duration
	Clock    Clock
	Fetch    Fetcher[R]
	// Listener receives events in order. It must not call back into the
	// Machine.
	Listener func(Event[R])
	// Initial is the value the caller's view already reflects.
	Initial string
}

// Machine debounces and coalesces updates to a single value so that at most
// one fetch is in flight and the last value written is the one committed.
type Machine[R any] struct {
	opts Options[R]
	ctx  context.Context

	mu             sync.Mutex
	status         Status
	committed      string
	pending        string
	inFlight       string
	pendingUpdates int
	timer          Timer
	timerGen       uint64
	seq            uint64
	closed         bool
	// refresh is set when Refresh arrived during a dispatch, so the
	// pending value goes out again even if it matches the one in flight.
	refresh bool

	// notifyMu keeps listener calls in the order the transitions happened.
	notifyMu sync.Mutex
}

func New[R any](ctx context.Context, opts Options[R]) *Machine[R] {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	return &Machine[R]{
		opts:      opts,
		ctx:       ctx,
		committed: opts.Initial,
		pending:   opts.Initial,
	}
}

// State returns a snapshot of the machine.
func (m *Machine[R]) State() UIState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot()
}

// Input records a keystroke-style update. Each call restarts the debounce
// window and only its trailing edge dispatches.
func (m *Machine[R]) Input(value string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = value
	m.pendingUpdates++

	switch m.status {
	case Idle, PendingDebounce:
		m.stopTimer()
		m.status = PendingDebounce
		gen := m.timerGen
		m.timer = m.opts.Clock.AfterFunc(m.opts.Debounce, func() {
			m.fire(gen)
		})
	case Committing:
		m.status = CoalescedPending
	case CoalescedPending:
	}
	m.emit(nil)
}

// Submit records a discrete update, such as toggling a filter, which skips
// the debounce window.
func (m *Machine[R]) Submit(value string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = value
	m.pendingUpdates++
	m.stopTimer()

	switch m.status {
	case Idle, PendingDebounce:
		if value == m.committed {
			m.settle()
			m.emit(nil)
			return
		}
		m.dispatch()
	case Committing:
		m.status = CoalescedPending
	case CoalescedPending:
	}
	m.emit(nil)
}

// Refresh dispatches value immediately even when it is already committed,
// as for the first load or a retry after an error.
func (m *Machine[R]) Refresh(value string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.pending = value
	m.pendingUpdates++
	m.stopTimer()

	switch m.status {
	case Idle, PendingDebounce:
		m.dispatch()
	case Committing, CoalescedPending:
		m.status = CoalescedPending
		m.refresh = true
	}
	m.emit(nil)
}

// Close stops the debounce timer and drops the result of any in-flight
// dispatch.
func (m *Machine[R]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.stopTimer()
	m.seq++
}

func (m *Machine[R]) fire(gen uint64) {
	m.mu.Lock()
	if m.closed || gen != m.timerGen || m.status != PendingDebounce {
		m.mu.Unlock()
		return
	}
	m.timer = nil
	if m.pending == m.committed {
		m.settle()
		m.emit(nil)
		return
	}
	m.dispatch()
	m.emit(nil)
}

// dispatch starts a fetch for the pending value. m.mu must be held.
func (m *Machine[R]) dispatch() {
	m.seq++
	m.refresh = false
	seq := m.seq
	value := m.pending
	m.inFlight = value
	m.status = Committing

	go func() {
		data, err := m.opts.Fetch(m.ctx, value)
		m.complete(Result[R]{Seq: seq, Value: value, Data: data, Err: err})
	}()
}

func (m *Machine[R]) complete(res Result[R]) {
	m.mu.Lock()
	if res.Seq != m.seq {
		m.mu.Unlock()
		return
	}
	m.inFlight = ""
	if res.Err == nil {
		m.committed = res.Value
	}

	if m.status == CoalescedPending && (m.refresh || m.pending != res.Value) {
		// Superseded: the newer value goes out and this result is dropped.
		m.dispatch()
		m.emit(nil)
		return
	}

	m.settle()
	m.emit(&res)
}

// settle returns the machine to Idle. m.mu must be held.
func (m *Machine[R]) settle() {
	m.status = Idle
	m.pendingUpdates = 0
	m.pending = m.committed
}

// stopTimer cancels the debounce timer. Bumping the generation makes a
// callback that already started a no-op. m.mu must be held.
func (m *Machine[R]) stopTimer() {
	m.timerGen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Machine[R]) snapshot() UIState {
	return UIState{
		CommittedQuery:     m.committed,
		PendingQuery:       m.pending,
		IsInFlight:         m.status == Committing || m.status == CoalescedPending,
		PendingUpdateCount: m.pendingUpdates,
		Status:             m.status,
		IsPending:          m.status != Idle,
	}
}

// emit hands the current state to the listener and releases m.mu. The
// listener runs outside m.mu but under notifyMu, so events stay ordered.
func (m *Machine[R]) emit(res *Result[R]) {
	ev := Event[R]{State: m.snapshot(), Result: res}
	if m.opts.Listener == nil {
		m.mu.Unlock()
		return
	}
	m.notifyMu.Lock()
	m.mu.Unlock()
	defer m.notifyMu.Unlock()
	m.opts.Listener(ev)
}

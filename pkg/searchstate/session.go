package searchstate

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/shishobooks/catalog/pkg/filters"
)

// View is what a Session publishes to its renderer. Optimistic reflects
// every change the user made, Confirmed the state the current Result was
// fetched for.
type View[R any] struct {
	Confirmed  filters.State
	Optimistic filters.State
	Result     R
	HasResult  bool
	Err        error
	IsPending  bool
	UI         UIState
}

// SessionOptions configures a Session.
type SessionOptions[R any] struct {
	Debounce time.Duration
	Clock    Clock
	// Fetch loads the listing for a canonical query string.
	Fetch Fetcher[R]
	// Render receives every new View. It must not call back into the
	// Session.
	Render  func(View[R])
	Initial filters.State
}

// Session holds the confirmed and optimistic filter states of one browsing
// session and commits changes through a Machine keyed on the canonical
// query string.
type Session[R any] struct {
	ctx     context.Context
	codec   *filters.Codec
	render  func(View[R])
	machine *Machine[R]

	mu   sync.Mutex
	view View[R]
	// rev counts optimistic updates and sentRev is the last one handed to
	// the machine. Events that arrive in between must not roll the
	// optimistic state back.
	rev     uint64
	sentRev uint64
	// held is set when an event settled the machine while an update was
	// still unsent; heldOK records whether that event carried an error.
	held   bool
	heldOK bool

	// renderMu keeps renders in the order the view changed.
	renderMu sync.Mutex
}

func NewSession[R any](ctx context.Context, opts SessionOptions[R]) *Session[R] {
	s := &Session[R]{
		ctx:    ctx,
		codec:  filters.NewCodec(),
		render: opts.Render,
		view: View[R]{
			Confirmed:  opts.Initial,
			Optimistic: opts.Initial,
		},
	}
	s.machine = New(ctx, Options[R]{
		Debounce: opts.Debounce,
		Clock:    opts.Clock,
		Fetch:    opts.Fetch,
		Listener: s.onEvent,
		Initial:  filters.Encode(opts.Initial),
	})
	return s
}

// View returns the latest published view.
func (s *Session[R]) View() View[R] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Load fetches the current state without waiting for input, for the first
// render.
func (s *Session[R]) Load() {
	s.mu.Lock()
	query := filters.Encode(s.view.Optimistic)
	s.mu.Unlock()
	s.machine.Refresh(query)
}

// SetSearch updates the search text. The fetch waits for the debounce
// window.
func (s *Session[R]) SetSearch(text string) {
	s.apply(s.machine.Input, func(st filters.State) filters.State {
		return st.WithSearch(text)
	})
}

// ToggleAuthor adds or removes an author and fetches immediately.
func (s *Session[R]) ToggleAuthor(name string) {
	s.apply(s.machine.Submit, func(st filters.State) filters.State {
		return st.ToggleAuthor(name)
	})
}

// ClearAuthors drops the author selection and fetches immediately.
func (s *Session[R]) ClearAuthors() {
	s.apply(s.machine.Submit, func(st filters.State) filters.State {
		return st.ClearAuthors()
	})
}

// SetPage moves to page and fetches immediately.
func (s *Session[R]) SetPage(page int) {
	s.apply(s.machine.Submit, func(st filters.State) filters.State {
		return st.WithPage(page)
	})
}

// Navigate replaces the whole state, as when following a link.
func (s *Session[R]) Navigate(state filters.State) {
	s.apply(s.machine.Submit, func(filters.State) filters.State {
		return state
	})
}

// Close stops the session. Results still in flight are dropped.
func (s *Session[R]) Close() {
	s.machine.Close()
}

// apply updates the optimistic state with fn and hands its canonical query
// to commit.
func (s *Session[R]) apply(commit func(string), fn func(filters.State) filters.State) {
	query, rev := s.update(fn)
	commit(query)

	s.mu.Lock()
	s.sentRev = max(s.sentRev, rev)
	if !s.held || s.rev != s.sentRev {
		s.mu.Unlock()
		return
	}
	// The machine settled before this update reached it, so nothing else
	// will report the settled state.
	s.held = false
	s.view.IsPending = s.view.UI.IsPending
	s.catchUp(s.heldOK)
	s.publish()
}

// update applies fn to the optimistic state, publishes it and returns its
// canonical query and revision.
func (s *Session[R]) update(fn func(filters.State) filters.State) (string, uint64) {
	s.mu.Lock()
	s.rev++
	rev := s.rev
	s.view.Optimistic = fn(s.view.Optimistic)
	s.view.IsPending = true
	query := filters.Encode(s.view.Optimistic)
	s.publish()
	return query, rev
}

// publish renders the current view and releases s.mu.
func (s *Session[R]) publish() {
	view := s.view
	if s.render == nil {
		s.mu.Unlock()
		return
	}
	s.renderMu.Lock()
	s.mu.Unlock()
	defer s.renderMu.Unlock()
	s.render(view)
}

func (s *Session[R]) onEvent(ev Event[R]) {
	s.mu.Lock()
	unsent := s.rev != s.sentRev
	s.view.UI = ev.State
	s.view.IsPending = ev.State.IsPending || unsent

	if ev.Result != nil {
		s.view.Err = ev.Result.Err
		if ev.Result.Err == nil {
			values, err := url.ParseQuery(ev.Result.Value)
			if err == nil {
				s.view.Confirmed = s.codec.Decode(s.ctx, values)
			}
			s.view.Result = ev.Result.Data
			s.view.HasResult = true
		}
	}
	ok := ev.Result == nil || ev.Result.Err == nil
	s.held = unsent && !ev.State.IsPending
	s.heldOK = ok
	s.catchUp(ok)
	s.publish()
}

// catchUp moves the optimistic state to what the last fetch settled on once
// nothing newer is queued. s.mu must be held.
func (s *Session[R]) catchUp(ok bool) {
	if !s.view.IsPending && ok {
		s.view.Optimistic = s.view.Confirmed
	}
}

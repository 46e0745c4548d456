package searchstate

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionHarness struct {
	clock   *manualClock
	fetcher *gatedFetcher
	views   chan View[string]
	session *Session[string]
}

func newSessionHarness(t *testing.T, initial filters.State) *sessionHarness {
	t.Helper()
	h := &sessionHarness{
		clock:   &manualClock{},
		fetcher: newGatedFetcher(),
		views:   make(chan View[string], 256),
	}
	h.session = NewSession(context.Background(), SessionOptions[string]{
		Debounce: 300 * time.Millisecond,
		Clock:    h.clock,
		Fetch:    h.fetcher.Fetch,
		Render:   func(v View[string]) { h.views <- v },
		Initial:  initial,
	})
	t.Cleanup(h.session.Close)
	return h
}

func (h *sessionHarness) waitSettled(t *testing.T) View[string] {
	t.Helper()
	return waitFor(t, h.views, func(v View[string]) bool {
		return !v.IsPending && (v.HasResult || v.Err != nil)
	})
}

func TestSession_SearchIsDebouncedAndOptimistic(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t, filters.Empty())

	h.session.SetSearch("du")
	h.session.SetSearch("dune")

	view := h.session.View()
	require.NotNil(t, view.Optimistic.SearchText)
	assert.Equal(t, "dune", *view.Optimistic.SearchText)
	assert.Nil(t, view.Confirmed.SearchText)
	assert.True(t, view.IsPending)

	h.fetcher.expectIdle(t)
	h.clock.Advance(300 * time.Millisecond)
	h.fetcher.expectStarted(t, "search=dune")
	h.fetcher.release <- nil

	view = h.waitSettled(t)
	assert.Equal(t, "result:search=dune", view.Result)
	require.NotNil(t, view.Confirmed.SearchText)
	assert.Equal(t, "dune", *view.Confirmed.SearchText)
	assert.True(t, view.Confirmed.Equal(view.Optimistic))
}

func TestSession_ToggleAuthorIsImmediate(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t, filters.Empty().WithSearch("dune"))

	h.session.ToggleAuthor("Herbert")
	assert.True(t, h.session.View().Optimistic.HasAuthor("Herbert"))
	h.fetcher.expectStarted(t, "search=dune&author=Herbert")

	// A second toggle while the first is in flight is coalesced.
	h.session.ToggleAuthor("Asimov")
	h.fetcher.release <- nil
	h.fetcher.expectStarted(t, "search=dune&author=Asimov&author=Herbert")
	h.fetcher.release <- nil

	view := h.waitSettled(t)
	assert.Equal(t, []string{"Asimov", "Herbert"}, view.Confirmed.Authors)
	assert.Equal(t, "result:search=dune&author=Asimov&author=Herbert", view.Result)

	h.session.ClearAuthors()
	h.fetcher.expectStarted(t, "search=dune")
	h.fetcher.release <- nil
	view = h.waitSettled(t)
	assert.Empty(t, view.Confirmed.Authors)
}

func TestSession_SetPageAndNavigate(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t, filters.Empty())

	h.session.SetPage(3)
	h.fetcher.expectStarted(t, "page=3")
	h.fetcher.release <- nil
	view := h.waitSettled(t)
	assert.Equal(t, 3, view.Confirmed.Page)

	next := filters.Empty().WithSearch("tolkien")
	h.session.Navigate(next)
	h.fetcher.expectStarted(t, "search=tolkien")
	h.fetcher.release <- nil
	view = h.waitSettled(t)
	assert.Equal(t, 1, view.Confirmed.Page)
	assert.Equal(t, "tolkien", *view.Confirmed.SearchText)
}

func TestSession_Load(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t, filters.Empty())

	h.session.Load()
	h.fetcher.expectStarted(t, "")
	h.fetcher.release <- nil

	view := h.waitSettled(t)
	assert.True(t, view.HasResult)
	assert.Equal(t, "result:", view.Result)
}

func TestSession_FailedFetchKeepsOptimisticState(t *testing.T) {
	t.Parallel()
	h := newSessionHarness(t, filters.Empty())

	h.session.ToggleAuthor("Herbert")
	h.fetcher.expectStarted(t, "author=Herbert")
	h.fetcher.release <- errors.New("connection refused")

	view := h.waitSettled(t)
	require.Error(t, view.Err)
	assert.False(t, view.HasResult)
	assert.Empty(t, view.Confirmed.Authors)
	assert.True(t, view.Optimistic.HasAuthor("Herbert"))
}

func TestSession_ResultBeforeUpdateReachesMachine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		fn         func(filters.State) filters.State
		refetch    string
		wantAuthor []string
	}{
		{
			name:       "a newer change is kept and fetched",
			fn:         func(st filters.State) filters.State { return st.ToggleAuthor("Asimov") },
			refetch:    "author=Asimov&author=Herbert",
			wantAuthor: []string{"Asimov", "Herbert"},
		},
		{
			name:       "a change matching the result settles without a fetch",
			fn:         func(filters.State) filters.State { return filters.Empty().ToggleAuthor("Herbert") },
			wantAuthor: []string{"Herbert"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := newSessionHarness(t, filters.Empty())

			h.session.ToggleAuthor("Herbert")
			h.fetcher.expectStarted(t, "author=Herbert")

			// The first fetch lands after the optimistic state changed but
			// before the machine hears about it.
			h.session.apply(func(query string) {
				h.fetcher.release <- nil
				view := waitFor(t, h.views, func(v View[string]) bool { return v.HasResult })
				assert.True(t, view.IsPending)
				assert.Equal(t, tt.wantAuthor, view.Optimistic.Authors)
				h.session.machine.Submit(query)
			}, tt.fn)

			if tt.refetch != "" {
				h.fetcher.expectStarted(t, tt.refetch)
				h.fetcher.release <- nil
			}

			view := h.waitSettled(t)
			assert.Equal(t, tt.wantAuthor, view.Confirmed.Authors)
			assert.Equal(t, tt.wantAuthor, view.Optimistic.Authors)
			h.fetcher.expectIdle(t)
		})
	}
}

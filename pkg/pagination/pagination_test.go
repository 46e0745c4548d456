package pagination

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource serves the integers 1..n and ignores the predicate.
type sliceSource struct {
	n       int
	fetches int
	err     error
}

func (s *sliceSource) Count(_ context.Context, _ struct{}) (int, error) {
	return s.n, s.err
}

func (s *sliceSource) Fetch(_ context.Context, _ struct{}, offset, limit int) ([]int, error) {
	s.fetches++
	items := []int{}
	for i := offset + 1; i <= s.n && len(items) < limit; i++ {
		items = append(items, i)
	}
	return items, nil
}

func TestExecute(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("last partial page", func(tt *testing.T) {
		src := &sliceSource{n: 65}
		res, err := Execute[struct{}, int](ctx, src, struct{}{}, 3, 30)
		require.NoError(tt, err)
		assert.Equal(tt, 3, res.TotalPages)
		assert.Equal(tt, 3, res.CurrentPage)
		assert.Equal(tt, 65, res.TotalItems)
		assert.Equal(tt, []int{61, 62, 63, 64, 65}, res.Items)
		assert.True(tt, res.HasPrev())
		assert.False(tt, res.HasNext())
	})

	t.Run("page past the end is clamped", func(tt *testing.T) {
		src := &sliceSource{n: 65}
		res, err := Execute[struct{}, int](ctx, src, struct{}{}, 99, 30)
		require.NoError(tt, err)
		assert.Equal(tt, 3, res.CurrentPage)
		assert.Equal(tt, []int{61, 62, 63, 64, 65}, res.Items)
	})

	t.Run("no matches skips the fetch", func(tt *testing.T) {
		src := &sliceSource{n: 0}
		res, err := Execute[struct{}, int](ctx, src, struct{}{}, 4, 30)
		require.NoError(tt, err)
		assert.Equal(tt, 1, res.TotalPages)
		assert.Equal(tt, 1, res.CurrentPage)
		assert.Empty(tt, res.Items)
		assert.NotNil(tt, res.Items)
		assert.Zero(tt, src.fetches)
	})

	t.Run("rejects a non-positive page size", func(tt *testing.T) {
		_, err := Execute[struct{}, int](ctx, &sliceSource{n: 5}, struct{}{}, 1, 0)
		assert.ErrorIs(tt, err, ErrInvalidPageSize)
	})

	t.Run("propagates count errors", func(tt *testing.T) {
		boom := errors.New("boom")
		_, err := Execute[struct{}, int](ctx, &sliceSource{err: boom}, struct{}{}, 1, 30)
		assert.ErrorIs(tt, err, boom)
	})
}

func TestExecute_ClampLaw(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, total := range []int{0, 1, 29, 30, 31, 65, 300} {
		for _, size := range []int{1, 7, 30} {
			for _, page := range []int{-100, -1, 0, 1, 2, 3, 11, 1 << 30} {
				res, err := Execute[struct{}, int](ctx, &sliceSource{n: total}, struct{}{}, page, size)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.CurrentPage, 1)
				assert.LessOrEqual(t, res.CurrentPage, res.TotalPages)
				assert.LessOrEqual(t, len(res.Items), size)
				assert.GreaterOrEqual(t, res.TotalPages, 1)
			}
		}
	}
}

func TestTotalPages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, TotalPages(0, 30))
	assert.Equal(t, 1, TotalPages(30, 30))
	assert.Equal(t, 2, TotalPages(31, 30))
	assert.Equal(t, 3, TotalPages(65, 30))
}

func TestClamp(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, Clamp(-5, 3))
	assert.Equal(t, 1, Clamp(0, 3))
	assert.Equal(t, 2, Clamp(2, 3))
	assert.Equal(t, 3, Clamp(99, 3))
}

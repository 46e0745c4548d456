package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Helpers(t *testing.T) {
	t.Parallel()

	base := Empty().WithPage(5)

	t.Run("WithSearch resets the page", func(tt *testing.T) {
		s := base.WithSearch("  dune ")
		assert.Equal(tt, ptr("dune"), s.SearchText)
		assert.Equal(tt, 1, s.Page)
		assert.Nil(tt, s.WithSearch("   ").SearchText)
	})

	t.Run("ToggleAuthor adds and removes", func(tt *testing.T) {
		s := base.ToggleAuthor("Zola").ToggleAuthor("Hugo")
		assert.Equal(tt, []string{"Hugo", "Zola"}, s.Authors)
		assert.True(tt, s.HasAuthor("Zola"))
		assert.Equal(tt, 1, s.Page)

		s = s.ToggleAuthor("Zola")
		assert.Equal(tt, []string{"Hugo"}, s.Authors)
		assert.False(tt, s.HasAuthor("Zola"))

		s = s.ToggleAuthor("Hugo")
		assert.Nil(tt, s.Authors)
	})

	t.Run("ToggleAuthor does not mutate the receiver", func(tt *testing.T) {
		s := Empty().ToggleAuthor("A").ToggleAuthor("B")
		_ = s.ToggleAuthor("A")
		assert.Equal(tt, []string{"A", "B"}, s.Authors)
	})

	t.Run("ClearAuthors", func(tt *testing.T) {
		s := base.ToggleAuthor("A").WithPage(3).ClearAuthors()
		assert.Nil(tt, s.Authors)
		assert.Equal(tt, 1, s.Page)
	})

	t.Run("WithPage normalizes", func(tt *testing.T) {
		assert.Equal(tt, 1, base.WithPage(-3).Page)
		assert.Equal(tt, 7, base.WithPage(7).Page)
	})

	t.Run("Equal ignores empty vs absent", func(tt *testing.T) {
		assert.True(tt, State{Authors: []string{}, Page: 1}.Equal(Empty()))
		assert.False(tt, base.Equal(Empty()))
	})
}

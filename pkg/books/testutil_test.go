package books

import (
	"github.com/shishobooks/catalog/pkg/models"
)

func ptr[T any](v T) *T { return &v }

func bookIDs(books []*models.Book) []int {
	ids := make([]int, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	return ids
}

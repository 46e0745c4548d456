// Package testgen builds catalog fixtures in an in-memory database for
// package tests.
package testgen

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/shishobooks/catalog/pkg/migrations"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// NewDB returns a migrated in-memory database that is closed when the test
// completes.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if _, err := migrations.BringUpToDate(context.Background(), db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// CreateBook inserts book and credits it to authors in order, creating
// authors that don't exist yet.
func CreateBook(t *testing.T, db *bun.DB, book *models.Book, authors ...string) *models.Book {
	t.Helper()
	ctx := context.Background()

	if book.CreatedAt.IsZero() {
		book.CreatedAt = time.Now()
	}
	if _, err := db.NewInsert().Model(book).Exec(ctx); err != nil {
		t.Fatalf("failed to create book %q: %v", book.Title, err)
	}

	for i, name := range authors {
		author := &models.Author{}
		err := db.NewSelect().Model(author).Where("a.name = ?", name).Scan(ctx)
		if err != nil {
			author = &models.Author{Name: name}
			if _, err := db.NewInsert().Model(author).Exec(ctx); err != nil {
				t.Fatalf("failed to create author %q: %v", name, err)
			}
		}
		_, err = db.NewInsert().Model(&models.BookAuthor{
			BookID:    book.ID,
			AuthorID:  author.ID,
			SortOrder: i,
		}).Exec(ctx)
		if err != nil {
			t.Fatalf("failed to credit %q: %v", name, err)
		}
	}
	book.Authors = append([]string{}, authors...)
	return book
}

// SeedBooks inserts n books titled "Book 1" through "Book n".
func SeedBooks(t *testing.T, db *bun.DB, n int) []*models.Book {
	t.Helper()
	books := make([]*models.Book, 0, n)
	for i := 1; i <= n; i++ {
		books = append(books, CreateBook(t, db, &models.Book{Title: "Book " + strconv.Itoa(i)}))
	}
	return books
}

// CreateList inserts a curated list holding isbns in order.
func CreateList(t *testing.T, db *bun.DB, slug, name string, isbns ...string) *models.List {
	t.Helper()
	ctx := context.Background()

	list := &models.List{CreatedAt: time.Now(), Slug: slug, Name: name}
	if _, err := db.NewInsert().Model(list).Exec(ctx); err != nil {
		t.Fatalf("failed to create list %q: %v", slug, err)
	}

	for i, isbn := range isbns {
		_, err := db.NewInsert().Model(&models.ListBook{ListID: list.ID, ISBN: isbn, SortOrder: i}).Exec(ctx)
		if err != nil {
			t.Fatalf("failed to add %q to list %q: %v", isbn, slug, err)
		}
	}
	return list
}

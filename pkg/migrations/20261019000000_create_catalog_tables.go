package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				isbn TEXT,
				isbn13 TEXT,
				publisher TEXT,
				description TEXT,
				image_url TEXT,
				publication_year INTEGER,
				average_rating REAL,
				language_code TEXT,
				num_pages INTEGER
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, stmt := range []string{
			`CREATE INDEX ix_books_publication_year ON books (publication_year)`,
			`CREATE INDEX ix_books_average_rating ON books (average_rating)`,
			`CREATE INDEX ix_books_language_code ON books (language_code)`,
			`CREATE INDEX ix_books_num_pages ON books (num_pages)`,
			`CREATE INDEX ix_books_isbn ON books (isbn)`,
			`CREATE INDEX ix_books_isbn13 ON books (isbn13)`,
		} {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}

		_, err = db.Exec(`
			CREATE TABLE authors (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				average_rating REAL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_authors_name ON authors (name)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`
			CREATE TABLE book_authors (
				book_id INTEGER REFERENCES books (id) ON DELETE CASCADE NOT NULL,
				author_id INTEGER REFERENCES authors (id) ON DELETE CASCADE NOT NULL,
				sort_order INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (book_id, author_id)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_book_authors_author_id ON book_authors (author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		// Search index over the text columns. unicode61 with diacritic
		// removal makes MATCH case and accent insensitive.
		_, err = db.Exec(`
			CREATE VIRTUAL TABLE books_fts USING fts5(
				title,
				isbn,
				isbn13,
				publisher,
				content='books',
				content_rowid='id',
				tokenize='unicode61 remove_diacritics 2'
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		for _, stmt := range []string{
			`CREATE TRIGGER books_fts_ai AFTER INSERT ON books BEGIN
				INSERT INTO books_fts (rowid, title, isbn, isbn13, publisher)
				VALUES (new.id, new.title, new.isbn, new.isbn13, new.publisher);
			END`,
			`CREATE TRIGGER books_fts_ad AFTER DELETE ON books BEGIN
				INSERT INTO books_fts (books_fts, rowid, title, isbn, isbn13, publisher)
				VALUES ('delete', old.id, old.title, old.isbn, old.isbn13, old.publisher);
			END`,
			`CREATE TRIGGER books_fts_au AFTER UPDATE ON books BEGIN
				INSERT INTO books_fts (books_fts, rowid, title, isbn, isbn13, publisher)
				VALUES ('delete', old.id, old.title, old.isbn, old.isbn13, old.publisher);
				INSERT INTO books_fts (rowid, title, isbn, isbn13, publisher)
				VALUES (new.id, new.title, new.isbn, new.isbn13, new.publisher);
			END`,
		} {
			if _, err := db.Exec(stmt); err != nil {
				return errors.WithStack(err)
			}
		}

		_, err = db.Exec(`
			CREATE TABLE lists (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				slug TEXT NOT NULL,
				name TEXT NOT NULL,
				description TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_lists_slug ON lists (slug)`)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`
			CREATE TABLE list_books (
				list_id INTEGER REFERENCES lists (id) ON DELETE CASCADE NOT NULL,
				isbn TEXT NOT NULL,
				sort_order INTEGER NOT NULL DEFAULT 0,
				PRIMARY KEY (list_id, isbn)
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_list_books_list_sort ON list_books (list_id, sort_order)`)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		for _, table := range []string{"list_books", "lists", "books_fts", "book_authors", "authors", "books"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}

package books

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/database"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
)

type ListAuthorsOptions struct {
	// Letter restricts authors to one initial, or to names that don't start
	// with A-Z when it is models.AuthorGroupOther.
	Letter *string
}

// Store runs catalog queries. A Store either wraps the database or is bound
// to a single read transaction by ReadSnapshot.
type Store struct {
	db        bun.IDB
	root      *bun.DB
	countMode string
}

func NewStore(db *bun.DB, countMode string) *Store {
	if countMode == "" {
		countMode = config.CountModeExact
	}
	return &Store{db: db, root: db, countMode: countMode}
}

// ReadSnapshot runs fn against a Store bound to one transaction, so that
// everything fn reads (a count and the page it describes) comes from the
// same database snapshot.
func (s *Store) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, snap *Store) error) error {
	if s.root == nil {
		return fn(ctx, s)
	}
	err := s.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Store{db: tx, countMode: s.countMode})
	})
	return unavailable(err)
}

// Count returns the number of books matching pred, estimating it when the
// store is configured to and the predicate allows.
func (s *Store) Count(ctx context.Context, pred Predicate) (int, error) {
	if s.countMode == config.CountModeEstimate && pred.IsEmpty() {
		n, ok, err := s.EstimateMatching(ctx)
		if err != nil {
			return 0, err
		}
		if ok {
			return n, nil
		}
	}
	return s.CountMatching(ctx, pred)
}

// CountMatching returns the exact number of books matching pred.
func (s *Store) CountMatching(ctx context.Context, pred Predicate) (int, error) {
	q := s.db.NewSelect().Model((*models.Book)(nil))
	n, err := pred.Apply(q).Count(ctx)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// EstimateMatching returns the planner's row estimate for the whole books
// table from sqlite_stat1. ok is false when ANALYZE hasn't been run.
func (s *Store) EstimateMatching(ctx context.Context) (int, bool, error) {
	var tables int
	err := s.db.NewSelect().
		TableExpr("sqlite_master").
		ColumnExpr("COUNT(*)").
		Where("type = 'table' AND name = 'sqlite_stat1'").
		Scan(ctx, &tables)
	if err != nil {
		return 0, false, unavailable(err)
	}
	if tables == 0 {
		return 0, false, nil
	}

	var stat string
	err = s.db.NewSelect().
		TableExpr("sqlite_stat1").
		Column("stat").
		Where("tbl = ?", "books").
		Limit(1).
		Scan(ctx, &stat)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, unavailable(err)
	}

	// The first field of stat is the table's row count.
	fields := strings.Fields(stat)
	if len(fields) == 0 {
		return 0, false, nil
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, false, nil
	}
	return n, true, nil
}

// Fetch implements pagination.Source.
func (s *Store) Fetch(ctx context.Context, pred Predicate, offset, limit int) ([]*models.Book, error) {
	return s.FetchPage(ctx, pred, offset, limit)
}

// FetchPage returns up to limit books matching pred in id order, skipping
// the first offset.
func (s *Store) FetchPage(ctx context.Context, pred Predicate, offset, limit int) ([]*models.Book, error) {
	books := []*models.Book{}

	q := s.db.NewSelect().
		Model(&books).
		Order("b.id ASC").
		Limit(limit).
		Offset(offset)

	if err := pred.Apply(q).Scan(ctx); err != nil {
		return nil, unavailable(err)
	}

	if err := s.populateAuthors(ctx, books); err != nil {
		return nil, err
	}

	return books, nil
}

func (s *Store) FetchByID(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}

	err := s.db.NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, unavailable(err)
	}

	if err := s.populateAuthors(ctx, []*models.Book{book}); err != nil {
		return nil, err
	}

	return book, nil
}

// ListDistinctAuthors returns authors ordered by name.
func (s *Store) ListDistinctAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	authors := []*models.Author{}

	q := s.db.NewSelect().
		Model(&authors).
		OrderExpr("a.name COLLATE NOCASE ASC")

	if opts.Letter != nil {
		if *opts.Letter == models.AuthorGroupOther {
			q = q.Where("UPPER(SUBSTR(TRIM(a.name), 1, 1)) NOT BETWEEN 'A' AND 'Z'")
		} else {
			q = q.Where("UPPER(SUBSTR(TRIM(a.name), 1, 1)) = ?", strings.ToUpper(*opts.Letter))
		}
	}

	if err := q.Scan(ctx); err != nil {
		return nil, unavailable(err)
	}
	return authors, nil
}

// CountAuthors returns the size of the author table.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	n, err := s.db.NewSelect().Model((*models.Author)(nil)).Count(ctx)
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

// populateAuthors loads author names for all books in a single query and
// assigns them in credit order.
func (s *Store) populateAuthors(ctx context.Context, books []*models.Book) error {
	if len(books) == 0 {
		return nil
	}

	ids := make([]int, len(books))
	byID := make(map[int]*models.Book, len(books))
	for i, b := range books {
		ids[i] = b.ID
		byID[b.ID] = b
		b.Authors = []string{}
	}

	var rows []struct {
		BookID int    `bun:"book_id"`
		Name   string `bun:"name"`
	}
	err := s.db.NewSelect().
		TableExpr("book_authors AS ba").
		ColumnExpr("ba.book_id, a.name").
		Join("JOIN authors AS a ON a.id = ba.author_id").
		Where("ba.book_id IN (?)", bun.In(ids)).
		OrderExpr("ba.book_id ASC, ba.sort_order ASC, a.name ASC").
		Scan(ctx, &rows)
	if err != nil {
		return unavailable(err)
	}

	for _, row := range rows {
		if b, ok := byID[row.BookID]; ok {
			b.Authors = append(b.Authors, row.Name)
		}
	}
	return nil
}

// unavailable converts errors that mean the catalog can't be queried at all
// into errcodes.StoreUnavailable. Other errors are returned with a stack.
func unavailable(err error) error {
	if err == nil {
		return nil
	}
	var e *errcodes.Error
	if errors.As(err, &e) {
		return err
	}
	if database.IsUnavailableErr(err) {
		return errcodes.StoreUnavailable(storeUnavailableReason(err))
	}
	return errors.WithStack(err)
}

func storeUnavailableReason(err error) string {
	msg := err.Error()
	if strings.Contains(msg, "no such table") || strings.Contains(msg, "no such column") {
		return "the catalog tables have not been created, run the migrations"
	}
	return "the catalog database could not be opened"
}

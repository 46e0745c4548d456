package lists

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/database"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
)

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

type RetrieveListOptions struct {
	ID   *int
	Slug *string
}

// RetrieveList returns a list with its ISBNs loaded in list order.
func (svc *Service) RetrieveList(ctx context.Context, opts RetrieveListOptions) (*models.List, error) {
	list := &models.List{}

	q := svc.db.
		NewSelect().
		Model(list).
		Relation("Books", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("lb.sort_order ASC", "lb.isbn ASC")
		})

	if opts.ID != nil {
		q = q.Where("l.id = ?", *opts.ID)
	}
	if opts.Slug != nil {
		q = q.Where("l.slug = ?", *opts.Slug)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("List")
		}
		return nil, storeErr(err)
	}
	list.BookCount = len(list.Books)

	return list, nil
}

type ListListsOptions struct {
	Limit  *int
	Offset *int

	includeTotal bool
}

func (svc *Service) ListLists(ctx context.Context, opts ListListsOptions) ([]*models.List, error) {
	lists, _, err := svc.listListsWithTotal(ctx, opts)
	return lists, errors.WithStack(err)
}

func (svc *Service) ListListsWithTotal(ctx context.Context, opts ListListsOptions) ([]*models.List, int, error) {
	opts.includeTotal = true
	return svc.listListsWithTotal(ctx, opts)
}

func (svc *Service) listListsWithTotal(ctx context.Context, opts ListListsOptions) ([]*models.List, int, error) {
	lists := []*models.List{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&lists).
		ColumnExpr("l.*").
		ColumnExpr("(SELECT COUNT(*) FROM list_books AS lb WHERE lb.list_id = l.id) AS book_count").
		OrderExpr("l.name COLLATE NOCASE ASC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, storeErr(err)
	}

	return lists, total, nil
}

func storeErr(err error) error {
	if database.IsUnavailableErr(err) {
		return errcodes.StoreUnavailable("the curated list tables have not been created, run the migrations")
	}
	return errors.WithStack(err)
}

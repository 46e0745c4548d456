package books

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/shishobooks/catalog/pkg/metrics"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/pagination"
	"github.com/uptrace/bun"
)

type SearchBooksOptions struct {
	State filters.State
	// Restrict is ANDed with the predicate built from State. Curated lists
	// use it for their ISBN allowlist.
	Restrict *Predicate
	// Route labels the query in metrics.
	Route string
}

type Service struct {
	store    *Store
	pageSize int
}

func NewService(db *bun.DB, pageSize int, countMode string) *Service {
	return &Service{
		store:    NewStore(db, countMode),
		pageSize: pageSize,
	}
}

func (svc *Service) PageSize() int {
	return svc.pageSize
}

// SearchBooks returns the requested page of books matching the options. The
// count and the page are read from one snapshot. A page past the end
// returns the last page.
func (svc *Service) SearchBooks(ctx context.Context, opts SearchBooksOptions) (*pagination.Result[*models.Book], error) {
	pred := BuildPredicate(opts.State)
	if opts.Restrict != nil {
		pred = pred.And(*opts.Restrict)
	}

	for _, dim := range pred.Dimensions() {
		metrics.FilterDimensionsTotal.WithLabelValues(dim).Inc()
	}

	start := time.Now()
	var result *pagination.Result[*models.Book]
	err := svc.store.ReadSnapshot(ctx, func(ctx context.Context, snap *Store) error {
		var err error
		result, err = pagination.Execute[Predicate, *models.Book](ctx, snap, pred, opts.State.Page, svc.pageSize)
		return err
	})
	if err != nil {
		if errcodes.IsStoreUnavailable(err) {
			metrics.StoreUnavailableTotal.Inc()
		}
		return nil, errors.WithStack(err)
	}

	route := opts.Route
	if route == "" {
		route = "books"
	}
	metrics.CatalogQueryDuration.WithLabelValues(route, svc.store.countMode).Observe(time.Since(start).Seconds())
	metrics.CatalogQueryResults.WithLabelValues(route).Observe(float64(result.TotalItems))

	logger.FromContext(ctx).Debug("catalog query", logger.Data{
		"dimensions":   pred.Dimensions(),
		"page":         result.CurrentPage,
		"total_pages":  result.TotalPages,
		"total_items":  result.TotalItems,
		"duration_ms":  time.Since(start).Milliseconds(),
		"requested":    opts.State.Page,
		"count_mode":   svc.store.countMode,
		"result_count": len(result.Items),
	})

	return result, nil
}

func (svc *Service) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book, err := svc.store.FetchByID(ctx, id)
	if err != nil {
		if errcodes.IsStoreUnavailable(err) {
			metrics.StoreUnavailableTotal.Inc()
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// ListAuthors returns authors ordered by name. An empty author table means
// the catalog was never imported, which is reported as store unavailable
// rather than as an empty index.
func (svc *Service) ListAuthors(ctx context.Context, opts ListAuthorsOptions) ([]*models.Author, error) {
	var authors []*models.Author
	err := svc.store.ReadSnapshot(ctx, func(ctx context.Context, snap *Store) error {
		total, err := snap.CountAuthors(ctx)
		if err != nil {
			return err
		}
		if total == 0 {
			return errcodes.StoreUnavailable("no authors have been imported")
		}
		authors, err = snap.ListDistinctAuthors(ctx, opts)
		return err
	})
	if err != nil {
		if errcodes.IsStoreUnavailable(err) {
			metrics.StoreUnavailableTotal.Inc()
		}
		return nil, errors.WithStack(err)
	}
	return authors, nil
}

// AuthorGroup is one bucket of the author index.
type AuthorGroup struct {
	Letter  string           `json:"letter"`
	Authors []*models.Author `json:"authors"`
}

// GroupAuthors buckets authors by initial, A to Z followed by
// models.AuthorGroupOther. Empty buckets are left out and each bucket keeps
// the input order.
func GroupAuthors(authors []*models.Author) []AuthorGroup {
	buckets := map[string][]*models.Author{}
	for _, a := range authors {
		g := a.Group()
		buckets[g] = append(buckets[g], a)
	}

	groups := []AuthorGroup{}
	for r := 'A'; r <= 'Z'; r++ {
		if as, ok := buckets[string(r)]; ok {
			groups = append(groups, AuthorGroup{string(r), as})
		}
	}
	if as, ok := buckets[models.AuthorGroupOther]; ok {
		groups = append(groups, AuthorGroup{models.AuthorGroupOther, as})
	}
	return groups
}

package lists

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/internal/testgen"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func ptr[T any](v T) *T { return &v }

func newTestEcho(t *testing.T, db *bun.DB) *echo.Echo {
	t.Helper()

	e := echo.New()
	b, err := binder.New()
	require.NoError(t, err)
	e.Binder = b
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	RegisterRoutesWithGroup(e.Group("/lists"), db, config.NewForTest())
	return e
}

func get(t *testing.T, e *echo.Echo, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)
	return rr
}

func TestService_RetrieveList(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	testgen.CreateList(t, db, "summer-reading", "Summer Reading", "9780441013593", "0261102389")
	svc := NewService(db)
	ctx := context.Background()

	list, err := svc.RetrieveList(ctx, RetrieveListOptions{Slug: ptr("summer-reading")})
	require.NoError(t, err)
	assert.Equal(t, "Summer Reading", list.Name)
	assert.Equal(t, []string{"9780441013593", "0261102389"}, list.ISBNs())
	assert.Equal(t, 2, list.BookCount)

	_, err = svc.RetrieveList(ctx, RetrieveListOptions{Slug: ptr("missing")})
	assert.True(t, errcodes.HasCode(err, errcodes.CodeNotFound))
}

func TestService_ListListsWithTotal(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	testgen.CreateList(t, db, "b", "beta", "1")
	testgen.CreateList(t, db, "a", "Alpha", "1", "2", "3")
	svc := NewService(db)

	lists, total, err := svc.ListListsWithTotal(context.Background(), ListListsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, lists, 2)
	assert.Equal(t, "Alpha", lists[0].Name)
	assert.Equal(t, 3, lists[0].BookCount)
	assert.Equal(t, "beta", lists[1].Name)
}

func TestHandlerListBooks(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	hobbit := testgen.CreateBook(t, db, &models.Book{Title: "The Hobbit", ISBN: ptr("0261102389"), LanguageCode: ptr("eng")})
	dune := testgen.CreateBook(t, db, &models.Book{Title: "Dune", ISBN13: ptr("9780441013593"), LanguageCode: ptr("en-US")})
	testgen.CreateBook(t, db, &models.Book{Title: "Germinal", ISBN: ptr("2070409228"), LanguageCode: ptr("fr")})
	testgen.CreateList(t, db, "classics", "Classics", "0261102389", "9780441013593", "2070409228")
	testgen.CreateList(t, db, "empty", "Empty")
	e := newTestEcho(t, db)

	t.Run("restricts the listing to the list", func(tt *testing.T) {
		rr := get(tt, e, "/lists/classics/books?lng=en")
		require.Equal(tt, http.StatusOK, rr.Code)

		var resp struct {
			books.ListResponse
			List *models.List `json:"list"`
		}
		require.NoError(tt, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(tt, resp.Books, 2)
		assert.Equal(tt, hobbit.ID, resp.Books[0].ID)
		assert.Equal(tt, dune.ID, resp.Books[1].ID)
		assert.Equal(tt, "lng=en", resp.Query)
		assert.Equal(tt, "classics", resp.List.Slug)
	})

	t.Run("an empty list matches nothing", func(tt *testing.T) {
		rr := get(tt, e, "/lists/empty/books")
		require.Equal(tt, http.StatusOK, rr.Code)

		var resp books.ListResponse
		require.NoError(tt, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Empty(tt, resp.Books)
		assert.Equal(tt, 1, resp.Pagination.TotalPages)
	})

	t.Run("unknown lists are not found", func(tt *testing.T) {
		assert.Equal(tt, http.StatusNotFound, get(tt, e, "/lists/nope/books").Code)
		assert.Equal(tt, http.StatusNotFound, get(tt, e, "/lists/Not_A_Slug/books").Code)
	})
}

func TestHandlerRetrieve(t *testing.T) {
	t.Parallel()
	db := testgen.NewDB(t)
	testgen.CreateList(t, db, "classics", "Classics", "1", "2")
	e := newTestEcho(t, db)

	rr := get(t, e, "/lists/classics")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Slug  string   `json:"slug"`
		ISBNs []string `json:"isbns"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "classics", resp.Slug)
	assert.Equal(t, []string{"1", "2"}, resp.ISBNs)

	assert.Equal(t, http.StatusUnprocessableEntity, get(t, e, "/lists/bad_slug").Code)
}

package lists

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/shishobooks/catalog/pkg/models"
)

type handler struct {
	listsService *Service
	bookService  *books.Service
	codec        *filters.Codec
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListListsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	lists, total, err := h.listsService.ListListsWithTotal(ctx, ListListsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Lists []*models.List `json:"lists"`
		Total int            `json:"total"`
	}{lists, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	params := RetrieveListParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	list, err := h.listsService.RetrieveList(ctx, RetrieveListOptions{Slug: &params.Slug})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		*models.List
		ISBNs []string `json:"isbns"`
	}{list, list.ISBNs()}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

// listBooks is the book listing restricted to the list's ISBNs. The query
// string is the usual filter query, so it's decoded rather than bound.
func (h *handler) listBooks(c echo.Context) error {
	ctx := c.Request().Context()

	slug := c.Param("slug")
	if !slugRE.MatchString(slug) {
		return errcodes.NotFound("List")
	}

	list, err := h.listsService.RetrieveList(ctx, RetrieveListOptions{Slug: &slug})
	if err != nil {
		return errors.WithStack(err)
	}

	state := h.codec.Decode(ctx, c.QueryParams())
	restrict := books.ListPredicate(list.ISBNs())

	result, err := h.bookService.SearchBooks(ctx, books.SearchBooksOptions{
		State:    state,
		Restrict: &restrict,
		Route:    "lists",
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		books.ListResponse
		List *models.List `json:"list"`
	}{books.NewListResponse(state, result), list}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

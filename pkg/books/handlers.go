package books

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/pagination"
)

type handler struct {
	bookService *Service
	codec       *filters.Codec
}

// PaginationMeta is the pagination block of a listing response.
type PaginationMeta struct {
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	TotalItems  int `json:"total_items"`
	PageSize    int `json:"page_size"`
}

// ListResponse is the body of a paginated book listing.
type ListResponse struct {
	Books      []*models.Book `json:"books"`
	Pagination PaginationMeta `json:"pagination"`
	Filters    filters.State  `json:"filters"`
	Query      string         `json:"query"`
	Pages      []PageControl  `json:"pages"`
	Links      Links          `json:"links"`
}

// NewListResponse renders a page of results for state. The state's page is
// replaced with the page actually returned, so the echoed filters and query
// reflect any clamping.
func NewListResponse(state filters.State, result *pagination.Result[*models.Book]) ListResponse {
	state = state.WithPage(result.CurrentPage)
	return ListResponse{
		Books: result.Items,
		Pagination: PaginationMeta{
			CurrentPage: result.CurrentPage,
			TotalPages:  result.TotalPages,
			TotalItems:  result.TotalItems,
			PageSize:    result.PageSize,
		},
		Filters: state,
		Query:   filters.Encode(state),
		Pages:   BuildPageControls(state, result.CurrentPage, result.TotalPages),
		Links:   BuildLinks(state, result.CurrentPage, result.TotalPages),
	}
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	// The filter query is decoded leniently rather than bound: malformed
	// values are dropped instead of failing the request.
	state := h.codec.Decode(ctx, c.QueryParams())

	result, err := h.bookService.SearchBooks(ctx, SearchBooksOptions{
		State: state,
		Route: "books",
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, NewListResponse(state, result)))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()

	params := RetrieveBookParams{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	book, err := h.bookService.RetrieveBook(ctx, params.ID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, book))
}

func (h *handler) listAuthors(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListAuthorsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListAuthorsOptions{}
	if params.Letter != "" {
		opts.Letter = &params.Letter
	}

	authors, err := h.bookService.ListAuthors(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Authors []*models.Author `json:"authors"`
		Groups  []AuthorGroup    `json:"groups"`
		Total   int              `json:"total"`
	}{authors, GroupAuthors(authors), len(authors)}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

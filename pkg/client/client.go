package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/models"
)

var (
	// ErrSetupRequired is returned when the catalog has not been set up.
	ErrSetupRequired = errors.New("catalog setup required")
	// ErrNotFound is returned for a missing book, list or route.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response from the catalog API.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog api: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrSetupRequired:
		return e.Code == errcodes.CodeSetupRequired
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// AuthorsResponse is the body of GET /authors.
type AuthorsResponse struct {
	Authors []*models.Author    `json:"authors"`
	Groups  []books.AuthorGroup `json:"groups"`
	Total   int                 `json:"total"`
}

// ListsResponse is the body of GET /lists.
type ListsResponse struct {
	Lists []*models.List `json:"lists"`
	Total int            `json:"total"`
}

// ListDetail is the body of GET /lists/:slug.
type ListDetail struct {
	*models.List
	ISBNs []string `json:"isbns"`
}

// ListBooksResponse is the body of GET /lists/:slug/books.
type ListBooksResponse struct {
	books.ListResponse
	List *models.List `json:"list"`
}

type Options struct {
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
	Logger       *logger.Logger
}

// Client talks to the catalog API. Connection errors and 5xx responses other
// than setup_required are retried by the transport.
type Client struct {
	baseURL *url.URL
	http    *retryablehttp.Client
}

func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid catalog url %q", baseURL)
	}

	if opts.RetryMax == 0 {
		opts.RetryMax = 3
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.RetryMax
	if opts.RetryWaitMin > 0 {
		rc.RetryWaitMin = opts.RetryWaitMin
	}
	if opts.RetryWaitMax > 0 {
		rc.RetryWaitMax = opts.RetryWaitMax
	}
	rc.HTTPClient = &http.Client{Timeout: opts.Timeout}
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if opts.Logger != nil {
		rc.Logger = &leveledLogger{log: *opts.Logger}
	} else {
		rc.Logger = nil
	}

	return &Client{baseURL: u, http: rc}, nil
}

// checkRetry retries like the default policy but gives up on 503
// setup_required, which won't change by retrying.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp != nil && resp.StatusCode == http.StatusServiceUnavailable {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// SearchBooks fetches GET /books with a canonical filter query.
func (c *Client) SearchBooks(ctx context.Context, query string) (*books.ListResponse, error) {
	resp := &books.ListResponse{}
	if err := c.get(ctx, "/books", query, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) RetrieveBook(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	if err := c.get(ctx, "/books/"+strconv.Itoa(id), "", book); err != nil {
		return nil, err
	}
	return book, nil
}

// ListAuthors fetches the author index, restricted to one initial when
// letter is set.
func (c *Client) ListAuthors(ctx context.Context, letter string) (*AuthorsResponse, error) {
	query := ""
	if letter != "" {
		query = url.Values{"letter": {letter}}.Encode()
	}
	resp := &AuthorsResponse{}
	if err := c.get(ctx, "/authors", query, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) ListLists(ctx context.Context) (*ListsResponse, error) {
	resp := &ListsResponse{}
	if err := c.get(ctx, "/lists", "", resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) RetrieveList(ctx context.Context, slug string) (*ListDetail, error) {
	resp := &ListDetail{}
	if err := c.get(ctx, "/lists/"+url.PathEscape(slug), "", resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ListBooks fetches the books of a curated list narrowed by a filter query.
func (c *Client) ListBooks(ctx context.Context, slug, query string) (*ListBooksResponse, error) {
	resp := &ListBooksResponse{}
	if err := c.get(ctx, "/lists/"+url.PathEscape(slug)+"/books", query, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path, rawQuery string, out interface{}) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = rawQuery

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding catalog response")
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && json.Unmarshal(raw, &body) == nil {
		apiErr.Code = body.Error.Code
		apiErr.Message = body.Error.Message
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

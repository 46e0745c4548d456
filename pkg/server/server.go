package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shishobooks/catalog/pkg/binder"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/errcodes"
	"github.com/shishobooks/catalog/pkg/lists"
	"github.com/shishobooks/catalog/pkg/metrics"
	"github.com/shishobooks/catalog/pkg/ratelimit"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods: []string{http.MethodGet, http.MethodHead},
	}))

	health.RegisterRoutes(e)
	metrics.RegisterRoutes(e)

	var catalogMiddleware []echo.MiddlewareFunc
	var limiter *ratelimit.KeyedRateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.New(cfg.RateLimitRPS, cfg.RateLimitBurst)
		catalogMiddleware = append(catalogMiddleware, ratelimit.Middleware(limiter))
	}

	registerCatalogRoutes(e, db, cfg, catalogMiddleware...)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}
	if limiter != nil {
		srv.RegisterOnShutdown(limiter.Stop)
	}

	return srv, nil
}

// registerCatalogRoutes registers the read-only catalog routes. Every group
// shares the same middleware.
func registerCatalogRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, mw ...echo.MiddlewareFunc) {
	booksGroup := e.Group("/books", mw...)
	books.RegisterRoutesWithGroup(booksGroup, db, cfg)

	authorsGroup := e.Group("/authors", mw...)
	books.RegisterAuthorRoutesWithGroup(authorsGroup, db, cfg)

	listsGroup := e.Group("/lists", mw...)
	lists.RegisterRoutesWithGroup(listsGroup, db, cfg)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}

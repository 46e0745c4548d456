package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	h := newHandler(db, cfg)

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
}

// RegisterAuthorRoutesWithGroup registers the author index on a
// pre-configured group.
func RegisterAuthorRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	h := newHandler(db, cfg)

	g.GET("", h.listAuthors)
}

func newHandler(db *bun.DB, cfg *config.Config) *handler {
	return &handler{
		bookService: NewService(db, cfg.PageSize, cfg.CountMode),
		codec:       filters.NewCodec(),
	}
}

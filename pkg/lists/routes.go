package lists

import (
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/config"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/uptrace/bun"
)

var slugRE = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// RegisterRoutesWithGroup registers curated list routes on a pre-configured
// group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, cfg *config.Config) {
	h := &handler{
		listsService: NewService(db),
		bookService:  books.NewService(db, cfg.PageSize, cfg.CountMode),
		codec:        filters.NewCodec(),
	}

	g.GET("", h.list)
	g.GET("/:slug", h.retrieve)
	g.GET("/:slug/books", h.listBooks)
}

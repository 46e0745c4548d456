package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/client"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/shishobooks/catalog/pkg/searchstate"
)

type printer struct {
	w io.Writer

	mu          sync.Mutex
	lastPending bool
}

// render prints a view once it settles, and a single loading line when it
// starts waiting.
func (p *printer) render(view searchstate.View[*books.ListResponse]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if view.IsPending {
		if !p.lastPending {
			fmt.Fprintln(p.w, "loading...")
		}
		p.lastPending = true
		return
	}
	p.lastPending = false

	if view.Err != nil {
		fmt.Fprintln(p.w, describeErr(view.Err))
		return
	}
	if !view.HasResult || view.Result == nil {
		return
	}
	p.listing(view.Result)
}

func (p *printer) listing(resp *books.ListResponse) {
	if resp.Query != "" {
		fmt.Fprintf(p.w, "\n[%s]\n", resp.Query)
	}
	if len(resp.Books) == 0 {
		fmt.Fprintln(p.w, "No books match these filters.")
		return
	}

	fmt.Fprintf(p.w, "%-6s | %-40s | %-25s | %4s | %4s\n", "ID", "Title", "Authors", "Year", "Rtg")
	fmt.Fprintln(p.w, strings.Repeat("-", 92))
	for _, b := range resp.Books {
		fmt.Fprintf(p.w, "%-6d | %-40s | %-25s | %4s | %4s\n",
			b.ID,
			truncate(b.Title, 40),
			truncate(strings.Join(b.Authors, ", "), 25),
			optInt(b.PublicationYear),
			optRating(b.AverageRating))
	}

	var controls []string
	for _, pc := range resp.Pages {
		switch {
		case pc.Gap:
			controls = append(controls, "...")
		case pc.Current:
			controls = append(controls, fmt.Sprintf("[%d]", pc.Page))
		default:
			controls = append(controls, fmt.Sprintf("%d", pc.Page))
		}
	}
	fmt.Fprintf(p.w, "%s  (%d books)\n", strings.Join(controls, " "), resp.Pagination.TotalItems)
}

func (p *printer) book(b *models.Book) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n%s\n", b.Title)
	if len(b.Authors) > 0 {
		fmt.Fprintf(p.w, "  by %s\n", strings.Join(b.Authors, ", "))
	}
	row := func(label string, value *string) {
		if value != nil && *value != "" {
			fmt.Fprintf(p.w, "  %-10s %s\n", label+":", *value)
		}
	}
	row("ISBN", b.ISBN)
	row("ISBN13", b.ISBN13)
	row("Publisher", b.Publisher)
	row("Language", b.LanguageCode)
	if b.PublicationYear != nil {
		fmt.Fprintf(p.w, "  %-10s %d\n", "Year:", *b.PublicationYear)
	}
	if b.NumPages != nil {
		fmt.Fprintf(p.w, "  %-10s %d\n", "Pages:", *b.NumPages)
	}
	if b.AverageRating != nil {
		fmt.Fprintf(p.w, "  %-10s %.2f\n", "Rating:", *b.AverageRating)
	}
	row("Image", b.ImageURL)
	if b.Description != nil && *b.Description != "" {
		fmt.Fprintf(p.w, "\n%s\n", *b.Description)
	}
}

func (p *printer) authors(resp *client.AuthorsResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, g := range resp.Groups {
		names := make([]string, len(g.Authors))
		for i, a := range g.Authors {
			names[i] = a.Name
		}
		fmt.Fprintf(p.w, "%s: %s\n", g.Letter, strings.Join(names, ", "))
	}
	fmt.Fprintf(p.w, "(%d authors)\n", resp.Total)
}

func (p *printer) lists(resp *client.ListsResponse) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(resp.Lists) == 0 {
		fmt.Fprintln(p.w, "No curated lists.")
		return
	}
	for _, l := range resp.Lists {
		fmt.Fprintf(p.w, "%-24s %s (%d books)\n", l.Slug, l.Name, l.BookCount)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func optInt(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

func optRating(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

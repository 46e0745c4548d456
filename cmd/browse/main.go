package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/client"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/shishobooks/catalog/pkg/searchstate"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:  "browse",
		Usage: "interactively search and filter the catalog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Usage:   "catalog API base URL",
				Value:   "http://localhost:3689",
				EnvVars: []string{"CATALOG_URL"},
			},
			&cli.StringFlag{
				Name:  "list",
				Usage: "restrict browsing to a curated list `SLUG`",
			},
			&cli.DurationFlag{
				Name:    "debounce",
				Usage:   "how long to wait after typing before searching",
				Value:   300 * time.Millisecond,
				EnvVars: []string{"SEARCH_DEBOUNCE"},
			},
			&cli.StringFlag{
				Name:  "query",
				Usage: "initial filter query string",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, c.String("url"), c.String("list"), c.String("query"), c.Duration("debounce"))
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("browse error")
	}
}

func run(ctx context.Context, baseURL, list, query string, debounce time.Duration) error {
	cl, err := client.New(baseURL, client.Options{})
	if err != nil {
		return err
	}

	initial := filters.Empty()
	if query != "" {
		initial, err = parseState(ctx, query)
		if err != nil {
			return err
		}
	}

	fetch := func(ctx context.Context, q string) (*books.ListResponse, error) {
		if list == "" {
			return cl.SearchBooks(ctx, q)
		}
		resp, err := cl.ListBooks(ctx, list, q)
		if err != nil {
			return nil, err
		}
		return &resp.ListResponse, nil
	}

	out := &printer{w: os.Stdout}
	session := searchstate.NewSession(ctx, searchstate.SessionOptions[*books.ListResponse]{
		Debounce: debounce,
		Fetch:    fetch,
		Render:   out.render,
		Initial:  initial,
	})
	defer session.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("Catalog browser. Type help for commands.")
	session.Load()

	for {
		input, err := line.Prompt("catalog> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.WithStack(err)
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		cmd, err := parseCommand(input)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if cmd.name == cmdQuit {
			return nil
		}
		if err := execute(ctx, cmd, session, cl, out); err != nil {
			fmt.Println(describeErr(err))
		}
	}
}

func execute(ctx context.Context, cmd command, session *searchstate.Session[*books.ListResponse], cl *client.Client, out *printer) error {
	view := session.View()

	switch cmd.name {
	case cmdHelp:
		fmt.Print(helpText)
	case cmdSearch:
		session.SetSearch(cmd.arg)
	case cmdAuthor:
		session.ToggleAuthor(cmd.arg)
	case cmdClearAuthors:
		session.ClearAuthors()
	case cmdPage:
		session.SetPage(cmd.page)
	case cmdNext:
		if view.HasResult && view.Result.Links.Next != nil {
			return navigate(ctx, session, *view.Result.Links.Next)
		}
		fmt.Println("already on the last page")
	case cmdPrev:
		if view.HasResult && view.Result.Links.Prev != nil {
			return navigate(ctx, session, *view.Result.Links.Prev)
		}
		fmt.Println("already on the first page")
	case cmdFilter:
		return navigate(ctx, session, cmd.arg)
	case cmdReload:
		session.Load()
	case cmdBook:
		book, err := cl.RetrieveBook(ctx, cmd.page)
		if err != nil {
			return err
		}
		out.book(book)
	case cmdAuthors:
		resp, err := cl.ListAuthors(ctx, cmd.arg)
		if err != nil {
			return err
		}
		out.authors(resp)
	case cmdLists:
		resp, err := cl.ListLists(ctx)
		if err != nil {
			return err
		}
		out.lists(resp)
	}
	return nil
}

func navigate(ctx context.Context, session *searchstate.Session[*books.ListResponse], query string) error {
	state, err := parseState(ctx, query)
	if err != nil {
		return err
	}
	session.Navigate(state)
	return nil
}

func parseState(ctx context.Context, query string) (filters.State, error) {
	values, err := parseQuery(query)
	if err != nil {
		return filters.State{}, err
	}
	return filters.NewCodec().Decode(ctx, values), nil
}

func describeErr(err error) string {
	switch {
	case errors.Is(err, client.ErrSetupRequired):
		return "The catalog hasn't been set up yet. Import books and run the migrations first."
	case errors.Is(err, client.ErrNotFound):
		return "Not found."
	}
	return "Error: " + err.Error()
}

package main

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	cmdHelp         = "help"
	cmdQuit         = "quit"
	cmdSearch       = "search"
	cmdAuthor       = "author"
	cmdClearAuthors = "clear-authors"
	cmdPage         = "page"
	cmdNext         = "next"
	cmdPrev         = "prev"
	cmdFilter       = "filter"
	cmdReload       = "reload"
	cmdBook         = "book"
	cmdAuthors      = "authors"
	cmdLists        = "lists"
)

const helpText = `Commands:
  /<text>, search <text>   search titles, ISBNs and publishers
  author <name>            toggle an author filter
  clear-authors            drop all author filters
  page <n>, next, prev     move between pages
  filter <query>           replace all filters with a query string (e.g. rtg=4&lng=en)
  reload                   fetch the current page again
  book <id>                show a book
  authors [letter]         show the author index
  lists                    show curated lists
  quit                     exit
`

var aliases = map[string]string{
	"s":  cmdSearch,
	"a":  cmdAuthor,
	"ca": cmdClearAuthors,
	"p":  cmdPage,
	"n":  cmdNext,
	"b":  cmdPrev,
	"f":  cmdFilter,
	"r":  cmdReload,
	"q":  cmdQuit,
	"?":  cmdHelp,

	"exit": cmdQuit,
}

type command struct {
	name string
	arg  string
	page int
}

// parseCommand splits a prompt line into a command and its argument.
func parseCommand(input string) (command, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "/") {
		return command{name: cmdSearch, arg: strings.TrimSpace(input[1:])}, nil
	}

	name, arg, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	arg = strings.TrimSpace(arg)
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	cmd := command{name: name, arg: arg}
	switch name {
	case cmdHelp, cmdQuit, cmdClearAuthors, cmdNext, cmdPrev, cmdReload, cmdLists, cmdSearch:
	case cmdAuthor, cmdFilter:
		if arg == "" {
			return command{}, errors.Errorf("%s needs an argument", name)
		}
	case cmdAuthors:
		if len(arg) > 1 {
			return command{}, errors.New("authors takes a single letter")
		}
	case cmdPage, cmdBook:
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return command{}, errors.Errorf("%s needs a positive number", name)
		}
		cmd.page = n
	default:
		return command{}, errors.Errorf("unknown command %q, type help for commands", name)
	}
	return cmd, nil
}

func parseQuery(query string) (url.Values, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(strings.TrimSpace(query), "?"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid query string")
	}
	return values, nil
}

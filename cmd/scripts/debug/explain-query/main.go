package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/catalog/pkg/books"
	"github.com/shishobooks/catalog/pkg/filters"
	"github.com/shishobooks/catalog/pkg/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	var opts struct {
		Database string `short:"d" long:"database" description:"A catalog database to count matches and print the query plan against"`
		PageSize int    `short:"s" long:"page-size" default:"30" description:"Page size used for the fetch query"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/explain-query [--database path/to/catalog.db] '<query string>'")
		os.Exit(1)
	}

	values, err := url.ParseQuery(strings.TrimPrefix(args[0], "?"))
	if err != nil {
		log.Err(err).Fatal("query parse error")
	}

	state, anomalies := filters.NewCodec().DecodeWithAnomalies(ctx, values)
	for _, a := range anomalies {
		fmt.Printf("Ignored: %s=%q (%s)\n", a.Key, a.Value, a.Reason)
	}
	fmt.Printf("Canonical: %s\n", filters.Encode(state))

	pred := books.BuildPredicate(state)
	fmt.Printf("Dimensions: %v\n", pred.Dimensions())

	path := ":memory:"
	if opts.Database != "" {
		path = opts.Database
	}
	sqldb, err := sql.Open(sqliteshim.ShimName, path)
	if err != nil {
		log.Err(err).Fatal("database open error")
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	offset := (state.Page - 1) * opts.PageSize
	fetch := pred.Apply(db.NewSelect().Model((*models.Book)(nil))).
		Order("b.id ASC").
		Limit(opts.PageSize).
		Offset(offset)
	fmt.Printf("Fetch: %s\n", fetch.String())

	if opts.Database == "" {
		return
	}

	store := books.NewStore(db, "")
	n, err := store.CountMatching(ctx, pred)
	if err != nil {
		log.Err(err).Fatal("count error")
	}
	fmt.Printf("Matches: %d\n", n)

	rows, err := db.QueryContext(ctx, "EXPLAIN QUERY PLAN "+fetch.String())
	if err != nil {
		log.Err(err).Fatal("explain error")
	}
	defer rows.Close()

	fmt.Println("Plan:")
	for rows.Next() {
		var id, parent, notused int
		var detail string
		if err := rows.Scan(&id, &parent, &notused, &detail); err != nil {
			log.Err(err).Fatal("explain scan error")
		}
		fmt.Printf("  %d %d %s\n", id, parent, detail)
	}
	if err := rows.Err(); err != nil {
		log.Err(err).Fatal("explain rows error")
	}
}

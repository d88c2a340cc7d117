package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/manga-recommender/internal/app"
)

func main() {
	var (
		csvPath string
		fromDB  bool
		force   bool
	)
	flag.StringVar(&csvPath, "csv", "", "index the catalog from this CSV export")
	flag.BoolVar(&fromDB, "db", false, "index the catalog from the Postgres catalog_item table")
	flag.BoolVar(&force, "force", false, "reindex even when the collection already holds points")
	flag.Parse()

	if csvPath != "" && fromDB {
		fmt.Fprintln(os.Stderr, "-csv and -db are mutually exclusive")
		os.Exit(2)
	}
	opts := app.IngestOptions{CSVPath: csvPath, Force: force}
	switch {
	case fromDB:
		opts.Source = "db"
	case csvPath != "":
		opts.Source = "csv"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, err := app.Ingest(ctx, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		os.Exit(1)
	}
	if stats.Skipped {
		fmt.Println("index already populated; rerun with -force to reindex")
		return
	}
	fmt.Printf("indexed %d of %d catalog items in %d batches\n", stats.Indexed, stats.Total, stats.Batches)
}

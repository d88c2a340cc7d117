package app

import (
	"context"
	"fmt"

	"github.com/yungbote/manga-recommender/internal/config"
	catalogmod "github.com/yungbote/manga-recommender/internal/modules/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

type IngestOptions struct {
	// Source overrides the configured catalog source when set ("csv" or "db").
	Source  string
	CSVPath string
	Force   bool
}

// Ingest indexes the catalog once and returns the indexer's stats.
func Ingest(ctx context.Context, opts IngestOptions) (catalogmod.Stats, error) {
	cfg, err := config.Load()
	if err != nil {
		return catalogmod.Stats{}, fmt.Errorf("load config: %w", err)
	}
	if opts.Source != "" {
		cfg.Catalog.Source = opts.Source
	}
	if opts.CSVPath != "" {
		cfg.Catalog.CSVPath = opts.CSVPath
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return catalogmod.Stats{}, fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	clients, err := wireIndexClients(ctx, log, cfg)
	if err != nil {
		return catalogmod.Stats{}, err
	}
	defer clients.Close()

	stats, err := IndexCatalog(ctx, log, cfg.Catalog, clients, opts.Force)
	if err != nil {
		return stats, err
	}
	log.Info("catalog ingest finished",
		"source", cfg.Catalog.Source,
		"total", stats.Total,
		"indexed", stats.Indexed,
		"batches", stats.Batches,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

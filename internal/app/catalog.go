package app

import (
	"context"
	"fmt"

	"github.com/yungbote/manga-recommender/internal/config"
	catalogmod "github.com/yungbote/manga-recommender/internal/modules/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// CatalogSource picks the configured catalog source.
func CatalogSource(log *logger.Logger, cfg config.CatalogConfig, clients Clients) (catalogmod.Source, error) {
	switch cfg.Source {
	case "db":
		if clients.Postgres == nil {
			return nil, fmt.Errorf("catalog source db requires postgres")
		}
		return catalogmod.NewDBSource(log, clients.Postgres.DB()), nil
	case "csv", "":
		return catalogmod.NewCSVSource(log, cfg.CSVPath), nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// IndexCatalog embeds the configured catalog into the vector index.
func IndexCatalog(ctx context.Context, log *logger.Logger, cfg config.CatalogConfig, clients Clients, force bool) (catalogmod.Stats, error) {
	source, err := CatalogSource(log, cfg, clients)
	if err != nil {
		return catalogmod.Stats{}, err
	}
	indexer := catalogmod.NewIndexer(log, source, clients.OpenAI, clients.Index, catalogmod.IndexerOptions{
		SourceBatch: cfg.SourceBatch,
		EmbedBatch:  cfg.EmbedBatch,
		Concurrency: cfg.Concurrency,
		Force:       force,
	})
	return indexer.Run(ctx)
}

package app

import (
	"context"
	"fmt"

	"github.com/yungbote/manga-recommender/internal/config"
	"github.com/yungbote/manga-recommender/internal/data/db"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
	"github.com/yungbote/manga-recommender/internal/platform/openai"
	"github.com/yungbote/manga-recommender/internal/platform/qdrant"
	"github.com/yungbote/manga-recommender/internal/platform/rediscache"
	"github.com/yungbote/manga-recommender/internal/platform/tavily"
)

// Clients holds the external systems the recommender talks to. Search, Cache
// and Postgres are nil when their feature is off.
type Clients struct {
	OpenAI     openai.Client
	EmbedModel string
	Index      *qdrant.CatalogIndex
	Search     *tavily.Client
	Cache      *rediscache.RedisStore
	CacheCfg   rediscache.Config
	Postgres   *db.PostgresService
}

func wireClients(ctx context.Context, log *logger.Logger, cfg config.Config) (Clients, error) {
	out, err := wireIndexClients(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}

	// Tavily
	tcfg := tavily.ConfigFromEnv()
	if tcfg.APIKey == "" {
		log.Warn("TAVILY_API_KEY not set; web enrichment disabled")
	} else {
		search, err := tavily.NewClient(log, tcfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init tavily client: %w", err)
		}
		out.Search = search
	}

	// Redis
	if cfg.Cache.Enabled {
		rcfg := rediscache.ConfigFromEnv()
		if cfg.Cache.TTL > 0 {
			rcfg.TTL = cfg.Cache.TTL.Std()
		}
		store, err := rediscache.New(ctx, log, rcfg)
		if err != nil {
			out.Close()
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
		out.Cache = store
		out.CacheCfg = rcfg
	}

	return out, nil
}

// wireIndexClients builds what catalog indexing needs: embeddings, the vector
// index and, for the db source, Postgres.
func wireIndexClients(ctx context.Context, log *logger.Logger, cfg config.Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	// Openai
	oaCfg := openai.ConfigFromEnv()
	oa, err := openai.NewClient(log, oaCfg)
	if err != nil {
		return out, fmt.Errorf("init openai client: %w", err)
	}
	out.OpenAI = oa
	out.EmbedModel = oaCfg.EmbeddingModel()

	// Qdrant
	qcfg, err := qdrant.ResolveConfigFromEnv()
	if err != nil {
		return out, fmt.Errorf("resolve qdrant config: %w", err)
	}
	idx, err := qdrant.New(ctx, log, qcfg)
	if err != nil {
		return out, fmt.Errorf("init qdrant index: %w", err)
	}
	out.Index = idx

	// Postgres
	if cfg.Catalog.Source == "db" {
		pg, err := db.NewPostgresService(log, db.PostgresConfigFromEnv())
		if err != nil {
			return Clients{}, fmt.Errorf("init postgres: %w", err)
		}
		if err := db.AutoMigrateAll(pg.DB()); err != nil {
			_ = pg.Close()
			return Clients{}, fmt.Errorf("postgres automigrate: %w", err)
		}
		out.Postgres = pg
	}

	return out, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}

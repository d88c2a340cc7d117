package app

import (
	"github.com/yungbote/manga-recommender/internal/config"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/providers"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
	"github.com/yungbote/manga-recommender/internal/platform/rediscache"
)

// wireRecommender adapts the clients to the orchestrator ports. Cache decorators
// sit below the tracing wrappers so cached calls still produce spans.
func wireRecommender(log *logger.Logger, cfg config.Config, clients Clients) recommendation.Usecases {
	var embedder steps.Embedder = providers.NewEmbedder(clients.OpenAI)
	var searcher steps.TextSearcher
	if clients.Search != nil {
		searcher = clients.Search
	}
	if clients.Cache != nil {
		ttl := clients.CacheCfg.TTL
		embedder = rediscache.NewEmbedder(log, clients.Cache, embedder, clients.EmbedModel, ttl)
		if searcher != nil {
			searcher = rediscache.NewSearcher(log, clients.Cache, searcher, ttl)
		}
	}
	if searcher != nil {
		searcher = providers.TraceSearcher(searcher)
	}

	return recommendation.New(recommendation.UsecasesDeps{
		Log:       log,
		Embedder:  providers.TraceEmbedder(embedder),
		Index:     providers.TraceIndex(providers.NewIndex(clients.Index)),
		Searcher:  searcher,
		Generator: providers.TraceGenerator(providers.NewGenerator(clients.OpenAI)),
		Policy:    cfg.RecommendationPolicy(),
	})
}

package recommendation

import (
	"context"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// UsecasesDeps is the collaborator bundle for a recommender. Retrievers overrides
// the built-in strategies, which otherwise are built from Embedder and Index.
type UsecasesDeps struct {
	Log *logger.Logger

	Embedder  steps.Embedder
	Index     steps.VectorIndex
	Searcher  steps.TextSearcher
	Generator steps.TextGenerator

	Retrievers []steps.Retriever
	Policy     Policy
}

type Usecases struct {
	orch *Orchestrator
}

func New(deps UsecasesDeps) Usecases {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "RecommendationOrchestrator")
	policy := deps.Policy.withDefaults()

	retrievers := map[rec.Strategy]steps.Retriever{}
	if len(deps.Retrievers) == 0 {
		rdeps := steps.RetrievalDeps{
			Log:          log.With("component", "retrieval"),
			Embedder:     deps.Embedder,
			Index:        deps.Index,
			Timeouts:     policy.Timeouts,
			GenrePenalty: policy.GenrePenalty,
		}
		deps.Retrievers = []steps.Retriever{
			steps.NewCentroidRetriever(rdeps),
			steps.NewMergeRetriever(rdeps, policy.PerFavoriteLimit),
		}
	}
	for _, r := range deps.Retrievers {
		retrievers[r.Strategy()] = r
	}

	return Usecases{orch: &Orchestrator{
		log:        log,
		policy:     policy,
		retrievers: retrievers,
		enricher: steps.NewEnricher(steps.EnrichDeps{
			Log:           log.With("component", "enrichment"),
			Searcher:      deps.Searcher,
			Timeout:       policy.Timeouts.Search,
			MaxFavorites:  policy.EnrichFavorites,
			MaxCandidates: policy.EnrichCandidates,
			Concurrency:   policy.EnrichConcurrency,
		}),
		drafter: steps.NewDrafter(steps.DraftDeps{
			Log:       log.With("component", "draft"),
			Generator: deps.Generator,
			Timeout:   policy.Timeouts.Generate,
		}),
		gate: steps.NewQualityGate(steps.QualityDeps{
			Log:       log.With("component", "quality_gate"),
			Generator: deps.Generator,
			Timeout:   policy.Timeouts.Score,
			Threshold: policy.PassThreshold,
		}),
		tracer: newTracer(),
	}}
}

func (u Usecases) WithLog(log *logger.Logger) Usecases {
	if log == nil || u.orch == nil {
		return u
	}
	cp := *u.orch
	cp.log = log.With("service", "RecommendationOrchestrator")
	u.orch = &cp
	return u
}

// Recommend runs one recommendation from raw questionnaire answers. It returns an
// accepted or force-accepted set, or one of InvalidProfileError,
// RetrievalExhaustedError, ExtractionImpossibleError and IncompleteRunError.
func (u Usecases) Recommend(ctx context.Context, in rec.RawInput) (*rec.RecommendationSet, error) {
	return u.orch.Run(ctx, in)
}

func (u Usecases) Policy() Policy {
	return u.orch.policy
}

package steps

import (
	"context"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

const defaultPerFavoriteLimit = 15

// MergeRetriever queries once per favorite and ranks items by their mean score
// across the queries that returned them.
type MergeRetriever struct {
	deps             RetrievalDeps
	perFavoriteLimit int
}

func NewMergeRetriever(deps RetrievalDeps, perFavoriteLimit int) *MergeRetriever {
	if perFavoriteLimit <= 0 {
		perFavoriteLimit = defaultPerFavoriteLimit
	}
	return &MergeRetriever{deps: deps.withDefaults(), perFavoriteLimit: perFavoriteLimit}
}

func (r *MergeRetriever) Strategy() rec.Strategy { return rec.StrategyIndividualMerge }

type mergeAccum struct {
	cand  rec.Candidate
	total float64
	count int
}

func (r *MergeRetriever) Retrieve(ctx context.Context, req RetrievalRequest) ([]rec.Candidate, error) {
	log := r.deps.Log.With("strategy", string(rec.StrategyIndividualMerge), "relaxed", req.Relaxed)
	seeds := resolveSeeds(ctx, r.deps, req.Profile)
	if parentDone(ctx) {
		return nil, ctx.Err()
	}
	filter := indexFilter(req.Profile, seeds)
	limit := r.perFavoriteLimit
	if req.Relaxed {
		limit *= relaxedFetchFactor
	}

	acc := map[string]*mergeAccum{}
	order := make([]string, 0)
	for _, s := range seeds {
		vec, err := embedSeed(ctx, r.deps, s)
		if err != nil || len(vec) == 0 {
			if parentDone(ctx) {
				return nil, ctx.Err()
			}
			log.Warn("embed favorite failed", "favorite", s.Name, "error", err)
			continue
		}
		hits, err := queryIndex(ctx, r.deps, vec, filter, limit)
		if err != nil {
			if parentDone(ctx) {
				return nil, ctx.Err()
			}
			log.Warn("favorite query failed", "favorite", s.Name, "error", err)
			continue
		}
		for _, h := range hits {
			id := h.Item.ID
			if id == "" {
				continue
			}
			a, ok := acc[id]
			if !ok {
				a = &mergeAccum{cand: rec.Candidate{Item: h.Item, Provenance: rec.StrategyIndividualMerge}}
				acc[id] = a
				order = append(order, id)
			}
			a.total += h.Score
			a.count++
		}
	}

	merged := make([]rec.Candidate, 0, len(acc))
	for _, id := range order {
		a := acc[id]
		c := a.cand
		c.Score = a.total / float64(a.count)
		merged = append(merged, c)
	}
	return rankCandidates(
		merged,
		req.Profile,
		excludedTitles(req, seeds),
		req.TopK,
		req.Relaxed,
		r.deps.GenrePenalty,
	), nil
}

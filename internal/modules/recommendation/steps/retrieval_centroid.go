package steps

import (
	"context"
	"math"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

// CentroidRetriever embeds every favorite, averages the vectors and issues a single
// query with the normalized mean.
type CentroidRetriever struct {
	deps RetrievalDeps
}

func NewCentroidRetriever(deps RetrievalDeps) *CentroidRetriever {
	return &CentroidRetriever{deps: deps.withDefaults()}
}

func (r *CentroidRetriever) Strategy() rec.Strategy { return rec.StrategyCentroid }

func (r *CentroidRetriever) Retrieve(ctx context.Context, req RetrievalRequest) ([]rec.Candidate, error) {
	log := r.deps.Log.With("strategy", string(rec.StrategyCentroid), "relaxed", req.Relaxed)
	seeds := resolveSeeds(ctx, r.deps, req.Profile)
	if parentDone(ctx) {
		return nil, ctx.Err()
	}

	vectors := make([][]float32, 0, len(seeds))
	for _, s := range seeds {
		vec, err := embedSeed(ctx, r.deps, s)
		if err != nil {
			if parentDone(ctx) {
				return nil, ctx.Err()
			}
			log.Warn("embed favorite failed", "favorite", s.Name, "error", err)
			continue
		}
		if len(vec) > 0 {
			vectors = append(vectors, vec)
		}
	}
	centroid := meanVector(vectors)
	if centroid == nil {
		log.Warn("no usable favorite embeddings")
		return []rec.Candidate{}, nil
	}

	hits, err := queryIndex(ctx, r.deps, centroid, indexFilter(req.Profile, seeds), fetchLimit(r.deps, req.TopK, req.Relaxed))
	if err != nil {
		if parentDone(ctx) {
			return nil, ctx.Err()
		}
		log.Warn("centroid query failed", "error", err)
		return []rec.Candidate{}, nil
	}
	return rankCandidates(
		hitsToCandidates(hits, rec.StrategyCentroid),
		req.Profile,
		excludedTitles(req, seeds),
		req.TopK,
		req.Relaxed,
		r.deps.GenrePenalty,
	), nil
}

// meanVector averages vectors of the leading dimension and normalizes the result
// to unit length. Vectors of another dimension are ignored. A zero mean yields nil.
func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	n := 0
	for _, v := range vectors {
		if len(v) != dim {
			continue
		}
		for i, x := range v {
			sum[i] += float64(x)
		}
		n++
	}
	var norm float64
	for i := range sum {
		sum[i] /= float64(n)
		norm += sum[i] * sum[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 || math.IsNaN(norm) {
		return nil
	}
	out := make([]float32, dim)
	for i := range sum {
		out[i] = float32(sum[i] / norm)
	}
	return out
}

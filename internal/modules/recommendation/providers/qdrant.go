package providers

import (
	"context"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/platform/qdrant"
)

type catalogIndex interface {
	Query(ctx context.Context, vector []float32, filter qdrant.Filter, topK int) ([]qdrant.Match, error)
	FindByTitle(ctx context.Context, title string) (*catalog.Item, error)
}

// Index exposes the Qdrant catalog index as a VectorIndex and TitleResolver.
type Index struct {
	idx catalogIndex
}

func NewIndex(idx *qdrant.CatalogIndex) *Index {
	return &Index{idx: idx}
}

func (i *Index) Query(ctx context.Context, vector []float32, filter steps.IndexFilter, topK int) ([]steps.IndexHit, error) {
	matches, err := i.idx.Query(ctx, vector, qdrant.Filter{
		MaxAgeRating: filter.MaxAgeRating,
		ExcludeIDs:   filter.ExcludeIDs,
	}, topK)
	if err != nil {
		return nil, err
	}
	out := make([]steps.IndexHit, 0, len(matches))
	for _, m := range matches {
		out = append(out, steps.IndexHit{Item: m.Item, Score: m.Score})
	}
	return out, nil
}

func (i *Index) FindByTitle(ctx context.Context, title string) (*catalog.Item, error) {
	return i.idx.FindByTitle(ctx, title)
}

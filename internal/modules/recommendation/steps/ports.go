package steps

import (
	"context"
	"time"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
)

// Embedder turns text into a fixed-dimension vector. Repeated calls on identical
// text must be directionally consistent.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// IndexFilter is applied by the vector index server-side. Genres are passed along
// for adapters that can use them as a hint; they are never a hard filter.
type IndexFilter struct {
	Genres       []string
	MaxAgeRating catalog.AgeRating
	ExcludeIDs   []string
}

type IndexHit struct {
	Item  catalog.Item
	Score float64
}

// VectorIndex answers similarity queries; hits are ordered by descending score.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, filter IndexFilter, topK int) ([]IndexHit, error)
}

// TitleResolver is an optional VectorIndex capability used to resolve a declared
// favorite to its catalog entry. A nil item with nil error means no match.
type TitleResolver interface {
	FindByTitle(ctx context.Context, title string) (*catalog.Item, error)
}

// TextSearcher returns a free-text snippet for a query, or "" when nothing is found.
type TextSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

type ScoreResult struct {
	Score     float64
	Rationale string
}

// TextGenerator drafts recommendations and scores them. Prompts come as a system
// and user message pair.
type TextGenerator interface {
	Generate(ctx context.Context, system, user string) (string, error)
	Score(ctx context.Context, system, user string) (ScoreResult, error)
}

// Timeouts bound each class of collaborator call. Zero disables the bound.
type Timeouts struct {
	Embed    time.Duration
	Query    time.Duration
	Search   time.Duration
	Generate time.Duration
	Score    time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Embed:    10 * time.Second,
		Query:    10 * time.Second,
		Search:   8 * time.Second,
		Generate: 60 * time.Second,
		Score:    30 * time.Second,
	}
}

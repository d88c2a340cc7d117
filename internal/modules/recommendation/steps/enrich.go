package steps

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/prompts"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const (
	defaultEnrichFavorites   = 2
	defaultEnrichCandidates  = 8
	defaultEnrichConcurrency = 8
)

type EnrichDeps struct {
	Log      *logger.Logger
	Searcher TextSearcher
	Timeout  time.Duration

	MaxFavorites  int
	MaxCandidates int
	Concurrency   int
}

// Enricher fetches a search note for the leading favorites and candidates in
// parallel. Failed or timed-out lookups leave the note empty; enrichment is never
// fatal.
type Enricher struct {
	deps EnrichDeps
}

func NewEnricher(deps EnrichDeps) *Enricher {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.MaxFavorites <= 0 {
		deps.MaxFavorites = defaultEnrichFavorites
	}
	if deps.MaxCandidates <= 0 {
		deps.MaxCandidates = defaultEnrichCandidates
	}
	if deps.Concurrency <= 0 {
		deps.Concurrency = defaultEnrichConcurrency
	}
	return &Enricher{deps: deps}
}

type enrichTarget struct {
	favorite bool
	key      string
	title    string
}

func (e *Enricher) Enrich(ctx context.Context, favorites []string, candidates []rec.Candidate) rec.Notes {
	notes := rec.Notes{Favorites: map[string]string{}, Items: map[string]string{}}
	if e == nil || e.deps.Searcher == nil {
		return notes
	}

	targets := make([]enrichTarget, 0, e.deps.MaxFavorites+e.deps.MaxCandidates)
	seenFav := map[string]struct{}{}
	for _, f := range favorites {
		if len(seenFav) >= e.deps.MaxFavorites {
			break
		}
		if _, ok := seenFav[f]; ok || strings.TrimSpace(f) == "" {
			continue
		}
		seenFav[f] = struct{}{}
		targets = append(targets, enrichTarget{favorite: true, key: f, title: f})
	}
	for i, c := range candidates {
		if i >= e.deps.MaxCandidates {
			break
		}
		targets = append(targets, enrichTarget{key: c.Item.ID, title: c.Item.Title})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.deps.Concurrency)
	for _, t := range targets {
		t := t
		g.Go(func() error {
			note := e.lookup(gctx, t.title)
			mu.Lock()
			defer mu.Unlock()
			if t.favorite {
				notes.Favorites[t.key] = note
			} else {
				notes.Items[t.key] = note
			}
			return nil
		})
	}
	_ = g.Wait()
	return notes
}

func (e *Enricher) lookup(ctx context.Context, title string) string {
	callCtx, cancel := withTimeout(ctx, e.deps.Timeout)
	defer cancel()
	snippet, err := e.deps.Searcher.Search(callCtx, prompts.SearchQuery(title))
	if err = classifyCallErr(callCtx, "text_search", "search", err); err != nil {
		e.deps.Log.Debug("enrichment lookup failed", "title", title, "error", err)
		return ""
	}
	return strings.TrimSpace(snippet)
}

package steps

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	calls   []string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := f.vectors[text]
	if !ok {
		return nil, errors.New("no vector for " + text)
	}
	return append([]float32(nil), v...), nil
}

type indexedItem struct {
	item catalog.Item
	vec  []float32
}

type fakeIndex struct {
	mu      sync.Mutex
	items   []indexedItem
	queries int
	limits  []int
	filters []IndexFilter
	err     error
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, filter IndexFilter, topK int) ([]IndexHit, error) {
	f.mu.Lock()
	f.queries++
	f.limits = append(f.limits, topK)
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	excluded := map[string]bool{}
	for _, id := range filter.ExcludeIDs {
		excluded[id] = true
	}
	hits := []IndexHit{}
	for _, it := range f.items {
		if excluded[it.item.ID] || it.item.AgeRating > filter.MaxAgeRating {
			continue
		}
		hits = append(hits, IndexHit{Item: it.item, Score: dot(vector, it.vec)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// resolvingIndex adds exact, case-insensitive title lookup to fakeIndex.
type resolvingIndex struct {
	*fakeIndex
}

func (r resolvingIndex) FindByTitle(ctx context.Context, title string) (*catalog.Item, error) {
	for _, it := range r.items {
		if strings.EqualFold(it.item.Title, strings.TrimSpace(title)) {
			item := it.item
			return &item, nil
		}
	}
	return nil, nil
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		if i < len(b) {
			s += float64(a[i]) * float64(b[i])
		}
	}
	return s
}

type fakeSearcher struct {
	mu      sync.Mutex
	notes   map[string]string
	fail    map[string]bool
	block   map[string]bool
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string) (string, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.block[query] {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if f.fail[query] {
		return "", errors.New("search failed")
	}
	return f.notes[query], nil
}

type fakeGenerator struct {
	mu          sync.Mutex
	drafts      []string
	draftErrs   []error
	score       ScoreResult
	scoreErr    error
	generateN   int
	scoreN      int
	lastPrompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.generateN
	f.generateN++
	f.lastPrompts = append(f.lastPrompts, user)
	if i < len(f.draftErrs) && f.draftErrs[i] != nil {
		return "", f.draftErrs[i]
	}
	if len(f.drafts) == 0 {
		return "", nil
	}
	if i >= len(f.drafts) {
		i = len(f.drafts) - 1
	}
	return f.drafts[i], nil
}

func (f *fakeGenerator) Score(ctx context.Context, system, user string) (ScoreResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scoreN++
	return f.score, f.scoreErr
}

func testItem(id, title string, genres ...string) catalog.Item {
	return catalog.Item{ID: id, Title: title, Genres: genres, Synopsis: title + " synopsis"}
}

func notesEmpty() rec.Notes {
	return rec.Notes{}
}

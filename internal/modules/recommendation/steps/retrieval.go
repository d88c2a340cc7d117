package steps

import (
	"context"
	"sort"
	"strings"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

const (
	defaultGenrePenalty = 0.05
	defaultOverfetch    = 3
	relaxedFetchFactor  = 2
)

// RetrievalRequest is one call into a retrieval strategy. Relaxed widens the fetch
// and disables series-volume deduplication; the age ceiling and favorite exclusion
// always hold.
type RetrievalRequest struct {
	Profile  rec.Profile
	Excluded []string
	TopK     int
	Relaxed  bool
}

// Retriever produces candidates ordered by descending score, at most TopK long.
// Collaborator failures degrade to fewer candidates; the only error returned is the
// caller's context ending.
type Retriever interface {
	Strategy() rec.Strategy
	Retrieve(ctx context.Context, req RetrievalRequest) ([]rec.Candidate, error)
}

type RetrievalDeps struct {
	Log      *logger.Logger
	Embedder Embedder
	Index    VectorIndex
	Timeouts Timeouts

	// GenrePenalty is subtracted from the score of items sharing no preferred genre.
	GenrePenalty float64
	// Overfetch multiplies topK on index queries so post-filtering has headroom.
	Overfetch int
}

func (d RetrievalDeps) withDefaults() RetrievalDeps {
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	if d.GenrePenalty < 0 {
		d.GenrePenalty = 0
	} else if d.GenrePenalty == 0 {
		d.GenrePenalty = defaultGenrePenalty
	}
	if d.Overfetch <= 0 {
		d.Overfetch = defaultOverfetch
	}
	return d
}

// seed is one favorite prepared for embedding.
type seed struct {
	Name   string
	Text   string
	ItemID string
	Title  string
}

// resolveSeeds looks each favorite up in the index when it can resolve titles.
// A resolved favorite is embedded by its catalog document and excluded by id.
// Profiles without favorites fall back to a single seed built from genres and
// demographic.
func resolveSeeds(ctx context.Context, deps RetrievalDeps, profile rec.Profile) []seed {
	out := make([]seed, 0, len(profile.Favorites))
	resolver, _ := deps.Index.(TitleResolver)
	for _, name := range profile.Favorites {
		s := seed{Name: name, Text: name}
		if resolver != nil {
			callCtx, cancel := withTimeout(ctx, deps.Timeouts.Query)
			item, err := resolver.FindByTitle(callCtx, name)
			err = classifyCallErr(callCtx, "vector_index", "find_by_title", err)
			cancel()
			if err != nil {
				deps.Log.Warn("favorite resolution failed", "favorite", name, "error", err)
			} else if item != nil && strings.TrimSpace(item.ID) != "" {
				s.ItemID = item.ID
				s.Title = item.Title
				if doc := strings.TrimSpace(item.DocumentText()); doc != "" {
					s.Text = doc
				}
			}
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		if text := profileSeedText(profile); text != "" {
			out = append(out, seed{Name: text, Text: text})
		}
	}
	return out
}

func profileSeedText(p rec.Profile) string {
	parts := make([]string, 0, len(p.Genres)+1)
	parts = append(parts, p.Genres...)
	if p.Demographic != "" {
		parts = append(parts, string(p.Demographic))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

func embedSeed(ctx context.Context, deps RetrievalDeps, s seed) ([]float32, error) {
	callCtx, cancel := withTimeout(ctx, deps.Timeouts.Embed)
	defer cancel()
	vec, err := deps.Embedder.Embed(callCtx, s.Text)
	return vec, classifyCallErr(callCtx, "embedder", "embed", err)
}

func queryIndex(ctx context.Context, deps RetrievalDeps, vec []float32, filter IndexFilter, limit int) ([]IndexHit, error) {
	callCtx, cancel := withTimeout(ctx, deps.Timeouts.Query)
	defer cancel()
	hits, err := deps.Index.Query(callCtx, vec, filter, limit)
	return hits, classifyCallErr(callCtx, "vector_index", "query", err)
}

func indexFilter(profile rec.Profile, seeds []seed) IndexFilter {
	ids := make([]string, 0, len(seeds))
	for _, s := range seeds {
		if s.ItemID != "" {
			ids = append(ids, s.ItemID)
		}
	}
	return IndexFilter{Genres: profile.Genres, MaxAgeRating: profile.MaxAgeRating, ExcludeIDs: ids}
}

// excludedTitles merges the caller's exclusions with titles of resolved favorites.
func excludedTitles(req RetrievalRequest, seeds []seed) []string {
	out := append([]string(nil), req.Excluded...)
	for _, s := range seeds {
		if s.Title != "" {
			out = append(out, s.Title)
		}
	}
	return out
}

func fetchLimit(deps RetrievalDeps, topK int, relaxed bool) int {
	n := topK * deps.Overfetch
	if relaxed {
		n *= relaxedFetchFactor
	}
	return n
}

// rankCandidates applies the post-query rules shared by both strategies: the age
// ceiling, favorite exclusion, the soft genre penalty, ordering by score then id,
// series-volume dedup unless relaxed, and truncation to topK.
func rankCandidates(
	scored []rec.Candidate,
	profile rec.Profile,
	excluded []string,
	topK int,
	relaxed bool,
	penalty float64,
) []rec.Candidate {
	kept := make([]rec.Candidate, 0, len(scored))
	for _, c := range scored {
		if strings.TrimSpace(c.Item.ID) == "" || strings.TrimSpace(c.Item.Title) == "" {
			continue
		}
		if c.Item.AgeRating > profile.MaxAgeRating {
			continue
		}
		if matchesAny(excluded, c.Item.Title) {
			continue
		}
		if len(profile.Genres) > 0 && !c.Item.HasGenre(profile.Genres) {
			c.Score -= penalty
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Item.ID < kept[j].Item.ID
	})

	if !relaxed {
		kept = dedupeVolumes(kept)
	}
	if topK > 0 && len(kept) > topK {
		kept = kept[:topK]
	}
	return kept
}

// dedupeVolumes keeps the best-ranked entry of each group of near-identical titles.
func dedupeVolumes(ranked []rec.Candidate) []rec.Candidate {
	out := make([]rec.Candidate, 0, len(ranked))
	seenIDs := make(map[string]struct{}, len(ranked))
	titles := make([]string, 0, len(ranked))
	for _, c := range ranked {
		if _, ok := seenIDs[c.Item.ID]; ok {
			continue
		}
		if matchesAny(titles, c.Item.Title) {
			continue
		}
		seenIDs[c.Item.ID] = struct{}{}
		titles = append(titles, c.Item.Title)
		out = append(out, c)
	}
	return out
}

func hitsToCandidates(hits []IndexHit, provenance rec.Strategy) []rec.Candidate {
	out := make([]rec.Candidate, 0, len(hits))
	for _, h := range hits {
		out = append(out, rec.Candidate{Item: h.Item, Score: h.Score, Provenance: provenance})
	}
	return out
}

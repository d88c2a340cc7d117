package catalog

import (
	"context"
	"strings"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
)

// Source streams catalog items in batches. fn is called sequentially; an error
// from fn stops the stream and is returned.
type Source interface {
	Count(ctx context.Context) (int, error)
	Batches(ctx context.Context, size int, fn func([]catalog.Item) error) error
}

// usable reports whether an item carries enough text to be indexed.
func usable(it catalog.Item) bool {
	return strings.TrimSpace(it.ID) != "" && strings.TrimSpace(it.Title) != "" && strings.TrimSpace(it.Synopsis) != ""
}

// dedupe tracks first-seen ids and normalized titles across batches.
type dedupe struct {
	ids    map[string]struct{}
	titles map[string]struct{}
}

func newDedupe() *dedupe {
	return &dedupe{ids: map[string]struct{}{}, titles: map[string]struct{}{}}
}

func (d *dedupe) first(it catalog.Item) bool {
	title := strings.Join(strings.Fields(strings.ToLower(it.Title)), " ")
	if _, ok := d.ids[it.ID]; ok {
		return false
	}
	if _, ok := d.titles[title]; ok {
		return false
	}
	d.ids[it.ID] = struct{}{}
	d.titles[title] = struct{}{}
	return true
}

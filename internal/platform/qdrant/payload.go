package qdrant

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
)

// Payload keys stored alongside each catalog vector.
const (
	payloadItemID    = "item_id"
	payloadTitle     = "title"
	payloadTitleNorm = "title_norm"
	payloadSubtitle  = "subtitle"
	payloadGenres    = "genres"
	payloadAuthor    = "author"
	payloadSynopsis  = "synopsis"
	payloadAgeRating = "age_rating"
	payloadImageURL  = "image_url"
)

var pointIDNamespaceUUID = uuid.MustParse("6b3c51a4-8f0e-4d8e-9a55-2f8f1d6c0b71")

// pointID derives a stable point id so re-ingesting an item overwrites it.
func pointID(collection, itemID string) string {
	return uuid.NewSHA1(pointIDNamespaceUUID, []byte(collection+"|"+itemID)).String()
}

// NormalizeTitle is the form stored in title_norm and used for exact title lookups.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

func itemPayload(it catalog.Item) map[string]any {
	genres := it.Genres
	if genres == nil {
		genres = []string{}
	}
	return map[string]any{
		payloadItemID:    it.ID,
		payloadTitle:     it.Title,
		payloadTitleNorm: NormalizeTitle(it.Title),
		payloadSubtitle:  it.Subtitle,
		payloadGenres:    genres,
		payloadAuthor:    it.Author,
		payloadSynopsis:  it.Synopsis,
		payloadAgeRating: int(it.AgeRating),
		payloadImageURL:  it.ImageURL,
	}
}

// itemFromPayload rebuilds a catalog item; ok is false when the payload has no item id.
func itemFromPayload(p map[string]any) (catalog.Item, bool) {
	it := catalog.Item{
		ID:        payloadString(p, payloadItemID),
		Title:     payloadString(p, payloadTitle),
		Subtitle:  payloadString(p, payloadSubtitle),
		Author:    payloadString(p, payloadAuthor),
		Synopsis:  payloadString(p, payloadSynopsis),
		ImageURL:  payloadString(p, payloadImageURL),
		AgeRating: catalog.AgeRating(payloadInt(p, payloadAgeRating)),
		Genres:    payloadStrings(p, payloadGenres),
	}
	return it, it.ID != ""
}

func payloadString(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return strings.TrimSpace(s)
}

func payloadInt(p map[string]any, key string) int {
	switch v := p[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		return int(catalog.ParseAgeRating(v))
	default:
		return 0
	}
}

func payloadStrings(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, x := range v {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case string:
		return catalog.SplitGenres(v)
	default:
		return []string{}
	}
}

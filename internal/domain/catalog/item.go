package catalog

import (
	"strconv"
	"strings"
	"unicode"
)

// AgeRating is the minimum reader age a catalog item is rated for. Zero means all ages.
type AgeRating int

const (
	AgeAll AgeRating = 0
	Age12  AgeRating = 12
	Age15  AgeRating = 15
	Age19  AgeRating = 19
)

// Item is a read-only catalog entry as the recommendation engine sees it.
type Item struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Genres    []string  `json:"genres"`
	Author    string    `json:"author,omitempty"`
	Synopsis  string    `json:"synopsis,omitempty"`
	AgeRating AgeRating `json:"age_rating"`
	ImageURL  string    `json:"image_url,omitempty"`
}

// DocumentText is the text embedded for an item: title, genres and synopsis.
func (it Item) DocumentText() string {
	parts := make([]string, 0, 3)
	if t := strings.TrimSpace(it.Title); t != "" {
		parts = append(parts, t)
	}
	if len(it.Genres) > 0 {
		parts = append(parts, strings.Join(it.Genres, ", "))
	}
	if s := strings.TrimSpace(it.Synopsis); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, "\n")
}

// HasGenre reports whether any of the item's genres is in want (case-insensitive).
func (it Item) HasGenre(want []string) bool {
	for _, g := range it.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" {
			continue
		}
		for _, w := range want {
			if strings.ToLower(strings.TrimSpace(w)) == g {
				return true
			}
		}
	}
	return false
}

// ParseAgeRating maps catalog age-grade labels ("전체연령", "12세이상", "15", "청소년이용불가", ...)
// to an AgeRating. Unknown labels are treated as all-ages.
func ParseAgeRating(raw string) AgeRating {
	s := strings.TrimSpace(raw)
	if s == "" {
		return AgeAll
	}
	if strings.Contains(s, "청소년") || strings.Contains(s, "성인") || strings.EqualFold(s, "adult") {
		return Age19
	}
	digits := strings.Builder{}
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}
	if digits.Len() == 0 {
		return AgeAll
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return AgeAll
	}
	switch {
	case n >= 18:
		return Age19
	case n >= 15:
		return Age15
	case n >= 12:
		return Age12
	default:
		return AgeAll
	}
}

// SplitGenres splits a genre label like "로맨스/순정, 드라마" into its parts.
// Slash-joined labels are kept whole since the catalog uses them as single genre names.
func SplitGenres(raw string) []string {
	out := []string{}
	for _, g := range strings.Split(raw, ",") {
		g = strings.TrimSpace(g)
		if g != "" {
			out = append(out, g)
		}
	}
	return out
}

package steps

import (
	"strings"
	"unicode/utf8"
)

// shortTitleRunes is the longest candidate title that may not match by being
// contained in the query, so very short titles do not swallow longer queries.
const shortTitleRunes = 3

// MatchTitle reports whether query and candidate name the same work: query is a
// substring of candidate, or candidate is a substring of query and longer than
// three runes.
func MatchTitle(query, candidate string) bool {
	q := normalizeTitle(query)
	c := normalizeTitle(candidate)
	if q == "" || c == "" {
		return false
	}
	if strings.Contains(c, q) {
		return true
	}
	return utf8.RuneCountInString(c) > shortTitleRunes && strings.Contains(q, c)
}

func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// matchesAny reports whether title matches any of the excluded titles.
func matchesAny(excluded []string, title string) bool {
	for _, ex := range excluded {
		if MatchTitle(ex, title) {
			return true
		}
	}
	return false
}

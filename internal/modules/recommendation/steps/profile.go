package steps

import (
	"strings"
	"unicode"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

// Conjunctions split the favorites field only when they stand as whole words.
var favoriteConjunctions = []string{"and", "그리고"}

var genderAliases = map[string]rec.Gender{
	"male":   rec.GenderMale,
	"m":      rec.GenderMale,
	"남":      rec.GenderMale,
	"남성":     rec.GenderMale,
	"female": rec.GenderFemale,
	"f":      rec.GenderFemale,
	"여":      rec.GenderFemale,
	"여성":     rec.GenderFemale,
	"skip":   rec.GenderSkip,
	"":       rec.GenderSkip,
	"선택안함":   rec.GenderSkip,
}

var ageCeilings = map[rec.AgeBracket]catalog.AgeRating{
	rec.Age12to15: catalog.Age12,
	rec.Age15to18: catalog.Age15,
	rec.Age18to30: catalog.Age19,
	rec.Age30to40: catalog.Age19,
	rec.Age40to50: catalog.Age19,
	rec.Age50Plus: catalog.Age19,
}

// NormalizeProfile validates the enumerated answers and parses the favorites field.
// It never calls out to collaborators.
func NormalizeProfile(in rec.RawInput) (rec.Profile, error) {
	gender, ok := genderAliases[strings.ToLower(strings.TrimSpace(in.Gender))]
	if !ok {
		return rec.Profile{}, &InvalidProfileError{Field: "gender", Value: in.Gender}
	}
	bracket := rec.AgeBracket(strings.ReplaceAll(strings.TrimSpace(in.Age), " ", ""))
	ceiling, ok := ageCeilings[bracket]
	if !ok {
		return rec.Profile{}, &InvalidProfileError{Field: "age", Value: in.Age}
	}

	genres := make([]string, 0, len(in.Genres))
	for _, g := range in.Genres {
		if g = strings.TrimSpace(g); g != "" {
			genres = append(genres, g)
		}
	}

	return rec.Profile{
		Gender:       gender,
		AgeBracket:   bracket,
		MaxAgeRating: ceiling,
		Demographic:  DemographicFor(bracket, gender),
		Genres:       genres,
		Favorites:    SplitFavorites(in.Favorites),
	}, nil
}

// DemographicFor maps an age bracket and gender to the catalog's target demographic.
func DemographicFor(bracket rec.AgeBracket, gender rec.Gender) rec.Demographic {
	switch bracket {
	case rec.Age12to15:
		return rec.DemographicKids
	case rec.Age15to18:
		if gender == rec.GenderFemale {
			return rec.DemographicShoujo
		}
		return rec.DemographicShounen
	default:
		if gender == rec.GenderFemale {
			return rec.DemographicJosei
		}
		return rec.DemographicSeinen
	}
}

// SplitFavorites splits on ',' and '/' and on the conjunction words, keeping order
// and duplicates.
func SplitFavorites(raw string) []string {
	out := []string{}
	for _, chunk := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '/' }) {
		for _, part := range splitOnConjunctions(chunk) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func splitOnConjunctions(s string) []string {
	words := strings.FieldsFunc(s, unicode.IsSpace)
	if len(words) == 0 {
		return nil
	}
	var (
		out []string
		cur []string
	)
	for _, w := range words {
		if isConjunction(w) {
			out = append(out, strings.Join(cur, " "))
			cur = cur[:0]
			continue
		}
		cur = append(cur, w)
	}
	return append(out, strings.Join(cur, " "))
}

func isConjunction(w string) bool {
	for _, c := range favoriteConjunctions {
		if strings.EqualFold(w, c) {
			return true
		}
	}
	return false
}

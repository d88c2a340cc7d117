package steps

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

func TestSplitFavoritesDelimiters(t *testing.T) {
	got := SplitFavorites("A, B/C and D")
	want := []string{"A", "B", "C", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("split: want=%v got=%v", want, got)
	}
}

func TestSplitFavoritesEmpty(t *testing.T) {
	got := SplitFavorites("  , / and ")
	if got == nil || len(got) != 0 {
		t.Fatalf("split empty: want=[] got=%#v", got)
	}
	if got := SplitFavorites(""); got == nil || len(got) != 0 {
		t.Fatalf("split blank: want=[] got=%#v", got)
	}
}

func TestSplitFavoritesConjunctionsOnlyAsWords(t *testing.T) {
	got := SplitFavorites("Band of Brothers 그리고 원피스, Sandland")
	want := []string{"Band of Brothers", "원피스", "Sandland"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("split: want=%v got=%v", want, got)
	}
}

func TestSplitFavoritesKeepsDuplicates(t *testing.T) {
	got := SplitFavorites("Naruto, Naruto")
	if len(got) != 2 {
		t.Fatalf("duplicates: want=2 got=%v", got)
	}
}

func TestNormalizeProfile(t *testing.T) {
	p, err := NormalizeProfile(rec.RawInput{
		Gender:    "여성",
		Age:       "15~18",
		Genres:    []string{" Romance ", ""},
		Favorites: "Fruits Basket / Nana",
	})
	if err != nil {
		t.Fatalf("NormalizeProfile: %v", err)
	}
	if p.Gender != rec.GenderFemale {
		t.Fatalf("gender: want=%v got=%v", rec.GenderFemale, p.Gender)
	}
	if p.MaxAgeRating != catalog.Age15 {
		t.Fatalf("age ceiling: want=%v got=%v", catalog.Age15, p.MaxAgeRating)
	}
	if p.Demographic != rec.DemographicShoujo {
		t.Fatalf("demographic: want=%v got=%v", rec.DemographicShoujo, p.Demographic)
	}
	if !reflect.DeepEqual(p.Genres, []string{"Romance"}) {
		t.Fatalf("genres: got=%v", p.Genres)
	}
	if !reflect.DeepEqual(p.Favorites, []string{"Fruits Basket", "Nana"}) {
		t.Fatalf("favorites: got=%v", p.Favorites)
	}
}

func TestNormalizeProfileEmptyGenderIsSkip(t *testing.T) {
	p, err := NormalizeProfile(rec.RawInput{Age: "30~40"})
	if err != nil {
		t.Fatalf("NormalizeProfile: %v", err)
	}
	if p.Gender != rec.GenderSkip || p.Demographic != rec.DemographicSeinen {
		t.Fatalf("skip profile: got gender=%v demographic=%v", p.Gender, p.Demographic)
	}
	if p.MaxAgeRating != catalog.Age19 {
		t.Fatalf("age ceiling: want=%v got=%v", catalog.Age19, p.MaxAgeRating)
	}
}

func TestNormalizeProfileRejectsUnknownTags(t *testing.T) {
	_, err := NormalizeProfile(rec.RawInput{Gender: "robot", Age: "18~30"})
	var invalid *InvalidProfileError
	if !errors.As(err, &invalid) || invalid.Field != "gender" {
		t.Fatalf("gender: want InvalidProfileError got=%v", err)
	}

	_, err = NormalizeProfile(rec.RawInput{Gender: "male", Age: "99"})
	if !errors.As(err, &invalid) || invalid.Field != "age" {
		t.Fatalf("age: want InvalidProfileError got=%v", err)
	}
}

func TestDemographicFor(t *testing.T) {
	if got := DemographicFor(rec.Age12to15, rec.GenderFemale); got != rec.DemographicKids {
		t.Fatalf("kids: got=%v", got)
	}
	if got := DemographicFor(rec.Age15to18, rec.GenderSkip); got != rec.DemographicShounen {
		t.Fatalf("shounen: got=%v", got)
	}
	if got := DemographicFor(rec.Age40to50, rec.GenderFemale); got != rec.DemographicJosei {
		t.Fatalf("josei: got=%v", got)
	}
}

package steps

import (
	"errors"
	"strings"
	"testing"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
)

func rankedCandidates(titles ...string) []rec.Candidate {
	out := make([]rec.Candidate, 0, len(titles))
	for i, title := range titles {
		id := string(rune('a' + i))
		out = append(out, rec.Candidate{
			Item:  testItem(id, title),
			Score: 0.9 - float64(i)*0.1,
		})
	}
	return out
}

func pickIDs(picks []rec.Pick) []string {
	out := make([]string, 0, len(picks))
	for _, p := range picks {
		out = append(out, p.Item.ID)
	}
	return out
}

func TestExtractPicksBackfillsUnmentioned(t *testing.T) {
	cands := rankedCandidates("Alpha One", "Beta Two", "Gamma Saga", "Delta Days", "Epsilon Tale")
	text := "First, 「Gamma Saga」 has the same tense mood as your favorite.\n2. 「Epsilon Tale」 shares its found-family cast."

	picks, err := ExtractPicks(text, cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "c", "e", "a") {
		t.Fatalf("picks: want=[c e a] got=%v", ids)
	}
	if picks[0].Reason != "has the same tense mood as your favorite." {
		t.Fatalf("reason 0: got=%q", picks[0].Reason)
	}
	if picks[1].Reason != "shares its found-family cast." {
		t.Fatalf("reason 1: got=%q", picks[1].Reason)
	}
	if !picks[2].Fallback || !strings.Contains(picks[2].Reason, "0.900") {
		t.Fatalf("fallback pick: got=%+v", picks[2])
	}
	for i, p := range picks {
		if strings.TrimSpace(p.Reason) == "" {
			t.Fatalf("pick %d: empty reason", i)
		}
	}
}

func TestExtractPicksStructuredAnswer(t *testing.T) {
	cands := rankedCandidates("Alpha One", "Beta Two", "Gamma Saga", "Delta Days")
	text := "Here you go:\n```json\n" + `{"recommendations":[
		{"index":2,"reason":"r2"},
		{"index":"4","reason":""},
		{"index":99,"title":"alpha one","reason":"r1"}
	]}` + "\n```"

	picks, err := ExtractPicks(text, cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "b", "d", "a") {
		t.Fatalf("picks: want=[b d a] got=%v", ids)
	}
	if picks[0].Reason != "r2" || picks[2].Reason != "r1" {
		t.Fatalf("reasons: got=%q %q", picks[0].Reason, picks[2].Reason)
	}
	if picks[1].Reason == "" || picks[1].Fallback {
		t.Fatalf("templated reason for an explicit pick: got=%+v", picks[1])
	}
}

func TestExtractPicksTopsUpStructuredWithMentions(t *testing.T) {
	cands := rankedCandidates("Alpha One", "Beta Two", "Gamma Saga", "Delta Days")
	text := `{"recommendations":[{"index":2,"reason":"r2"},{"index":42,"reason":"lost"}]}` +
		"\nAlso worth a look: 「Delta Days」 for its slow-burn rivalry."

	picks, err := ExtractPicks(text, cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "b", "d", "a") {
		t.Fatalf("picks: want=[b d a] got=%v", ids)
	}
	if picks[0].Reason != "r2" {
		t.Fatalf("structured reason: want=r2 got=%q", picks[0].Reason)
	}
	if picks[1].Fallback || picks[1].Reason != "for its slow-burn rivalry." {
		t.Fatalf("mentioned pick: got=%+v", picks[1])
	}
	if !picks[2].Fallback {
		t.Fatalf("rank fill: want fallback got=%+v", picks[2])
	}
}

func TestExtractPicksDuplicateMentionKeepsFirst(t *testing.T) {
	cands := rankedCandidates("Alpha One", "Beta Two", "Gamma Saga")
	text := "「Beta Two」 is good. 「Alpha One」 is nice. 「Beta Two」 again."

	picks, err := ExtractPicks(text, cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "b", "a", "c") {
		t.Fatalf("picks: want=[b a c] got=%v", ids)
	}
	if picks[0].Reason != "is good." || picks[1].Reason != "is nice." {
		t.Fatalf("reasons: got=%q %q", picks[0].Reason, picks[1].Reason)
	}
}

func TestExtractPicksPrefersLongerOverlappingTitle(t *testing.T) {
	cands := rankedCandidates("Berserk", "Berserk Deluxe", "Vagabond", "Kingdom")
	text := "Try Berserk Deluxe for the art, and vagabond for the swordplay."

	picks, err := ExtractPicks(text, cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "b", "c", "a") {
		t.Fatalf("picks: want=[b c a] got=%v", ids)
	}
	if picks[0].Reason != "for the art, and" {
		t.Fatalf("reason: got=%q", picks[0].Reason)
	}
}

func TestExtractPicksBareTitleNeedsWordBoundary(t *testing.T) {
	cands := rankedCandidates("Solo", "Nana", "Blame")
	picks, err := ExtractPicks("I like banana milk and Blame! a lot.", cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "c", "a", "b") {
		t.Fatalf("picks: want=[c a b] got=%v", ids)
	}
}

func TestExtractPicksWhitespaceAndCaseInsensitive(t *testing.T) {
	cands := rankedCandidates("One Piece", "Naruto Shippuden", "Bleach")
	picks, err := ExtractPicks("**naruto   shippuden** - ninja growth story", cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if picks[0].Item.ID != "b" || picks[0].Reason != "ninja growth story" {
		t.Fatalf("first pick: got id=%s reason=%q", picks[0].Item.ID, picks[0].Reason)
	}
}

func TestExtractPicksEmptyTextFallsBackToRank(t *testing.T) {
	cands := rankedCandidates("Alpha One", "Beta Two", "Gamma Saga", "Delta Days")
	picks, err := ExtractPicks("", cands)
	if err != nil {
		t.Fatalf("ExtractPicks: %v", err)
	}
	if ids := pickIDs(picks); !sameIDs(ids, "a", "b", "c") {
		t.Fatalf("picks: want=[a b c] got=%v", ids)
	}
	for _, p := range picks {
		if !p.Fallback {
			t.Fatalf("expected fallback picks, got=%+v", p)
		}
	}
}

func TestExtractPicksTooFewEligible(t *testing.T) {
	cands := rankedCandidates("Alpha One", "Beta Two")
	cands = append(cands, rec.Candidate{Item: testItem("a", "Alpha Again")})

	_, err := ExtractPicks("anything", cands)
	var impossible *ExtractionImpossibleError
	if !errors.As(err, &impossible) {
		t.Fatalf("want ExtractionImpossibleError got=%v", err)
	}
	if impossible.Eligible != 2 {
		t.Fatalf("eligible: want=2 got=%d", impossible.Eligible)
	}
}

func TestCleanReasonCapsLength(t *testing.T) {
	got := cleanReason(": " + strings.Repeat("가", maxReasonRunes+50))
	if n := len([]rune(got)); n != maxReasonRunes {
		t.Fatalf("length: want=%d got=%d", maxReasonRunes, n)
	}
}

package steps

import (
	"context"
	"testing"
	"time"
)

func TestEnricherCollectsNotesAndAbsorbsFailures(t *testing.T) {
	searcher := &fakeSearcher{
		notes: map[string]string{
			"alpha manga":      "alpha note",
			"Beta Two manga":   " beta note ",
			"Gamma Saga manga": "unused",
		},
		fail:  map[string]bool{"beta manga": true},
		block: map[string]bool{"Gamma Saga manga": true},
	}
	e := NewEnricher(EnrichDeps{Searcher: searcher, Timeout: 20 * time.Millisecond, MaxCandidates: 3})

	notes := e.Enrich(context.Background(), []string{"alpha", "beta", "gamma"}, rankedCandidates("Alpha One", "Beta Two", "Gamma Saga", "Delta Days"))

	if got := notes.Favorite("alpha"); got != "alpha note" {
		t.Fatalf("favorite alpha: got=%q", got)
	}
	if got, ok := notes.Favorites["beta"]; !ok || got != "" {
		t.Fatalf("favorite beta: want empty note got=%q ok=%v", got, ok)
	}
	if _, ok := notes.Favorites["gamma"]; ok {
		t.Fatalf("favorite gamma: expected only %d favorites enriched", defaultEnrichFavorites)
	}
	if got := notes.Item("b"); got != "beta note" {
		t.Fatalf("item b: got=%q", got)
	}
	if got, ok := notes.Items["c"]; !ok || got != "" {
		t.Fatalf("item c: want empty after timeout got=%q ok=%v", got, ok)
	}
	if _, ok := notes.Items["d"]; ok {
		t.Fatalf("item d: expected candidate cap of 3")
	}
	if len(searcher.queries) != 5 {
		t.Fatalf("queries: want=5 got=%d", len(searcher.queries))
	}
}

func TestEnricherNilSearcher(t *testing.T) {
	notes := NewEnricher(EnrichDeps{}).Enrich(context.Background(), []string{"alpha"}, nil)
	if notes.Favorite("alpha") != "" || notes.Items == nil {
		t.Fatalf("expected empty initialized notes, got=%+v", notes)
	}
}

package qdrant

import (
	"errors"
	"testing"
)

func findConditionByKey(conds []any, key string) map[string]any {
	for _, c := range conds {
		m, ok := c.(map[string]any)
		if ok && m["key"] == key {
			return m
		}
	}
	return nil
}

func TestTranslateFilterMapCatalogQuery(t *testing.T) {
	got, err := translateFilterMap(map[string]any{
		"age_rating": map[string]any{"$lte": 15},
		"item_id":    map[string]any{"$nin": []string{"a", "b"}},
	})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if len(got.Must) != 1 || len(got.MustNot) != 1 {
		t.Fatalf("lengths: must=%d must_not=%d", len(got.Must), len(got.MustNot))
	}

	age := findConditionByKey(got.Must, "age_rating")
	rng, ok := age["range"].(map[string]any)
	if !ok || rng["lte"] != float64(15) {
		t.Fatalf("age range: got=%v", age)
	}

	ids := findConditionByKey(got.MustNot, "item_id")
	match, _ := ids["match"].(map[string]any)
	anyVals, _ := match["any"].([]any)
	if len(anyVals) != 2 || anyVals[0] != "a" {
		t.Fatalf("item_id exclusion: got=%v", ids)
	}
}

func TestTranslateFilterMapEmptyNinIsDropped(t *testing.T) {
	got, err := translateFilterMap(map[string]any{"item_id": map[string]any{"$nin": []string{}}})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	if !got.empty() {
		t.Fatalf("expected empty filter, got=%v", got.asMap())
	}
}

func TestTranslateFilterMapTitleEquality(t *testing.T) {
	got, err := translateFilterMap(map[string]any{"title_norm": map[string]any{"$eq": "one piece"}})
	if err != nil {
		t.Fatalf("translateFilterMap: %v", err)
	}
	cond := findConditionByKey(got.Must, "title_norm")
	match, _ := cond["match"].(map[string]any)
	if len(got.Must) != 1 || match["value"] != "one piece" {
		t.Fatalf("title match: got=%v", got.asMap())
	}
}

func TestTranslateFilterMapUnsupportedOperator(t *testing.T) {
	var opErrTyped *OperationError
	for _, filter := range []map[string]any{
		{"title": map[string]any{"$regex": "x"}},
		{"genres": map[string]any{"$in": []any{"Action"}}},
		{"$or": []any{map[string]any{"title": map[string]any{"$eq": "A"}}}},
	} {
		_, err := translateFilterMap(filter)
		if !errors.As(err, &opErrTyped) || opErrTyped.Code != OperationErrorUnsupportedFilter {
			t.Fatalf("%v: want unsupported filter error, got=%v", filter, err)
		}
	}
	_, err := translateFilterMap(map[string]any{"title": "A"})
	if !errors.As(err, &opErrTyped) || opErrTyped.Code != OperationErrorValidation {
		t.Fatalf("bare scalar: want validation error, got=%v", err)
	}
	_, err = translateFilterMap(map[string]any{"age_rating": map[string]any{"$lte": "high"}})
	if !errors.As(err, &opErrTyped) || opErrTyped.Code != OperationErrorValidation {
		t.Fatalf("want validation error, got=%v", err)
	}
}

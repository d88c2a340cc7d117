package qdrant

import (
	"errors"
	"testing"
)

func setQdrantEnv(t *testing.T, url, collection, dim string) {
	t.Helper()
	t.Setenv("QDRANT_URL", url)
	t.Setenv("QDRANT_COLLECTION", collection)
	t.Setenv("QDRANT_VECTOR_DIM", dim)
	t.Setenv("QDRANT_DISTANCE", "")
	t.Setenv("QDRANT_CREATE_COLLECTION", "")
}

func requireConfigCode(t *testing.T, err error, want ConfigErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("ResolveConfigFromEnv: expected error, got nil")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got=%T", err)
	}
	if cfgErr.Code != want {
		t.Fatalf("code: want=%q got=%q", want, cfgErr.Code)
	}
}

func TestResolveConfigFromEnvValid(t *testing.T) {
	setQdrantEnv(t, "http://qdrant:6333", "manga_catalog", "1536")
	t.Setenv("QDRANT_DISTANCE", "dot")
	t.Setenv("QDRANT_CREATE_COLLECTION", "true")

	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.URL != "http://qdrant:6333" {
		t.Fatalf("URL: want=%q got=%q", "http://qdrant:6333", cfg.URL)
	}
	if cfg.Collection != "manga_catalog" {
		t.Fatalf("Collection: want=%q got=%q", "manga_catalog", cfg.Collection)
	}
	if cfg.VectorDim != 1536 {
		t.Fatalf("VectorDim: want=%d got=%d", 1536, cfg.VectorDim)
	}
	if cfg.Distance != "Dot" {
		t.Fatalf("Distance: want=%q got=%q", "Dot", cfg.Distance)
	}
	if !cfg.CreateIfMissing {
		t.Fatalf("CreateIfMissing: want=true")
	}
}

func TestResolveConfigFromEnvDefaultsDistance(t *testing.T) {
	setQdrantEnv(t, "http://qdrant:6333", "manga_catalog", "3")
	cfg, err := ResolveConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveConfigFromEnv: %v", err)
	}
	if cfg.Distance != DefaultDistance || cfg.CreateIfMissing {
		t.Fatalf("defaults: got=%+v", cfg)
	}
}

func TestResolveConfigFromEnvErrors(t *testing.T) {
	cases := []struct {
		name                 string
		url, collection, dim string
		distance             string
		want                 ConfigErrorCode
	}{
		{"missing url", "", "manga_catalog", "3", "", ConfigErrorMissingURL},
		{"invalid url", "qdrant:6333", "manga_catalog", "3", "", ConfigErrorInvalidURL},
		{"missing collection", "http://qdrant:6333", "", "3", "", ConfigErrorMissingCollection},
		{"missing dim", "http://qdrant:6333", "manga_catalog", "", "", ConfigErrorMissingVectorDim},
		{"non numeric dim", "http://qdrant:6333", "manga_catalog", "abc", "", ConfigErrorInvalidVectorDim},
		{"zero dim", "http://qdrant:6333", "manga_catalog", "0", "", ConfigErrorInvalidVectorDim},
		{"bad distance", "http://qdrant:6333", "manga_catalog", "3", "hamming", ConfigErrorInvalidDistance},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setQdrantEnv(t, tc.url, tc.collection, tc.dim)
			t.Setenv("QDRANT_DISTANCE", tc.distance)
			_, err := ResolveConfigFromEnv()
			requireConfigCode(t, err, tc.want)
		})
	}
}

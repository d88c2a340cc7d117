package rediscache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"time"

	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Cache errors never fail a call; they are logged and the wrapped collaborator answers.

type cachedEmbedder struct {
	log   *logger.Logger
	store Store
	next  Embedder
	ns    string
	ttl   time.Duration
}

// NewEmbedder caches vectors by namespace and text hash. The namespace should
// change whenever the embedding model does.
func NewEmbedder(log *logger.Logger, store Store, next Embedder, namespace string, ttl time.Duration) Embedder {
	return &cachedEmbedder{log: log.With("service", "CachedEmbedder"), store: store, next: next, ns: namespace, ttl: ttl}
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey("emb", c.ns, text)
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("embedding cache read failed", "error", err)
	} else if ok {
		if vec, ok := decodeVector(raw); ok {
			return vec, nil
		}
	}

	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, encodeVector(vec), c.ttl); err != nil {
		c.log.Warn("embedding cache write failed", "error", err)
	}
	return vec, nil
}

type cachedSearcher struct {
	log   *logger.Logger
	store Store
	next  Searcher
	ttl   time.Duration
}

// NewSearcher caches search notes by query. Empty notes are not cached so a
// later search can still find something.
func NewSearcher(log *logger.Logger, store Store, next Searcher, ttl time.Duration) Searcher {
	return &cachedSearcher{log: log.With("service", "CachedSearcher"), store: store, next: next, ttl: ttl}
}

func (c *cachedSearcher) Search(ctx context.Context, query string) (string, error) {
	key := cacheKey("search", "", query)
	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		c.log.Warn("search cache read failed", "error", err)
	} else if ok {
		return string(raw), nil
	}

	note, err := c.next.Search(ctx, query)
	if err != nil {
		return "", err
	}
	if note != "" {
		if err := c.store.Set(ctx, key, []byte(note), c.ttl); err != nil {
			c.log.Warn("search cache write failed", "error", err)
		}
	}
	return note, nil
}

func cacheKey(kind, ns, text string) string {
	sum := sha256.Sum256([]byte(text))
	if ns == "" {
		return kind + ":" + hex.EncodeToString(sum[:])
	}
	return kind + ":" + ns + ":" + hex.EncodeToString(sum[:])
}

func encodeVector(vec []float32) []byte {
	out := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(raw []byte) ([]float32, bool) {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil, false
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return out, true
}

package rediscache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
	failSet bool
}

func newMemStore() *memStore { return &memStore{data: map[string][]byte{}} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errors.New("get failed")
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet {
		return errors.New("set failed")
	}
	m.data[key] = value
	return nil
}

type countingEmbedder struct {
	calls int
	err   error
}

func (e *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{float32(len(text)), -0.5, 0.25}, nil
}

type countingSearcher struct {
	calls int
	note  string
}

func (s *countingSearcher) Search(_ context.Context, _ string) (string, error) {
	s.calls++
	return s.note, nil
}

func TestCachedEmbedderHitsStore(t *testing.T) {
	store := newMemStore()
	next := &countingEmbedder{}
	e := NewEmbedder(logger.Nop(), store, next, "text-embedding-3-small", time.Hour)

	first, err := e.Embed(context.Background(), "berserk")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	second, err := e.Embed(context.Background(), "berserk")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("calls: want=1 got=%d", next.calls)
	}
	if len(second) != 3 || second[0] != first[0] || second[1] != -0.5 || second[2] != 0.25 {
		t.Fatalf("cached vector: want=%v got=%v", first, second)
	}
}

func TestCachedEmbedderNamespaceSeparatesModels(t *testing.T) {
	store := newMemStore()
	next := &countingEmbedder{}
	a := NewEmbedder(logger.Nop(), store, next, "model-a", time.Hour)
	b := NewEmbedder(logger.Nop(), store, next, "model-b", time.Hour)
	_, _ = a.Embed(context.Background(), "x")
	_, _ = b.Embed(context.Background(), "x")
	if next.calls != 2 {
		t.Fatalf("calls: want=2 got=%d", next.calls)
	}
}

func TestCachedEmbedderStoreFailuresAbsorbed(t *testing.T) {
	store := newMemStore()
	store.failGet, store.failSet = true, true
	next := &countingEmbedder{}
	e := NewEmbedder(logger.Nop(), store, next, "m", time.Hour)
	if _, err := e.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if next.calls != 1 {
		t.Fatalf("calls: want=1 got=%d", next.calls)
	}
}

func TestCachedEmbedderPropagatesEmbedError(t *testing.T) {
	boom := errors.New("boom")
	e := NewEmbedder(logger.Nop(), newMemStore(), &countingEmbedder{err: boom}, "m", time.Hour)
	if _, err := e.Embed(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("err: want=%v got=%v", boom, err)
	}
}

func TestCachedSearcherSkipsEmptyNotes(t *testing.T) {
	store := newMemStore()
	next := &countingSearcher{}
	s := NewSearcher(logger.Nop(), store, next, time.Hour)
	_, _ = s.Search(context.Background(), "q")
	_, _ = s.Search(context.Background(), "q")
	if next.calls != 2 {
		t.Fatalf("empty notes cached: calls want=2 got=%d", next.calls)
	}

	next.note = "a note"
	_, _ = s.Search(context.Background(), "q")
	got, _ := s.Search(context.Background(), "q")
	if got != "a note" || next.calls != 3 {
		t.Fatalf("cached note: got=%q calls=%d", got, next.calls)
	}
}

func TestDecodeVectorRejectsTruncated(t *testing.T) {
	if _, ok := decodeVector([]byte{1, 2, 3}); ok {
		t.Fatalf("decodeVector: expected failure on truncated input")
	}
}

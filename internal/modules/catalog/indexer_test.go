package catalog

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
	"github.com/yungbote/manga-recommender/internal/platform/qdrant"
)

type sliceSource struct{ items []catalog.Item }

func (s sliceSource) Count(context.Context) (int, error) { return len(s.items), nil }

func (s sliceSource) Batches(ctx context.Context, size int, fn func([]catalog.Item) error) error {
	for start := 0; start < len(s.items); start += size {
		end := start + size
		if end > len(s.items) {
			end = len(s.items)
		}
		if err := fn(s.items[start:end]); err != nil {
			return err
		}
	}
	return nil
}

type fakeBatchEmbedder struct {
	mu     sync.Mutex
	calls  int
	maxLen int
	err    error
}

func (f *fakeBatchEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(inputs) > f.maxLen {
		f.maxLen = len(inputs)
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		out[i] = []float32{float32(len(in))}
	}
	return out, nil
}

type fakePointStore struct {
	mu     sync.Mutex
	count  int
	points map[string]qdrant.Point
}

func (f *fakePointStore) Upsert(_ context.Context, points []qdrant.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.points == nil {
		f.points = map[string]qdrant.Point{}
	}
	for _, p := range points {
		f.points[p.Item.ID] = p
	}
	return nil
}

func (f *fakePointStore) Count(context.Context) (int, error) { return f.count, nil }

func sampleItems(n int) []catalog.Item {
	out := make([]catalog.Item, n)
	for i := range out {
		out[i] = catalog.Item{ID: string(rune('a' + i)), Title: "T" + string(rune('a'+i)), Synopsis: "s"}
	}
	return out
}

func TestIndexerEmbedsAndUpsertsAll(t *testing.T) {
	emb := &fakeBatchEmbedder{}
	store := &fakePointStore{}
	x := NewIndexer(logger.Nop(), sliceSource{items: sampleItems(7)}, emb, store, IndexerOptions{SourceBatch: 5, EmbedBatch: 2, Concurrency: 3})

	stats, err := x.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Indexed != 7 || stats.Total != 7 || stats.Batches != 2 || stats.Skipped {
		t.Fatalf("stats: got=%+v", stats)
	}
	if len(store.points) != 7 {
		t.Fatalf("points: want=7 got=%d", len(store.points))
	}
	if emb.maxLen != 2 || emb.calls != 4 {
		t.Fatalf("embed chunks: maxLen=%d calls=%d", emb.maxLen, emb.calls)
	}
	want := float32(len(catalog.Item{Title: "Ta", Synopsis: "s"}.DocumentText()))
	if got := store.points["a"].Vector[0]; got != want {
		t.Fatalf("document text embedded: want=%v got=%v", want, got)
	}
}

func TestIndexerSkipsPopulatedIndexUnlessForced(t *testing.T) {
	emb := &fakeBatchEmbedder{}
	store := &fakePointStore{count: 10}
	stats, err := NewIndexer(logger.Nop(), sliceSource{items: sampleItems(3)}, emb, store, IndexerOptions{}).Run(context.Background())
	if err != nil || !stats.Skipped || emb.calls != 0 {
		t.Fatalf("skip: stats=%+v err=%v calls=%d", stats, err, emb.calls)
	}

	stats, err = NewIndexer(logger.Nop(), sliceSource{items: sampleItems(3)}, emb, store, IndexerOptions{Force: true}).Run(context.Background())
	if err != nil || stats.Skipped || stats.Indexed != 3 {
		t.Fatalf("force: stats=%+v err=%v", stats, err)
	}
}

func TestIndexerPropagatesEmbedError(t *testing.T) {
	boom := errors.New("quota")
	_, err := NewIndexer(logger.Nop(), sliceSource{items: sampleItems(3)}, &fakeBatchEmbedder{err: boom}, &fakePointStore{}, IndexerOptions{}).Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err: want=%v got=%v", boom, err)
	}
}

package catalog

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
	"github.com/yungbote/manga-recommender/internal/platform/qdrant"
)

// BatchEmbedder embeds many texts in one call, one vector per input in order.
type BatchEmbedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type PointStore interface {
	Upsert(ctx context.Context, points []qdrant.Point) error
	Count(ctx context.Context) (int, error)
}

type IndexerOptions struct {
	SourceBatch int
	EmbedBatch  int
	Concurrency int
	// Force reindexes even when the index already holds points.
	Force bool
}

func (o IndexerOptions) withDefaults() IndexerOptions {
	if o.SourceBatch <= 0 {
		o.SourceBatch = 1000
	}
	if o.EmbedBatch <= 0 {
		o.EmbedBatch = 100
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

type Stats struct {
	Total   int
	Indexed int
	Batches int
	// Skipped is set when the index was already populated and Force was off.
	Skipped bool
}

// Indexer embeds catalog documents and writes them to the vector index.
type Indexer struct {
	log    *logger.Logger
	source Source
	embed  BatchEmbedder
	store  PointStore
	opts   IndexerOptions
}

func NewIndexer(log *logger.Logger, source Source, embed BatchEmbedder, store PointStore, opts IndexerOptions) *Indexer {
	return &Indexer{
		log:    log.With("service", "CatalogIndexer"),
		source: source,
		embed:  embed,
		store:  store,
		opts:   opts.withDefaults(),
	}
}

func (x *Indexer) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	if !x.opts.Force {
		n, err := x.store.Count(ctx)
		if err != nil {
			return stats, fmt.Errorf("count indexed points: %w", err)
		}
		if n > 0 {
			x.log.Info("catalog index already populated; skipping", "points", n)
			stats.Skipped = true
			return stats, nil
		}
	}

	total, err := x.source.Count(ctx)
	if err != nil {
		return stats, fmt.Errorf("count catalog source: %w", err)
	}
	stats.Total = total
	x.log.Info("catalog indexing started", "total", total, "source_batch", x.opts.SourceBatch, "embed_batch", x.opts.EmbedBatch)

	var indexed int64
	err = x.source.Batches(ctx, x.opts.SourceBatch, func(items []catalog.Item) error {
		stats.Batches++
		if err := x.indexBatch(ctx, items, &indexed); err != nil {
			return fmt.Errorf("batch %d: %w", stats.Batches, err)
		}
		done := atomic.LoadInt64(&indexed)
		x.log.Info("catalog indexing progress", "batch", stats.Batches, "indexed", done, "total", total)
		return nil
	})
	stats.Indexed = int(atomic.LoadInt64(&indexed))
	if err != nil {
		return stats, err
	}
	x.log.Info("catalog indexing completed", "indexed", stats.Indexed, "batches", stats.Batches)
	return stats, nil
}

func (x *Indexer) indexBatch(ctx context.Context, items []catalog.Item, indexed *int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.Concurrency)

	for start := 0; start < len(items); start += x.opts.EmbedBatch {
		end := start + x.opts.EmbedBatch
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			texts := make([]string, len(chunk))
			for i, it := range chunk {
				texts[i] = it.DocumentText()
			}
			vecs, err := x.embed.Embed(gctx, texts)
			if err != nil {
				return fmt.Errorf("embed: %w", err)
			}
			if len(vecs) != len(chunk) {
				return fmt.Errorf("embed: expected %d vectors, got %d", len(chunk), len(vecs))
			}
			points := make([]qdrant.Point, len(chunk))
			for i, it := range chunk {
				points[i] = qdrant.Point{Item: it, Vector: vecs[i]}
			}
			if err := x.store.Upsert(gctx, points); err != nil {
				return fmt.Errorf("upsert: %w", err)
			}
			atomic.AddInt64(indexed, int64(len(chunk)))
			return nil
		})
	}
	return g.Wait()
}

package providers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
)

const tracerName = "github.com/yungbote/manga-recommender/providers"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type tracedEmbedder struct{ next steps.Embedder }

// TraceEmbedder wraps an Embedder with one span per call.
func TraceEmbedder(next steps.Embedder) steps.Embedder { return tracedEmbedder{next: next} }

func (t tracedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, span := startSpan(ctx, "embedder.embed", attribute.Int("text.length", len(text)))
	vec, err := t.next.Embed(ctx, text)
	endSpan(span, err)
	return vec, err
}

type tracedIndex struct{ next steps.VectorIndex }

type tracedResolvingIndex struct {
	tracedIndex
	resolver steps.TitleResolver
}

// TraceIndex wraps a VectorIndex, keeping the TitleResolver capability when the
// wrapped index has it.
func TraceIndex(next steps.VectorIndex) steps.VectorIndex {
	if r, ok := next.(steps.TitleResolver); ok {
		return tracedResolvingIndex{tracedIndex: tracedIndex{next: next}, resolver: r}
	}
	return tracedIndex{next: next}
}

func (t tracedIndex) Query(ctx context.Context, vector []float32, filter steps.IndexFilter, topK int) ([]steps.IndexHit, error) {
	ctx, span := startSpan(ctx, "index.query",
		attribute.Int("top_k", topK),
		attribute.Int("filter.max_age_rating", int(filter.MaxAgeRating)),
		attribute.Int("filter.exclude_ids", len(filter.ExcludeIDs)),
	)
	hits, err := t.next.Query(ctx, vector, filter, topK)
	span.SetAttributes(attribute.Int("hits", len(hits)))
	endSpan(span, err)
	return hits, err
}

func (t tracedResolvingIndex) FindByTitle(ctx context.Context, title string) (*catalog.Item, error) {
	ctx, span := startSpan(ctx, "index.find_by_title")
	it, err := t.resolver.FindByTitle(ctx, title)
	span.SetAttributes(attribute.Bool("found", it != nil))
	endSpan(span, err)
	return it, err
}

type tracedSearcher struct{ next steps.TextSearcher }

func TraceSearcher(next steps.TextSearcher) steps.TextSearcher { return tracedSearcher{next: next} }

func (t tracedSearcher) Search(ctx context.Context, query string) (string, error) {
	ctx, span := startSpan(ctx, "searcher.search")
	note, err := t.next.Search(ctx, query)
	span.SetAttributes(attribute.Bool("empty", note == ""))
	endSpan(span, err)
	return note, err
}

type tracedGenerator struct{ next steps.TextGenerator }

func TraceGenerator(next steps.TextGenerator) steps.TextGenerator { return tracedGenerator{next: next} }

func (t tracedGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	ctx, span := startSpan(ctx, "generator.generate", attribute.Int("prompt.length", len(system)+len(user)))
	text, err := t.next.Generate(ctx, system, user)
	endSpan(span, err)
	return text, err
}

func (t tracedGenerator) Score(ctx context.Context, system, user string) (steps.ScoreResult, error) {
	ctx, span := startSpan(ctx, "generator.score")
	res, err := t.next.Score(ctx, system, user)
	span.SetAttributes(attribute.Float64("score", res.Score))
	endSpan(span, err)
	return res, err
}

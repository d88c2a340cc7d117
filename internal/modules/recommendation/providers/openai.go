package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/manga-recommender/internal/modules/recommendation/prompts"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/platform/openai"
)

const scoreSchemaName = "recommendation_quality"

// Embedder embeds one text per call through the OpenAI embeddings endpoint.
type Embedder struct {
	client openai.Client
}

func NewEmbedder(client openai.Client) *Embedder {
	return &Embedder{client: client}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.client.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return nil, fmt.Errorf("openai embed: expected 1 vector, got %d", len(vecs))
	}
	return vecs[0], nil
}

// Generator drafts with free text and scores with a JSON schema response.
type Generator struct {
	client openai.Client
}

func NewGenerator(client openai.Client) *Generator {
	return &Generator{client: client}
}

func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	return g.client.GenerateText(ctx, system, user)
}

func (g *Generator) Score(ctx context.Context, system, user string) (steps.ScoreResult, error) {
	obj, err := g.client.GenerateJSON(ctx, system, user, scoreSchemaName, prompts.ScoreSchema())
	if err != nil {
		return steps.ScoreResult{}, err
	}
	score, ok := numberField(obj["score"])
	if !ok {
		return steps.ScoreResult{}, fmt.Errorf("quality score missing or not numeric: %v", obj["score"])
	}
	reasoning, _ := obj["reasoning"].(string)
	return steps.ScoreResult{Score: score, Rationale: strings.TrimSpace(reasoning)}, nil
}

func numberField(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

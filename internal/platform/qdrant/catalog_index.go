package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	"github.com/yungbote/manga-recommender/internal/platform/ctxutil"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// Point is one catalog item with its document embedding.
type Point struct {
	Item   catalog.Item
	Vector []float32
}

// Filter restricts a similarity query. A zero MaxAgeRating still applies: it
// limits results to all-ages items.
type Filter struct {
	MaxAgeRating catalog.AgeRating
	ExcludeIDs   []string
}

type Match struct {
	Item  catalog.Item
	Score float64
}

// CatalogIndex stores catalog items in a single Qdrant collection.
type CatalogIndex struct {
	log      *logger.Logger
	cfg      Config
	baseURL  string
	distance string
	http     *http.Client
}

type searchResultItem struct {
	ID      json.RawMessage `json:"id"`
	Score   float64         `json:"score"`
	Payload map[string]any  `json:"payload"`
}

type collectionInfo struct {
	PointsCount int `json:"points_count"`
	Config      struct {
		Params struct {
			Vectors struct {
				Size     int    `json:"size"`
				Distance string `json:"distance"`
			} `json:"vectors"`
		} `json:"params"`
	} `json:"config"`
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (*CatalogIndex, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if err := ValidateConfig(cfg, true); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &CatalogIndex{
		log:     log.With("service", "QdrantCatalogIndex"),
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	if err := c.verifyReady(ctxutil.Default(ctx)); err != nil {
		return nil, err
	}

	c.log.Info(
		"Qdrant catalog index ready",
		"url", c.baseURL,
		"collection", cfg.Collection,
		"vector_dim", cfg.VectorDim,
		"distance", c.distance,
	)
	return c, nil
}

// Upsert writes points with wait=true so a following query sees them.
func (c *CatalogIndex) Upsert(ctx context.Context, points []Point) error {
	if c == nil {
		return fmt.Errorf("catalog index unavailable")
	}
	const op = "upsert"
	if len(points) == 0 {
		return nil
	}

	body := make([]map[string]any, 0, len(points))
	for _, p := range points {
		id := strings.TrimSpace(p.Item.ID)
		if id == "" {
			return opErr(op, OperationErrorValidation, "item id is required", nil)
		}
		if err := c.checkDim(op, fmt.Sprintf("item %q", id), p.Vector); err != nil {
			return err
		}
		body = append(body, map[string]any{
			"id":      pointID(c.cfg.Collection, id),
			"vector":  p.Vector,
			"payload": itemPayload(p.Item),
		})
	}
	return c.doJSON(ctx, op, http.MethodPut, c.collectionPath("/points?wait=true"), map[string]any{"points": body}, nil)
}

// Query returns up to topK items ordered by descending normalized score, ties by item id.
func (c *CatalogIndex) Query(ctx context.Context, vector []float32, filter Filter, topK int) ([]Match, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog index unavailable")
	}
	const op = "query"
	if len(vector) == 0 {
		return nil, opErr(op, OperationErrorValidation, "query vector required", nil)
	}
	if err := c.checkDim(op, "query vector", vector); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}

	qf, err := translateFilterMap(filterMap(filter))
	if err != nil {
		var opErrTyped *OperationError
		if errors.As(err, &opErrTyped) && opErrTyped.Code == OperationErrorUnsupportedFilter {
			c.log.Warn("qdrant query filter unsupported", "error", err)
		}
		return nil, err
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
		"with_vector":  false,
	}
	if !qf.empty() {
		req["filter"] = qf.asMap()
	}

	var raw []searchResultItem
	if err := c.doJSON(ctx, op, http.MethodPost, c.collectionPath("/points/search"), req, &raw); err != nil {
		return nil, err
	}

	out := make([]Match, 0, len(raw))
	for _, r := range raw {
		it, ok := itemFromPayload(r.Payload)
		if !ok {
			c.log.Debug("qdrant point without item id skipped", "point_id", strings.Trim(string(r.ID), `"`))
			continue
		}
		out = append(out, Match{Item: it, Score: c.normalizeScore(r.Score)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].Item.ID < out[j].Item.ID
		}
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// FindByTitle looks an item up by its normalized title. It returns nil, nil when
// nothing matches.
func (c *CatalogIndex) FindByTitle(ctx context.Context, title string) (*catalog.Item, error) {
	if c == nil {
		return nil, fmt.Errorf("catalog index unavailable")
	}
	const op = "find_by_title"
	norm := NormalizeTitle(title)
	if norm == "" {
		return nil, nil
	}

	tf, err := translateFilterMap(map[string]any{payloadTitleNorm: map[string]any{filterOpEq: norm}})
	if err != nil {
		return nil, err
	}
	req := map[string]any{
		"filter":       tf.asMap(),
		"limit":        1,
		"with_payload": true,
		"with_vector":  false,
	}
	var result struct {
		Points []searchResultItem `json:"points"`
	}
	if err := c.doJSON(ctx, op, http.MethodPost, c.collectionPath("/points/scroll"), req, &result); err != nil {
		return nil, err
	}
	for _, p := range result.Points {
		if it, ok := itemFromPayload(p.Payload); ok {
			return &it, nil
		}
	}
	return nil, nil
}

// Count returns the exact number of points in the collection.
func (c *CatalogIndex) Count(ctx context.Context) (int, error) {
	if c == nil {
		return 0, fmt.Errorf("catalog index unavailable")
	}
	var result struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, "count", http.MethodPost, c.collectionPath("/points/count"), map[string]any{"exact": true}, &result); err != nil {
		return 0, err
	}
	return result.Count, nil
}

func (c *CatalogIndex) verifyReady(ctx context.Context) error {
	const op = "bootstrap_verify"

	readyReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return opErr(op, OperationErrorTransportFailed, "build ready request failed", err)
	}
	readyResp, err := c.http.Do(readyReq)
	if err != nil {
		return classifyHTTPCallError(op, "qdrant ready check failed", err)
	}
	_ = readyResp.Body.Close()
	if readyResp.StatusCode < 200 || readyResp.StatusCode >= 300 {
		return &OperationError{
			Code:       OperationErrorQueryFailed,
			Operation:  op,
			StatusCode: readyResp.StatusCode,
			Message:    fmt.Sprintf("qdrant ready check returned status=%d", readyResp.StatusCode),
		}
	}

	var info collectionInfo
	err = c.doJSON(ctx, op, http.MethodGet, c.collectionPath(""), nil, &info)
	if isStatus(err, http.StatusNotFound) {
		if !c.cfg.CreateIfMissing {
			return &OperationError{
				Code:       OperationErrorMissingCollection,
				Operation:  op,
				StatusCode: http.StatusNotFound,
				Message:    fmt.Sprintf("qdrant collection %q does not exist", c.cfg.Collection),
			}
		}
		return c.createCollection(ctx)
	}
	if err != nil {
		return err
	}

	size := info.Config.Params.Vectors.Size
	if size != 0 && size != c.cfg.VectorDim {
		return &OperationError{
			Code:      OperationErrorValidation,
			Operation: op,
			Message: fmt.Sprintf(
				"qdrant collection %q vector size mismatch: expected=%d actual=%d",
				c.cfg.Collection, c.cfg.VectorDim, size,
			),
		}
	}
	c.distance = strings.TrimSpace(info.Config.Params.Vectors.Distance)
	return nil
}

var payloadIndexes = []struct {
	field  string
	schema string
}{
	{payloadItemID, "keyword"},
	{payloadTitleNorm, "keyword"},
	{payloadGenres, "keyword"},
	{payloadAgeRating, "integer"},
}

func (c *CatalogIndex) createCollection(ctx context.Context) error {
	const op = "create_collection"
	distance := c.cfg.Distance
	if distance == "" {
		distance = DefaultDistance
	}
	req := map[string]any{
		"vectors": map[string]any{"size": c.cfg.VectorDim, "distance": distance},
	}
	if err := c.doJSON(ctx, op, http.MethodPut, c.collectionPath(""), req, nil); err != nil {
		return err
	}
	for _, idx := range payloadIndexes {
		body := map[string]any{"field_name": idx.field, "field_schema": idx.schema}
		if err := c.doJSON(ctx, op, http.MethodPut, c.collectionPath("/index?wait=true"), body, nil); err != nil {
			return err
		}
	}
	c.distance = distance
	c.log.Info("qdrant collection created", "collection", c.cfg.Collection, "distance", distance)
	return nil
}

func (c *CatalogIndex) checkDim(op, what string, vector []float32) error {
	if len(vector) == 0 {
		return opErr(op, OperationErrorValidation, what+" has empty values", nil)
	}
	if c.cfg.VectorDim > 0 && len(vector) != c.cfg.VectorDim {
		return opErr(op, OperationErrorValidation,
			fmt.Sprintf("%s dimension mismatch: expected=%d got=%d", what, c.cfg.VectorDim, len(vector)), nil)
	}
	return nil
}

func (c *CatalogIndex) collectionPath(suffix string) string {
	path := "/collections/" + c.cfg.Collection
	if strings.TrimSpace(suffix) == "" {
		return path
	}
	return path + suffix
}

// filterMap expresses a catalog filter in the filter DSL.
func filterMap(f Filter) map[string]any {
	out := map[string]any{
		payloadAgeRating: map[string]any{filterOpLte: int(f.MaxAgeRating)},
	}
	if ids := nonEmpty(f.ExcludeIDs); len(ids) > 0 {
		out[payloadItemID] = map[string]any{filterOpNin: ids}
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (c *CatalogIndex) normalizeScore(score float64) float64 {
	switch strings.ToLower(strings.TrimSpace(c.distance)) {
	case "euclid", "manhattan":
		if score < 0 {
			score = -score
		}
		return 1.0 / (1.0 + score)
	default:
		return score
	}
}

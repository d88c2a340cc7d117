package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/manga-recommender/internal/domain/catalog"
	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/http/response"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/observability"
	"github.com/yungbote/manga-recommender/internal/platform/apierr"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

type Recommender interface {
	Recommend(ctx context.Context, in rec.RawInput) (*rec.RecommendationSet, error)
}

type RecommendationHandler struct {
	log     *logger.Logger
	rec     Recommender
	metrics *observability.Metrics
}

func NewRecommendationHandler(log *logger.Logger, r Recommender, m *observability.Metrics) *RecommendationHandler {
	return &RecommendationHandler{
		log:     log.With("handler", "RecommendationHandler"),
		rec:     r,
		metrics: m,
	}
}

type recommendRequest struct {
	Gender    string   `json:"gender"`
	Age       string   `json:"age"`
	Genres    []string `json:"genres"`
	Favorites string   `json:"favorites"`
}

type pickDTO struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Subtitle   string            `json:"subtitle,omitempty"`
	Author     string            `json:"author,omitempty"`
	Genres     []string          `json:"genres"`
	AgeRating  catalog.AgeRating `json:"age_rating"`
	ImageURL   string            `json:"image_url,omitempty"`
	Similarity float64           `json:"similarity"`
	Reason     string            `json:"reason"`
	Fallback   bool              `json:"fallback,omitempty"`
}

type recommendationDTO struct {
	RunID         string                `json:"run_id"`
	Outcome       rec.Outcome           `json:"outcome"`
	Attempt       int                   `json:"attempt"`
	Strategy      rec.Strategy          `json:"strategy"`
	QualityScore  int                   `json:"quality_score"`
	Picks         []pickDTO             `json:"picks"`
	ValidationLog []rec.ValidationEntry `json:"validation_log"`
}

func toRecommendationDTO(set *rec.RecommendationSet) *recommendationDTO {
	if set == nil {
		return nil
	}
	picks := make([]pickDTO, 0, len(set.Picks))
	for _, p := range set.Picks {
		genres := p.Item.Genres
		if genres == nil {
			genres = []string{}
		}
		picks = append(picks, pickDTO{
			ID:         p.Item.ID,
			Title:      p.Item.Title,
			Subtitle:   p.Item.Subtitle,
			Author:     p.Item.Author,
			Genres:     genres,
			AgeRating:  p.Item.AgeRating,
			ImageURL:   p.Item.ImageURL,
			Similarity: p.Score,
			Reason:     p.Reason,
			Fallback:   p.Fallback,
		})
	}
	log := set.ValidationLog
	if log == nil {
		log = []rec.ValidationEntry{}
	}
	return &recommendationDTO{
		RunID:         set.RunID,
		Outcome:       set.Outcome,
		Attempt:       set.Attempt,
		Strategy:      set.Strategy,
		QualityScore:  set.QualityScore,
		Picks:         picks,
		ValidationLog: log,
	}
}

// POST /api/recommendations
func (h *RecommendationHandler) Recommend(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	start := time.Now()
	set, err := h.rec.Recommend(c.Request.Context(), rec.RawInput{
		Gender:    req.Gender,
		Age:       req.Age,
		Genres:    req.Genres,
		Favorites: req.Favorites,
	})
	if err != nil {
		apiErr, partial := classifyRecommendError(err)
		h.metrics.ObserveRun(apiErr.Code, 0, 0, time.Since(start))
		if apiErr.Status >= http.StatusInternalServerError {
			h.log.Error("recommendation failed", "error", err, "code", apiErr.Code)
		} else {
			h.log.Warn("recommendation rejected", "error", err, "code", apiErr.Code)
		}
		if partial != nil {
			response.RespondErrorWithPartial(c, apiErr.Status, apiErr.Code, apiErr, toRecommendationDTO(partial))
			return
		}
		response.RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}

	h.metrics.ObserveRun(string(set.Outcome), set.Attempt, float64(set.QualityScore), time.Since(start))
	response.RespondOK(c, toRecommendationDTO(set))
}

// classifyRecommendError maps the recommender's error taxonomy onto HTTP statuses.
func classifyRecommendError(err error) (*apierr.Error, *rec.RecommendationSet) {
	var (
		invalid    *steps.InvalidProfileError
		exhausted  *steps.RetrievalExhaustedError
		impossible *steps.ExtractionImpossibleError
		incomplete *recommendation.IncompleteRunError
	)
	switch {
	case errors.As(err, &invalid):
		return apierr.New(http.StatusBadRequest, "invalid_profile", err), nil
	case errors.As(err, &exhausted):
		return apierr.New(http.StatusUnprocessableEntity, "retrieval_exhausted", err), nil
	case errors.As(err, &impossible):
		return apierr.New(http.StatusUnprocessableEntity, "extraction_impossible", err), nil
	case errors.As(err, &incomplete):
		return apierr.New(http.StatusGatewayTimeout, "incomplete_run", err), incomplete.Partial
	case errors.Is(err, context.Canceled):
		return apierr.New(499, "client_closed_request", err), nil
	default:
		return apierr.From(err), nil
	}
}

package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/manga-recommender/internal/http/handlers"
	httpMW "github.com/yungbote/manga-recommender/internal/http/middleware"
	"github.com/yungbote/manga-recommender/internal/observability"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Metrics        *observability.Metrics

	RecommendationHandler *httpH.RecommendationHandler
	HealthHandler         *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(httpMW.RequestTimeout(cfg.RequestTimeout))
	{
		if cfg.RecommendationHandler != nil {
			api.POST("/recommendations", cfg.RecommendationHandler.Recommend)
		}
	}

	return r
}

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/manga-recommender/internal/config"
	httpapi "github.com/yungbote/manga-recommender/internal/http"
	httpH "github.com/yungbote/manga-recommender/internal/http/handlers"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation"
	"github.com/yungbote/manga-recommender/internal/observability"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

type App struct {
	Log         *logger.Logger
	Cfg         config.Config
	Clients     Clients
	Recommender recommendation.Usecases
	Metrics     *observability.Metrics
	Server      *httpapi.Server

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New loads configuration and wires every dependency. It does not start serving.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Exporter:    cfg.Tracing.Exporter,
		Environment: cfg.Server.GinMode,
	})
	metrics := observability.Init(log)

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}

	recommender := wireRecommender(log, cfg, clients)

	gin.SetMode(cfg.Server.GinMode)
	serviceName := ""
	if cfg.Tracing.Enabled {
		serviceName = cfg.Tracing.ServiceName
	}
	server := httpapi.NewServer(httpapi.RouterConfig{
		Log:                   log,
		ServiceName:           serviceName,
		AllowedOrigins:        cfg.Server.AllowedOrigins,
		RequestTimeout:        cfg.Server.RequestTimeout.Std(),
		Metrics:               metrics,
		HealthHandler:         httpH.NewHealthHandler(),
		RecommendationHandler: httpH.NewRecommendationHandler(log, recommender, metrics),
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Recommender:  recommender,
		Metrics:      metrics,
		Server:       server,
		otelShutdown: shutdown,
	}, nil
}

// Start launches background work: metrics collectors and the optional catalog index pass.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.Postgres != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.Clients.Postgres.DB())
	}
	if a.Clients.Cache != nil {
		a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.CacheCfg.Addr)
	}

	if a.Cfg.Catalog.AutoIndex {
		go func() {
			stats, err := IndexCatalog(ctx, a.Log, a.Cfg.Catalog, a.Clients, false)
			if err != nil {
				a.Log.Error("catalog auto-index failed", "error", err)
				return
			}
			a.Log.Info("catalog auto-index finished", "indexed", stats.Indexed, "skipped", stats.Skipped)
		}()
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Server.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if a.Server != nil {
		if err := a.Server.Shutdown(ctx); err != nil {
			a.Log.Warn("server shutdown", "error", err)
		}
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		_ = a.otelShutdown(ctx)
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

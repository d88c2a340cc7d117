package observability

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/manga-recommender/internal/platform/envutil"
	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	runs         *prometheus.CounterVec
	runAttempts  prometheus.Histogram
	qualityScore prometheus.Histogram
	runDuration  *prometheus.HistogramVec

	pgStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Init builds the process-wide metrics once. It returns nil when METRICS_ENABLED is off.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = NewMetrics()
		log.Info("metrics enabled")
	})
	return instance
}

// NewMetrics registers a fresh set of collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mangarec_api_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mangarec_api_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 240},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mangarec_api_inflight_requests",
			Help: "HTTP requests currently being served.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mangarec_runs_total",
			Help: "Recommendation runs by outcome.",
		}, []string{"outcome"}),
		runAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mangarec_run_attempts",
			Help:    "Attempts used per completed run.",
			Buckets: []float64{1, 2, 3, 4, 5},
		}),
		qualityScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mangarec_quality_score",
			Help:    "Quality score of delivered recommendation sets.",
			Buckets: []float64{10, 25, 50, 60, 70, 75, 80, 90, 100},
		}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mangarec_run_duration_seconds",
			Help:    "Wall-clock duration of recommendation runs.",
			Buckets: []float64{1, 5, 10, 20, 30, 60, 120, 180},
		}, []string{"outcome"}),
		pgStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mangarec_postgres_pool",
			Help: "database/sql pool statistics for the catalog database.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mangarec_redis_up",
			Help: "Redis connectivity (1=up, 0=down).",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mangarec_redis_ping_seconds",
			Help: "Redis ping latency in seconds.",
		}),
	}
	m.registry.MustRegister(
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.runs, m.runAttempts, m.qualityScore, m.runDuration,
		m.pgStats, m.redisUp, m.redisPing,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.WithLabelValues(method, route, code).Inc()
	m.apiLatency.WithLabelValues(method, route, code).Observe(dur.Seconds())
}

func (m *Metrics) APIInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) APIInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveRun records one finished run. attempts and score are ignored when not positive.
func (m *Metrics) ObserveRun(outcome string, attempts int, score float64, dur time.Duration) {
	if m == nil {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(dur.Seconds())
	if attempts > 0 {
		m.runAttempts.Observe(float64(attempts))
	}
	if score > 0 {
		m.qualityScore.Observe(score)
	}
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					log.Warn("metrics: postgres stats unavailable", "error", err)
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil || addr == "" {
		return
	}
	interval := scrapeInterval()
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					log.Warn("metrics: redis ping failed", "error", err)
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	rec "github.com/yungbote/manga-recommender/internal/domain/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation"
	"github.com/yungbote/manga-recommender/internal/modules/recommendation/steps"
	"github.com/yungbote/manga-recommender/internal/platform/envutil"
)

const (
	configPathEnv     = "RECOMMENDER_CONFIG_PATH"
	defaultConfigPath = "config/config.yaml"
)

// Duration reads "90s"-style strings or bare seconds from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var secs int
	if err := node.Decode(&secs); err == nil {
		*d = Duration(time.Duration(secs) * time.Second)
		return nil
	}
	return fmt.Errorf("invalid duration %q", raw)
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Policy  PolicyConfig  `yaml:"policy"`
	Catalog CatalogConfig `yaml:"catalog"`
	Cache   CacheConfig   `yaml:"cache"`
	Tracing TracingConfig `yaml:"tracing"`
}

type ServerConfig struct {
	Port           string   `yaml:"port"`
	GinMode        string   `yaml:"gin_mode"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	// RequestTimeout bounds one HTTP request; it should exceed the run timeout.
	RequestTimeout Duration `yaml:"request_timeout"`
}

type LogConfig struct {
	Mode string `yaml:"mode"`
}

type PolicyConfig struct {
	MaxAttempts       int            `yaml:"max_attempts"`
	MaxSteps          int            `yaml:"max_steps"`
	RunTimeout        Duration       `yaml:"run_timeout"`
	InitialStrategy   string         `yaml:"initial_strategy"`
	TopK              int            `yaml:"top_k"`
	PromptCandidates  int            `yaml:"prompt_candidates"`
	MinViable         int            `yaml:"min_viable"`
	PerFavoriteLimit  int            `yaml:"per_favorite_limit"`
	GenrePenalty      float64        `yaml:"genre_penalty"`
	EnrichFavorites   int            `yaml:"enrich_favorites"`
	EnrichCandidates  int            `yaml:"enrich_candidates"`
	EnrichConcurrency int            `yaml:"enrich_concurrency"`
	PassThreshold     int            `yaml:"pass_threshold"`
	Timeouts          TimeoutsConfig `yaml:"timeouts"`
}

type TimeoutsConfig struct {
	Embed    Duration `yaml:"embed"`
	Query    Duration `yaml:"query"`
	Search   Duration `yaml:"search"`
	Generate Duration `yaml:"generate"`
	Score    Duration `yaml:"score"`
}

type CatalogConfig struct {
	// Source is "csv" or "db".
	Source      string `yaml:"source"`
	CSVPath     string `yaml:"csv_path"`
	AutoIndex   bool   `yaml:"auto_index"`
	SourceBatch int    `yaml:"source_batch"`
	EmbedBatch  int    `yaml:"embed_batch"`
	Concurrency int    `yaml:"concurrency"`
}

type CacheConfig struct {
	Enabled bool     `yaml:"enabled"`
	TTL     Duration `yaml:"ttl"`
}

type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// Exporter is "otlp" or "stdout".
	Exporter    string `yaml:"exporter"`
	ServiceName string `yaml:"service_name"`
}

func Default() Config {
	p := recommendation.DefaultPolicy()
	return Config{
		Server: ServerConfig{
			Port:           "8080",
			GinMode:        "release",
			AllowedOrigins: []string{"http://localhost:3000"},
			RequestTimeout: Duration(4 * time.Minute),
		},
		Log: LogConfig{Mode: "production"},
		Policy: PolicyConfig{
			MaxAttempts:       p.MaxAttempts,
			MaxSteps:          p.MaxSteps,
			RunTimeout:        Duration(p.RunTimeout),
			InitialStrategy:   string(p.InitialStrategy),
			TopK:              p.TopK,
			PromptCandidates:  p.PromptCandidates,
			MinViable:         p.MinViable,
			PerFavoriteLimit:  p.PerFavoriteLimit,
			GenrePenalty:      p.GenrePenalty,
			EnrichFavorites:   p.EnrichFavorites,
			EnrichCandidates:  p.EnrichCandidates,
			EnrichConcurrency: p.EnrichConcurrency,
			PassThreshold:     p.PassThreshold,
			Timeouts: TimeoutsConfig{
				Embed:    Duration(p.Timeouts.Embed),
				Query:    Duration(p.Timeouts.Query),
				Search:   Duration(p.Timeouts.Search),
				Generate: Duration(p.Timeouts.Generate),
				Score:    Duration(p.Timeouts.Score),
			},
		},
		Catalog: CatalogConfig{
			Source:      "csv",
			CSVPath:     "data/manga.csv",
			SourceBatch: 1000,
			EmbedBatch:  100,
			Concurrency: 4,
		},
		Cache:   CacheConfig{TTL: Duration(7 * 24 * time.Hour)},
		Tracing: TracingConfig{Exporter: "otlp", ServiceName: "manga-recommender"},
	}
}

// Load applies defaults, then the YAML file, then environment overrides. A
// missing file at the default path is not an error; a missing explicit path is.
func Load() (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv(configPathEnv))
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envutil.String("PORT", c.Server.Port)
	c.Server.GinMode = envutil.String("GIN_MODE", c.Server.GinMode)
	if v := envutil.String("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	c.Server.RequestTimeout = Duration(envutil.Duration("SERVER_REQUEST_TIMEOUT", c.Server.RequestTimeout.Std()))
	c.Log.Mode = envutil.String("LOG_MODE", c.Log.Mode)

	p := &c.Policy
	p.MaxAttempts = envutil.Int("RECOMMENDER_MAX_ATTEMPTS", p.MaxAttempts)
	p.MaxSteps = envutil.Int("RECOMMENDER_MAX_STEPS", p.MaxSteps)
	p.RunTimeout = Duration(envutil.Duration("RECOMMENDER_RUN_TIMEOUT", p.RunTimeout.Std()))
	p.InitialStrategy = envutil.String("RECOMMENDER_INITIAL_STRATEGY", p.InitialStrategy)
	p.TopK = envutil.Int("RECOMMENDER_TOP_K", p.TopK)
	p.PromptCandidates = envutil.Int("RECOMMENDER_PROMPT_CANDIDATES", p.PromptCandidates)
	p.GenrePenalty = envutil.Float("RECOMMENDER_GENRE_PENALTY", p.GenrePenalty)
	p.PassThreshold = envutil.Int("RECOMMENDER_PASS_THRESHOLD", p.PassThreshold)
	p.EnrichConcurrency = envutil.Int("RECOMMENDER_ENRICH_CONCURRENCY", p.EnrichConcurrency)
	p.Timeouts.Generate = Duration(envutil.Duration("RECOMMENDER_GENERATE_TIMEOUT", p.Timeouts.Generate.Std()))
	p.Timeouts.Score = Duration(envutil.Duration("RECOMMENDER_SCORE_TIMEOUT", p.Timeouts.Score.Std()))

	c.Catalog.Source = envutil.String("CATALOG_SOURCE", c.Catalog.Source)
	c.Catalog.CSVPath = envutil.String("CATALOG_CSV_PATH", c.Catalog.CSVPath)
	c.Catalog.AutoIndex = envutil.Bool("CATALOG_AUTO_INDEX", c.Catalog.AutoIndex)
	c.Catalog.Concurrency = envutil.Int("CATALOG_INDEX_CONCURRENCY", c.Catalog.Concurrency)

	c.Cache.Enabled = envutil.Bool("CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.TTL = Duration(envutil.Duration("CACHE_TTL", c.Cache.TTL.Std()))

	c.Tracing.Enabled = envutil.Bool("OTEL_ENABLED", c.Tracing.Enabled)
	c.Tracing.Exporter = envutil.String("OTEL_EXPORTER", c.Tracing.Exporter)
	c.Tracing.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Tracing.ServiceName)
}

// RecommendationPolicy converts the policy section for the orchestrator.
func (c Config) RecommendationPolicy() recommendation.Policy {
	p := c.Policy
	return recommendation.Policy{
		MaxAttempts:       p.MaxAttempts,
		MaxSteps:          p.MaxSteps,
		RunTimeout:        p.RunTimeout.Std(),
		InitialStrategy:   rec.Strategy(p.InitialStrategy),
		TopK:              p.TopK,
		PromptCandidates:  p.PromptCandidates,
		MinViable:         p.MinViable,
		PerFavoriteLimit:  p.PerFavoriteLimit,
		GenrePenalty:      p.GenrePenalty,
		EnrichFavorites:   p.EnrichFavorites,
		EnrichCandidates:  p.EnrichCandidates,
		EnrichConcurrency: p.EnrichConcurrency,
		PassThreshold:     p.PassThreshold,
		Timeouts: steps.Timeouts{
			Embed:    p.Timeouts.Embed.Std(),
			Query:    p.Timeouts.Query.Std(),
			Search:   p.Timeouts.Search.Std(),
			Generate: p.Timeouts.Generate.Std(),
			Score:    p.Timeouts.Score.Std(),
		},
	}
}

func splitList(raw string) []string {
	out := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

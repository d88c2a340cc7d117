package rediscache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/manga-recommender/internal/platform/logger"
)

// Store is a byte-oriented key/value cache. A miss is (nil, false, nil).
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// ConfigFromEnv reads REDIS_* variables. An empty Addr means caching is off.
func ConfigFromEnv() Config {
	cfg := Config{
		Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		Password: os.Getenv("REDIS_PASSWORD"),
		Prefix:   strings.TrimSpace(os.Getenv("REDIS_CACHE_PREFIX")),
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.DB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TTL = time.Duration(n) * time.Second
		}
	}
	return cfg
}

func (c Config) withDefaults() Config {
	if c.Prefix == "" {
		c.Prefix = "mangarec"
	}
	if c.TTL <= 0 {
		c.TTL = 7 * 24 * time.Hour
	}
	return c
}

// RedisStore is the go-redis backed Store.
type RedisStore struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// New connects to Redis and verifies it with a ping.
func New(ctx context.Context, log *logger.Logger, cfg Config) (*RedisStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	cfg = cfg.withDefaults()

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Info("Redis cache connected", "addr", cfg.Addr, "db", cfg.DB, "prefix", cfg.Prefix)
	return &RedisStore{
		log:    log.With("service", "RedisCache"),
		rdb:    rdb,
		prefix: cfg.Prefix,
	}, nil
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s == nil || s.rdb == nil {
		return nil, false, fmt.Errorf("redis cache not initialized")
	}
	raw, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return fmt.Errorf("redis cache not initialized")
	}
	return s.rdb.Set(ctx, s.key(key), value, ttl).Err()
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

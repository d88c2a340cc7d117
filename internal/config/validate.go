package config

import (
	"fmt"
	"strconv"

	"github.com/yungbote/manga-recommender/internal/modules/recommendation"
)

// Validate rejects settings no run could sensibly use.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validatePolicy(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	return c.validateTracing()
}

func (c *Config) validateServer() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("server.port %q is not a valid port", c.Server.Port)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode %q must be debug, release or test", c.Server.GinMode)
	}
	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server.request_timeout must not be negative")
	}
	return nil
}

func (c *Config) validatePolicy() error {
	p := c.Policy
	if p.MaxAttempts < 1 {
		return fmt.Errorf("policy.max_attempts must be at least 1, got %d", p.MaxAttempts)
	}
	if need := recommendation.MinSteps(p.MaxAttempts); p.MaxSteps < need {
		return fmt.Errorf("policy.max_steps must be at least %d for %d attempts, got %d", need, p.MaxAttempts, p.MaxSteps)
	}
	if p.PassThreshold < 0 || p.PassThreshold > 100 {
		return fmt.Errorf("policy.pass_threshold must be within 0..100, got %d", p.PassThreshold)
	}
	if p.RunTimeout < 0 {
		return fmt.Errorf("policy.run_timeout must not be negative")
	}
	if c.Server.RequestTimeout > 0 && p.RunTimeout > c.Server.RequestTimeout {
		return fmt.Errorf("policy.run_timeout %s exceeds server.request_timeout %s", p.RunTimeout.Std(), c.Server.RequestTimeout.Std())
	}
	return c.RecommendationPolicy().Validate()
}

func (c *Config) validateCatalog() error {
	switch c.Catalog.Source {
	case "csv":
		if c.Catalog.AutoIndex && c.Catalog.CSVPath == "" {
			return fmt.Errorf("catalog.csv_path is required when catalog.auto_index is on")
		}
	case "db":
	default:
		return fmt.Errorf("catalog.source %q must be csv or db", c.Catalog.Source)
	}
	return nil
}

func (c *Config) validateTracing() error {
	if !c.Tracing.Enabled {
		return nil
	}
	switch c.Tracing.Exporter {
	case "otlp", "stdout":
		return nil
	default:
		return fmt.Errorf("tracing.exporter %q must be otlp or stdout", c.Tracing.Exporter)
	}
}

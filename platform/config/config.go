// Package config loads the service configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Each consumer depends on the narrowest of these interfaces.

// HTTPConfig covers the listener and the CORS policy.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// CacheConfig covers the optional Redis evaluation cache.
type CacheConfig interface {
	GetRedisURL() string
	GetEvaluationCacheTTL() time.Duration
	IsCacheEnabled() bool
}

// RateLimitConfig covers per-IP request throttling.
type RateLimitConfig interface {
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// AssumptionsConfig points at an optional YAML file overriding tax and fee rates.
type AssumptionsConfig interface {
	GetAssumptionsFile() string
}

// Config is the full set of settings. It satisfies every interface above.
type Config struct {
	Env                string
	HTTPAddr           string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	RedisURL           string
	EvaluationCacheTTL time.Duration
	RateLimitRPS       float64
	RateLimitBurst     int
	AssumptionsFile    string
}

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string                  { return c.RedisURL }
func (c *Config) GetEvaluationCacheTTL() time.Duration { return c.EvaluationCacheTTL }

// IsCacheEnabled reports whether a Redis URL and a positive TTL are both set.
func (c *Config) IsCacheEnabled() bool {
	return c.RedisURL != "" && c.EvaluationCacheTTL > 0
}

func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

func (c *Config) GetAssumptionsFile() string { return c.AssumptionsFile }

const defaultCORSOrigins = "http://localhost:3111,http://localhost:8111,http://127.0.0.1:3111,http://127.0.0.1:8111"

// Load reads the configuration. Unparseable values and unsafe combinations
// are reported together.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var env envReader
	cfg := &Config{
		Env:                env.str("APP_ENV", "development"),
		HTTPAddr:           env.str("HTTP_ADDR", ":8111"),
		CORSOrigins:        splitCSV(env.str("CORS_ORIGINS", defaultCORSOrigins)),
		CORSAllowAll:       env.boolean("CORS_ALLOW_ALL", false),
		CORSAllowCreds:     env.boolean("CORS_ALLOW_CREDENTIALS", true),
		RedisURL:           env.str("REDIS_URL", ""),
		EvaluationCacheTTL: env.duration("EVALUATION_CACHE_TTL", 10*time.Minute),
		RateLimitRPS:       env.float("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     env.integer("RATE_LIMIT_BURST", 20),
		AssumptionsFile:    env.str("ASSUMPTIONS_FILE", ""),
	}
	if slices.Contains(cfg.CORSOrigins, "*") {
		cfg.CORSAllowAll = true
	}

	errs := env.errs
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		errs = append(errs, errors.New("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true"))
	}
	if cfg.RateLimitRPS <= 0 || cfg.RateLimitBurst <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envReader collects parse failures so Load can report them at once.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func (r *envReader) boolean(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

func (r *envReader) duration(key string, fallback time.Duration) time.Duration {
	return parseEnv(r, key, fallback, time.ParseDuration)
}

func (r *envReader) float(key string, fallback float64) float64 {
	return parseEnv(r, key, fallback, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) })
}

func (r *envReader) integer(key string, fallback int) int {
	return parseEnv(r, key, fallback, strconv.Atoi)
}

func parseEnv[T any](r *envReader, key string, fallback T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func splitCSV(value string) []string {
	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

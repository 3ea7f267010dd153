// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port         int
	DatabaseURL  string
	DatabaseType string

	JWTSecret string
	RedisURL  string

	PushGatewayURL  string
	PushGatewayKey  string
	PushConcurrency int

	StoreTimeout time.Duration
	PushTimeout  time.Duration
}

// ParseFlags validates flags and falls back to environment variables for
// anything not given on the command line
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("swivo", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")
	fs.StringVar(&cfg.RedisURL, "redis", "", "Redis URL for the option label cache (optional)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.JWTSecret, "jwt-secret", "", "Bearer token signing secret (prefer env)")
	fs.StringVar(&cfg.PushGatewayKey, "push-key", "", "Push gateway API key (prefer env)")

	// Push delivery
	fs.StringVar(&cfg.PushGatewayURL, "push-url", "", "Push gateway URL; empty logs pushes instead")
	fs.IntVar(&cfg.PushConcurrency, "push-concurrency", 0, "Concurrent push sends per match")

	// Timeouts
	fs.DurationVar(&cfg.StoreTimeout, "store-timeout", 0, "Timeout for one store operation")
	fs.DurationVar(&cfg.PushTimeout, "push-timeout", 0, "Timeout for one push send")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 3318 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}

	if cfg.RedisURL == "" {
		cfg.RedisURL = os.Getenv("REDIS_URL")
	}
	if cfg.PushGatewayURL == "" {
		cfg.PushGatewayURL = os.Getenv("PUSH_GATEWAY_URL")
	}
	if cfg.PushGatewayKey == "" {
		cfg.PushGatewayKey = os.Getenv("PUSH_GATEWAY_KEY")
	}

	if cfg.PushConcurrency == 0 {
		if s := os.Getenv("PUSH_CONCURRENCY"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 {
				return Config{}, errors.New("invalid PUSH_CONCURRENCY env variable")
			}
			cfg.PushConcurrency = n
		} else {
			cfg.PushConcurrency = 8
		}
	}
	if cfg.PushConcurrency < 1 {
		return Config{}, errors.New("push concurrency must be at least 1")
	}

	var err error
	if cfg.StoreTimeout, err = durationOrEnv(cfg.StoreTimeout, "STORE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PushTimeout, err = durationOrEnv(cfg.PushTimeout, "PUSH_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	// Secrets - MUST be provided
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}

	return cfg, nil
}

func durationOrEnv(v time.Duration, env string, def time.Duration) (time.Duration, error) {
	if v != 0 {
		if v < 0 {
			return 0, errors.New(env + " must be positive")
		}
		return v, nil
	}
	s := os.Getenv(env)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + env + " env variable")
	}
	return d, nil
}

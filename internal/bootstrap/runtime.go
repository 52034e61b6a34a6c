// Package bootstrap wires shared runtime dependencies (database, Redis,
// tracing) for the server and CLI entry points.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"strings"

	"chronicle/internal/cache"
	"chronicle/internal/config"
	"chronicle/internal/database"
	"chronicle/internal/observability"
	"chronicle/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedPresetPath applies a YAML fixture preset after the schema is
	// ready. Only honored outside prod-like environments.
	SeedPresetPath string
}

// Runtime holds the shared dependencies established at startup.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client

	shutdownTracing func(context.Context) error
}

// InitRuntime connects to the database and Redis, initializes tracing, and
// optionally applies a development fixture preset.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "chronicle-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.TracingOTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing initialization failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May leave a nil client if Redis is unreachable. The server degrades
	// to single-process mode in that case.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedPresetPath != "" {
		if err := applyFixturePreset(cfg, db, opts.SeedPresetPath); err != nil {
			return nil, fmt.Errorf("fixture preset failed: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: r, shutdownTracing: shutdownTracing}, nil
}

// Close flushes and shuts down tracing. Database and Redis connections are
// owned by the server and closed during its shutdown.
func (r *Runtime) Close(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

func applyFixturePreset(cfg *config.Config, db *gorm.DB, path string) error {
	if isProdLike(cfg.Env) {
		return fmt.Errorf("fixture presets are disabled in %q", cfg.Env)
	}

	preset, err := seed.LoadPreset(path)
	if err != nil {
		return err
	}

	factory := seed.NewFactory(db, seed.Options{FastPasswords: true})
	if _, err := preset.Apply(factory); err != nil {
		return err
	}

	log.Printf("applied fixture preset %s (%d users)", path, len(preset.Users))
	return nil
}

func isProdLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging":
		return true
	}
	return false
}

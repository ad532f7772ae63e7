package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dona"
	"github.com/aretw0/dona/internal/config"
	"github.com/aretw0/dona/pkg/adapters/file"
	"github.com/aretw0/dona/pkg/adapters/memory"
	"github.com/aretw0/dona/pkg/adapters/mysql"
	"github.com/aretw0/dona/pkg/adapters/redis"
	"github.com/aretw0/dona/pkg/persistence/middleware"
	"github.com/aretw0/dona/pkg/tasks"
	"github.com/prometheus/client_golang/prometheus"
)

// OpenApp initializes an App for the configured backend with standard CLI conventions.
// A nil reg disables metrics.
func OpenApp(ctx context.Context, cfg config.Config, logger *slog.Logger, reg prometheus.Registerer) (*dona.App, error) {
	appOpts := []dona.Option{
		dona.WithLogger(logger),
		dona.WithStoreOptions(tasks.WithMaxTitleSize(cfg.MaxTitleSize)),
	}

	// 1. Metrics
	if reg != nil {
		appOpts = append(appOpts, dona.WithMetrics(reg))
	}

	// 2. Encryption at rest
	if cfg.EncryptionKey != "" {
		encCfg, err := encryptionConfig(cfg)
		if err != nil {
			return nil, err
		}
		appOpts = append(appOpts, dona.WithEncryption(encCfg))
	}

	// 3. Backend
	// opened is released here if the App never takes ownership of it.
	var opened io.Closer
	dataDir := cfg.Path(cfg.Backend)
	switch cfg.Backend {
	case config.BackendLoam:
		// Default repository of dona.New.
	case config.BackendMemory:
		dataDir = ""
		appOpts = append(appOpts, dona.WithRepository(memory.NewStore()))
	case config.BackendFile:
		appOpts = append(appOpts, dona.WithRepository(file.New(dataDir)))
	case config.BackendRedis:
		store, err := redis.NewFromURL(cfg.RedisURL, redis.WithPrefix(cfg.RedisPrefix))
		if err != nil {
			return nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		// Processes sharing the server also share the per-task locks.
		locker := redis.NewLocker(store.Client(), store.Prefix())
		opened = store
		dataDir = ""
		appOpts = append(appOpts,
			dona.WithRepository(store),
			dona.WithCloser(store),
			dona.WithStoreOptions(tasks.WithLocker(locker)),
		)
	case config.BackendMySQL:
		store, err := mysql.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, err
		}
		opened = store
		dataDir = ""
		appOpts = append(appOpts, dona.WithRepository(store), dona.WithCloser(store))
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	logger.Debug("Opening task list", "backend", cfg.Backend, "path", dataDir)

	app, err := dona.New(dataDir, appOpts...)
	if err != nil {
		if opened != nil {
			_ = opened.Close()
		}
		return nil, fmt.Errorf("error initializing dona: %w", err)
	}
	return app, nil
}

func encryptionConfig(cfg config.Config) (middleware.EncryptionConfig, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return middleware.EncryptionConfig{}, err
	}
	encCfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, encoded := range cfg.EncryptionFallbackKeys {
		if encoded == "" {
			continue
		}
		key, err := middleware.ParseKey(encoded)
		if err != nil {
			return middleware.EncryptionConfig{}, fmt.Errorf("fallback key %d: %w", i+1, err)
		}
		encCfg.FallbackKeys = append(encCfg.FallbackKeys, key)
	}
	return encCfg, nil
}

// WatchPath returns the directory holding the task files of cfg's backend,
// or "" when the backend does not live on the local filesystem.
func WatchPath(cfg config.Config) string {
	switch cfg.Backend {
	case config.BackendFile, config.BackendLoam:
		return cfg.Path(cfg.Backend)
	}
	return ""
}

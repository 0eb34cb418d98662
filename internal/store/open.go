package store

import (
	"github.com/pkg/errors"

	"gwi.com/wishlist-assistant/internal/config"
)

// Open builds the KV backend named by cfg.StoreBackend.
func Open(cfg config.Config) (KV, error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return NewMemoryKV(), nil
	case "sqlite":
		return NewSQLiteKV(cfg.DatabaseURL)
	case "bolt":
		return NewBoltKV(cfg.BoltPath)
	case "redis":
		return NewRedisKV(cfg.RedisURL, cfg.StoreTTL)
	default:
		return nil, errors.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}

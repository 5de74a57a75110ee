// Package cache keeps downloaded resources (fonts, stylesheets, images, emoji)
// between renders.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"ogcard/config"
	"ogcard/misc"
)

// Cache stores opaque byte values under string keys. Implementations are safe
// for concurrent use. A miss is reported as (nil, false, nil), errors are
// reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data, zero ttl means entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key builds cache key from its parts: sha256 of NUL separated parts in hex.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// New creates cache backend selected by configuration.
func New(cfg config.CacheConfig, log *zap.Logger) (Cache, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("cache")

	switch cfg.Kind {
	case config.CacheKindNone:
		log.Debug("Caching disabled")
		return Null{}, nil
	case config.CacheKindMemory:
		log.Debug("Using memory cache", zap.Int("max_entries", cfg.MaxEntries))
		return NewMemory(cfg.MaxEntries), nil
	case config.CacheKindFile:
		dir := cfg.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				return nil, fmt.Errorf("unable to determine user cache directory: %w", err)
			}
			dir = filepath.Join(base, misc.GetAppName())
		}
		log.Debug("Using file cache", zap.String("dir", dir))
		return NewFile(dir)
	case config.CacheKindRedis:
		log.Debug("Using redis cache", zap.String("addr", cfg.Redis.Addr), zap.Int("db", cfg.Redis.DB), zap.Stringer("password", cfg.Redis.Password))
		return NewRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unsupported cache kind %s", cfg.Kind)
	}
}

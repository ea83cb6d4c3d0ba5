// ABOUTME: Store/Reader interfaces for the persisted credential token slot
// ABOUTME: NewStore picks a driver from config (file, sqlite, redis, memory)

package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/2389/legisbot/internal/config"
)

// Errors returned by the store factory
var (
	ErrInvalidDriver = errors.New("invalid credential driver")
	ErrInvalidConfig = errors.New("invalid credential configuration")
)

// Reader gives read-only access to the persisted token.
type Reader interface {
	// Load returns the persisted token, or "" if none is stored.
	Load(ctx context.Context) (string, error)
}

// Store is the single writable credential slot.
type Store interface {
	Reader

	// Save replaces the persisted token.
	Save(ctx context.Context, token string) error

	// Clear removes the persisted token. Clearing an empty slot is not an error.
	Clear(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}

// NewStore creates the Store selected by cfg.Driver.
func NewStore(ctx context.Context, cfg config.CredentialsConfig) (Store, error) {
	switch cfg.Driver {
	case config.DriverFile, "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: file driver requires a path", ErrInvalidConfig)
		}
		return NewFileStore(cfg.Path), nil

	case config.DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: sqlite driver requires a path", ErrInvalidConfig)
		}
		return NewSQLiteStore(ctx, cfg.Path)

	case config.DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("%w: redis driver requires an address", ErrInvalidConfig)
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedisStore(client, cfg.RedisKey), nil

	case config.DriverMemory:
		return NewMemoryStore(""), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDriver, cfg.Driver)
	}
}

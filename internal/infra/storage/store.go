package storage

import (
	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"

	"fileuploader/internal/infra/logging"
)

// RedisConfig selects a Redis database for a fiber.Storage backend.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns a Redis-backed fiber.Storage, or an in-memory one when no
// address is configured or Redis cannot be reached.
func NewStore(cfg RedisConfig) (store fiber.Storage) {
	if cfg.Addr == "" {
		return memoryStorage.New()
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Redis store init panicked, falling back to memory", "addr", cfg.Addr, "db", cfg.DB, "panic", r)
			store = memoryStorage.New()
		}
	}()
	store = redisStorage.New(redisStorage.Config{
		Addrs:    []string{cfg.Addr},
		Database: cfg.DB,
	})
	logging.Info("Using Redis store", "addr", cfg.Addr, "db", cfg.DB)
	return store
}

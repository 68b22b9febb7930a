package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	memoryStorage "github.com/gofiber/storage/memory/v2"

	"fileuploader/internal/config"
	"fileuploader/internal/infra/logging"
)

// RateLimiter resolves the request budget of an API token. Zero means unlimited.
type RateLimiter interface {
	RateLimit(token string) int
}

// LimiterCache keeps one limiter handler per distinct token limit so that
// tokens sharing a limit share the handler but not the counter key.
type LimiterCache struct {
	mu       sync.RWMutex
	handlers map[int]fiber.Handler
	interval time.Duration
	store    fiber.Storage
}

func NewLimiterCache(interval time.Duration, store fiber.Storage) *LimiterCache {
	if store == nil {
		store = memoryStorage.New()
	}
	return &LimiterCache{
		handlers: make(map[int]fiber.Handler),
		interval: interval,
		store:    store,
	}
}

// Get returns the limiter for limit, creating it on first use.
func (lc *LimiterCache) Get(limit int) fiber.Handler {
	lc.mu.RLock()
	h, ok := lc.handlers[limit]
	lc.mu.RUnlock()
	if ok {
		return h
	}

	lc.mu.Lock()
	defer lc.mu.Unlock()
	if h, ok := lc.handlers[limit]; ok {
		return h
	}
	h = limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        lc.interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           lc.store,
		KeyGenerator: func(c *fiber.Ctx) string {
			token, _ := c.Locals(APIKeyLocal).(string)
			return "token:" + token
		},
		LimitReached: func(c *fiber.Ctx) error {
			token, _ := c.Locals(APIKeyLocal).(string)
			logging.Warn("Rate limit exceeded", "token", token, "path", c.Path())
			return errorJSON(c, fiber.StatusTooManyRequests, "Too Many Requests")
		},
	})
	lc.handlers[limit] = h
	return h
}

// Len reports how many distinct limiters have been created.
func (lc *LimiterCache) Len() int {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return len(lc.handlers)
}

// TokenRateLimit applies per-token limits to authenticated requests.
func TokenRateLimit(cfg config.Config, rater RateLimiter, store fiber.Storage) fiber.Handler {
	limiters := NewLimiterCache(cfg.RateLimiter.Interval, store)
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals(APIKeyLocal).(string)
		if !ok || token == "" {
			return c.Next()
		}
		limit := rater.RateLimit(token)
		if limit <= 0 {
			return c.Next()
		}
		return limiters.Get(limit)(c)
	}
}

func clientKey(c *fiber.Ctx) string {
	sum := sha256.Sum256([]byte(c.IP() + c.Get(fiber.HeaderUserAgent)))
	return hex.EncodeToString(sum[:])
}

// UserRateLimit limits anonymous requests by client IP and user agent.
// Requests carrying an API key are left to TokenRateLimit.
func UserRateLimit(cfg config.Config, store fiber.Storage) fiber.Handler {
	if cfg.RateLimiter.UserLimit <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	if store == nil {
		store = memoryStorage.New()
	}
	userLimiter := limiter.New(limiter.Config{
		Max:               cfg.RateLimiter.UserLimit,
		Expiration:        cfg.RateLimiter.Interval,
		LimiterMiddleware: limiter.SlidingWindow{},
		Storage:           store,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "user:" + clientKey(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			logging.Warn("Rate limit exceeded", "user", clientKey(c), "path", c.Path())
			return errorJSON(c, fiber.StatusTooManyRequests, "Too Many Requests")
		},
	})
	return func(c *fiber.Ctx) error {
		if token, ok := c.Locals(APIKeyLocal).(string); ok && token != "" {
			return c.Next()
		}
		return userLimiter(c)
	}
}

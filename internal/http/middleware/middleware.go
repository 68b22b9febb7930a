package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/keyauth"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/xid"

	"fileuploader/internal/config"
	"fileuploader/internal/infra/logging"
	"fileuploader/internal/tokens"
)

// APIKeyLocal is the fiber.Ctx local holding the authenticated API key.
const APIKeyLocal = "api_key"

// Deps are the collaborators the global middleware needs.
type Deps struct {
	Tokens *tokens.Cache
	Store  fiber.Storage
	// Ready is consulted by /readyz. Nil means always ready.
	Ready func() bool
}

// Register attaches global middleware to the app.
func Register(app *fiber.App, cfg config.Config, deps Deps) {
	if deps.Tokens == nil {
		deps.Tokens = tokens.NewCache()
	}

	app.Use(cors.New())

	app.Use(requestid.New(requestid.Config{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: func(c *fiber.Ctx) bool {
			return deps.Ready == nil || deps.Ready()
		},
	}))

	app.Use(keyauth.New(keyauth.Config{
		KeyLookup:  "header:X-API-Key",
		ContextKey: APIKeyLocal,
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			if err := deps.Tokens.Validate(key); err != nil {
				return false, err
			}
			return true, nil
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Get("X-API-Key") == ""
		},
		ErrorHandler: authErrorHandler,
	}))

	app.Use(TokenRateLimit(cfg, deps.Tokens, deps.Store))

	if cfg.RateLimiter.EnableUserLimiter || cfg.RateLimiter.UserLimit > 0 {
		app.Use(UserRateLimit(cfg, deps.Store))
	}

	app.Use(func(c *fiber.Ctx) error {
		requestID := c.Get(fiber.HeaderXRequestID)
		if requestID == "" {
			requestID = c.GetRespHeader(fiber.HeaderXRequestID)
		}
		logging.Info("Incoming request", "method", c.Method(), "path", c.Path(), "request_id", requestID)
		return c.Next()
	})
}

// keyauth may call the error handler with a nil error.
func authErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusUnauthorized
	if err == nil {
		err = fiber.ErrUnauthorized
	}
	if errors.Is(err, tokens.ErrTokenStoreNotReady) {
		status = fiber.StatusServiceUnavailable
	}
	return errorJSON(c, status, err.Error())
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    status,
			"message": msg,
		},
	})
}

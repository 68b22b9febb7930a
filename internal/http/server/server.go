package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/monitor"

	"fileuploader/internal/config"
	"fileuploader/internal/filerepository"
	"fileuploader/internal/http/handlers"
	"fileuploader/internal/http/middleware"
	"fileuploader/internal/infra/logging"
	"fileuploader/internal/sections"
	"fileuploader/internal/tokens"
	"fileuploader/internal/uploading"
)

// Deps bundles everything the HTTP layer is built from.
type Deps struct {
	Config       config.Config
	Uploader     uploading.Uploader
	Repositories *filerepository.Registry
	Sections     *sections.Registry
	Tokens       *tokens.Cache
	LimiterStore fiber.Storage
	Ready        func() bool
}

// New creates and configures the Fiber app.
func New(deps Deps) *fiber.App {
	cfg := deps.Config
	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		DisableStartupMessage: true,
		BodyLimit:             cfg.Uploader.MaxBodyBytes,
		ErrorHandler:          errorHandler,
	})

	middleware.Register(app, cfg, middleware.Deps{
		Tokens: deps.Tokens,
		Store:  deps.LimiterStore,
		Ready:  deps.Ready,
	})
	registerRoutes(app, deps)

	// Ensure all responses, including 404s, return JSON
	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Not Found")
	})

	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		msg = e.Message
	}

	logging.Warn("Request failed", "path", c.Path(), "status", code, "message", msg)

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": msg,
		},
	})
}

func registerRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/v1")

	upload := handlers.NewUploadHandler(deps.Config.Uploader.Enabled, deps.Uploader)
	v1.Post("/upload", upload.HandleUpload)

	if deps.Sections != nil {
		s := handlers.NewSectionsHandler(deps.Sections)
		v1.Get("/sections", s.HandleList)
		v1.Get("/sections/:id", s.HandleGet)
	}

	if deps.Repositories != nil {
		f := handlers.NewFilesHandler(deps.Repositories)
		v1.Get("/files/:id", f.HandleDescribe)
		v1.Get("/files/:id/content", f.HandleContent)
	}

	v1.Get("/monitor", monitor.New())
}

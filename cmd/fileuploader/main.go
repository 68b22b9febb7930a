package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"fileuploader/internal/config"
	"fileuploader/internal/filerepository"
	"fileuploader/internal/http/server"
	"fileuploader/internal/infra/logging"
	"fileuploader/internal/infra/postgres"
	"fileuploader/internal/infra/storage"
	"fileuploader/internal/sections"
	"fileuploader/internal/tokens"
	"fileuploader/internal/uploading"
)

func main() {
	cfg := config.Load()

	if err := ensureLogDir(cfg.Logger.File); err != nil {
		logging.Error("Cannot create log directory", "file", cfg.Logger.File, "error", err)
	}
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app, cleanup, err := buildApp(ctx, cfg)
	if err != nil {
		logging.Error("Failed to start", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// ensureLogDir creates the parent directory of a log file path.
func ensureLogDir(file string) error {
	if file == "" {
		return nil
	}
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// buildApp wires config into the HTTP app. The returned cleanup releases
// Redis and Postgres handles.
func buildApp(ctx context.Context, cfg config.Config) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var rdb *redis.Client
	var cache filerepository.DescriptorCache
	if cfg.Cache.RedisHost != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.DescriptorDB,
		})
		closers = append(closers, func() { _ = rdb.Close() })
		cache = filerepository.NewRedisCache(rdb, cfg.Cache.DescriptorTTL)
	}

	var index filerepository.Index = filerepository.NewMemoryIndex()
	if cfg.Metadata.Postgres.Enabled() {
		dsn, err := postgres.DSN(cfg.Metadata.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		db := postgres.NewDB()
		closers = append(closers, func() { _ = db.Close() })
		index = postgres.NewFileIndex(db, dsn)
		logging.Info("Using Postgres file index", "host", cfg.Metadata.Postgres.Host)
	}

	storeFor := func(name string, rc config.RepositoryConfig) fiber.Storage {
		if rc.Storage != "redis" {
			return storage.NewStore(storage.RedisConfig{})
		}
		return storage.NewStore(storage.RedisConfig{Addr: cfg.Cache.RedisHost, DB: cfg.Cache.StorageDB})
	}
	repos := filerepository.FromConfig(cfg.Repositories, storeFor, index, cache)

	secs, err := sections.FromConfig(cfg.Sections)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	tokenCache := tokens.NewCache()
	tokensReady := func() bool { return true }
	if cfg.Auth.Postgres.Enabled() {
		dsn, err := postgres.DSN(cfg.Auth.Postgres)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		db := postgres.NewDB()
		closers = append(closers, func() { _ = db.Close() })
		reloader := tokens.NewReloader(postgres.NewTokenRepository(db, dsn), tokenCache, cfg.Auth.TokenReloadInterval)
		if err := reloader.LoadOnce(ctx); err != nil {
			logging.Error("Failed to load API tokens", "error", err)
		}
		reloader.Start(ctx)
		tokensReady = tokenCache.Ready
	} else {
		// Without a token source every presented key is unknown.
		tokenCache.Replace(map[string]tokens.Entry{})
	}

	limiterStore := storage.NewStore(storage.RedisConfig{Addr: cfg.Cache.RedisHost, DB: cfg.Cache.RateLimitDB})

	uploader := uploading.NewWebUploader(
		uploading.NewRepositoryGateway(repos, cfg.Uploader.FieldName, cfg.Uploader.DefaultRepository),
	)

	app := server.New(server.Deps{
		Config:       cfg,
		Uploader:     uploader,
		Repositories: repos,
		Sections:     secs,
		Tokens:       tokenCache,
		LimiterStore: limiterStore,
		Ready:        tokensReady,
	})

	logging.Info("Uploader configured",
		"enabled", cfg.Uploader.Enabled,
		"repositories", repos.Names(),
		"default_repository", cfg.Uploader.DefaultRepository,
		"sections", secs.Len(),
	)
	return app, cleanup, nil
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")
	shutdown(app, 5*time.Second)

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}

func shutdown(app *fiber.App, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// PostgresConfig describes a Postgres connection. Host may also carry a full
// postgres:// URL, in which case the other fields are ignored.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether a Postgres backend has been configured at all.
func (p PostgresConfig) Enabled() bool {
	return p.Host != ""
}

// RepositoryConfig is the validation and storage policy of one named file repository.
type RepositoryConfig struct {
	Storage           string   `yaml:"storage"` // "memory" or "redis"
	KeyPrefix         string   `yaml:"key_prefix"`
	MaxFileBytes      int64    `yaml:"max_file_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	AllowedMimeTypes  []string `yaml:"allowed_mime_types"`
}

// SectionConfig is one entry of the section registry.
type SectionConfig struct {
	ID         string         `yaml:"id"`
	Controller string         `yaml:"controller"`
	Metadata   map[string]any `yaml:"metadata"`
}

type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		RedisHost     string        `yaml:"redis_host"`
		RateLimitDB   int           `yaml:"rate_limit_db"`
		StorageDB     int           `yaml:"storage_db"`
		DescriptorDB  int           `yaml:"descriptor_db"`
		DescriptorTTL time.Duration `yaml:"descriptor_ttl"`
	} `yaml:"cache"`

	Auth struct {
		Postgres            PostgresConfig `yaml:"postgres"`
		TokenReloadInterval time.Duration  `yaml:"token_reload_interval"`
	} `yaml:"auth"`

	RateLimiter struct {
		Interval          time.Duration `yaml:"interval"`
		UserLimit         int           `yaml:"user_limit"`
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	} `yaml:"rate_limiter"`

	Uploader struct {
		Enabled           bool   `yaml:"enabled"`
		DefaultRepository string `yaml:"default_repository"`
		FieldName         string `yaml:"field_name"`
		MaxBodyBytes      int    `yaml:"max_body_bytes"`
	} `yaml:"uploader"`

	Metadata struct {
		Postgres PostgresConfig `yaml:"postgres"`
	} `yaml:"metadata"`

	Repositories map[string]RepositoryConfig `yaml:"repositories"`
	Sections     []SectionConfig             `yaml:"sections"`
}

// AppConfig holds the configuration loaded by Load. Handlers that are built
// before the config is known may read it through GetConfig.
var AppConfig Config

// GetConfig returns the currently loaded configuration.
func GetConfig() Config {
	return AppConfig
}

// Load reads the configuration from CONFIG_PATH, falling back to ./config.yaml.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads, defaults and validates the YAML file at path. It panics on
// any error: the service cannot start with a broken config.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("cannot read config %q: %v", path, err))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("cannot parse config %q: %v", path, err))
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config %q: %v", path, err))
	}

	AppConfig = cfg
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = ":8080"
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = "info"
	}
	if cfg.Cache.DescriptorTTL == 0 {
		cfg.Cache.DescriptorTTL = 10 * time.Minute
	}
	if cfg.Auth.TokenReloadInterval == 0 {
		cfg.Auth.TokenReloadInterval = time.Minute
	}
	if cfg.RateLimiter.Interval == 0 {
		cfg.RateLimiter.Interval = time.Minute
	}
	if cfg.Uploader.FieldName == "" {
		cfg.Uploader.FieldName = "file"
	}
	if cfg.Uploader.MaxBodyBytes == 0 {
		cfg.Uploader.MaxBodyBytes = 32 * 1024 * 1024
	}
	if len(cfg.Repositories) == 0 {
		cfg.Repositories = map[string]RepositoryConfig{
			"default": {Storage: "memory"},
		}
	}
	if cfg.Uploader.DefaultRepository == "" {
		if _, ok := cfg.Repositories["default"]; ok {
			cfg.Uploader.DefaultRepository = "default"
		}
	}
	for name, repo := range cfg.Repositories {
		if repo.Storage == "" {
			repo.Storage = "memory"
		}
		if repo.KeyPrefix == "" {
			repo.KeyPrefix = name + "/"
		}
		cfg.Repositories[name] = repo
	}
}

// UPLOADER_ENABLED lets deployments flip the feature flag without editing the file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("UPLOADER_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Uploader.Enabled = b
		}
	}
}

// Validate checks values that defaults cannot repair.
func (c Config) Validate() error {
	if c.RateLimiter.Interval < 0 {
		return fmt.Errorf("rate_limiter.interval must be positive")
	}
	if c.RateLimiter.UserLimit < 0 {
		return fmt.Errorf("rate_limiter.user_limit must not be negative")
	}
	if c.Auth.TokenReloadInterval < 0 {
		return fmt.Errorf("auth.token_reload_interval must be positive")
	}
	if c.Uploader.MaxBodyBytes < 0 {
		return fmt.Errorf("uploader.max_body_bytes must not be negative")
	}
	if _, ok := c.Repositories[c.Uploader.DefaultRepository]; c.Uploader.DefaultRepository != "" && !ok {
		return fmt.Errorf("uploader.default_repository %q is not a configured repository", c.Uploader.DefaultRepository)
	}
	for name, repo := range c.Repositories {
		if repo.Storage != "memory" && repo.Storage != "redis" {
			return fmt.Errorf("repositories.%s.storage must be memory or redis, got %q", name, repo.Storage)
		}
		if repo.MaxFileBytes < 0 {
			return fmt.Errorf("repositories.%s.max_file_bytes must not be negative", name)
		}
		if repo.Storage == "redis" && c.Cache.RedisHost == "" {
			return fmt.Errorf("repositories.%s uses redis storage but cache.redis_host is empty", name)
		}
	}
	seen := make(map[string]struct{}, len(c.Sections))
	for i, s := range c.Sections {
		if s.ID == "" {
			return fmt.Errorf("sections[%d].id is empty", i)
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("sections[%d].id %q is duplicated", i, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

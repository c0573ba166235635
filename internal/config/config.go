// Package config loads ingest-manager configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	defaultServerPort      = 8070
	defaultServerTimeout   = 30 * time.Second
	defaultDatabasePort    = 5432
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	defaultRedisAddress    = "localhost:6379"

	defaultIdleDelay    = 2 * time.Second
	defaultJobDelay     = 1 * time.Second
	defaultFetchTimeout = 12 * time.Second

	defaultDiscoveryMaxURLs = 300
	defaultDiscoveryTimeout = 10 * time.Second

	defaultLLMModel     = "claude-3-5-haiku-latest"
	defaultLLMMaxTokens = 1024
	defaultMaxTags      = 10

	defaultStorageDir = "data/uploads"
)

// Config is the top-level service configuration.
type Config struct {
	Debug     bool            `env:"APP_DEBUG" yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Worker    WorkerConfig    `yaml:"worker"`
	Discovery DiscoveryConfig `yaml:"discovery"`
	LLM       LLMConfig       `yaml:"llm"`
	Storage   StorageConfig   `yaml:"storage"`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" yaml:"host"`
	Port         int           `env:"SERVER_PORT" yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	CORSOrigins  []string      `env:"CORS_ORIGINS" yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `env:"DB_HOST"     yaml:"host"`
	Port            int           `env:"DB_PORT"     yaml:"port"`
	User            string        `env:"DB_USER"     yaml:"user"`
	Password        string        `env:"DB_PASSWORD" yaml:"password"`
	DBName          string        `env:"DB_NAME"     yaml:"dbname"`
	SSLMode         string        `env:"DB_SSLMODE"  yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis connection configuration for event publishing.
type RedisConfig struct {
	Address  string `env:"REDIS_ADDRESS"        yaml:"address"`
	Password string `env:"REDIS_PASSWORD"       yaml:"password"`
	DB       int    `env:"REDIS_DB"             yaml:"db"`
	Enabled  bool   `env:"REDIS_EVENTS_ENABLED" yaml:"enabled"`
}

// WorkerConfig tunes the claim-and-dispatch loop.
type WorkerConfig struct {
	// IdleDelay is the pause after a claim attempt finds no pending job.
	IdleDelay time.Duration `yaml:"idle_delay"`
	// JobDelay is the shorter pause after a job has been processed.
	JobDelay time.Duration `yaml:"job_delay"`
	// FetchTimeout bounds every page fetch made while processing.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
}

// DiscoveryConfig tunes website URL discovery.
type DiscoveryConfig struct {
	MaxURLs int           `yaml:"max_urls"`
	Timeout time.Duration `yaml:"timeout"`
}

// LLMConfig configures the summarization and tagging adapters.
type LLMConfig struct {
	APIKey      string `env:"ANTHROPIC_API_KEY" yaml:"api_key"`
	Model       string `env:"LLM_MODEL"         yaml:"model"`
	MaxTokens   int    `yaml:"max_tokens"`
	TagsEnabled bool   `env:"LLM_TAGS_ENABLED"  yaml:"tags_enabled"`
	MaxTags     int    `yaml:"max_tags"`
}

// StorageConfig locates the opaque blob store for uploaded files.
type StorageConfig struct {
	Dir string `env:"STORAGE_DIR" yaml:"dir"`
}

func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return errors.New("server.host is required")
	}
	if c.Server.Port <= 0 {
		return errors.New("server.port is required and must be positive")
	}
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.Port <= 0 {
		return errors.New("database.port is required and must be positive")
	}
	if c.Database.User == "" {
		return errors.New("database.user is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.LLM.APIKey == "" {
		return errors.New("llm.api_key is required")
	}
	return nil
}

// Load reads the config file at path, applies defaults and env overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := load(path, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultServerTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultServerTimeout
	}
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"http://localhost:3000"}
	}

	if cfg.Database.Port == 0 {
		cfg.Database.Port = defaultDatabasePort
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = defaultMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = defaultConnMaxLifetime
	}

	if cfg.Redis.Address == "" {
		cfg.Redis.Address = defaultRedisAddress
	}

	if cfg.Worker.IdleDelay == 0 {
		cfg.Worker.IdleDelay = defaultIdleDelay
	}
	if cfg.Worker.JobDelay == 0 {
		cfg.Worker.JobDelay = defaultJobDelay
	}
	if cfg.Worker.FetchTimeout == 0 {
		cfg.Worker.FetchTimeout = defaultFetchTimeout
	}

	if cfg.Discovery.MaxURLs == 0 {
		cfg.Discovery.MaxURLs = defaultDiscoveryMaxURLs
	}
	if cfg.Discovery.Timeout == 0 {
		cfg.Discovery.Timeout = defaultDiscoveryTimeout
	}

	if cfg.LLM.Model == "" {
		cfg.LLM.Model = defaultLLMModel
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if cfg.LLM.MaxTags == 0 {
		cfg.LLM.MaxTags = defaultMaxTags
	}

	if cfg.Storage.Dir == "" {
		cfg.Storage.Dir = defaultStorageDir
	}
}

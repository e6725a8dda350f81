// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Corpus, Search, Driver, Store, Server, Redis, Postgres, Kafka,
// etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Corpus   CorpusConfig   `yaml:"corpus"`
	Search   SearchConfig   `yaml:"search"`
	Driver   DriverConfig   `yaml:"driver"`
	Store    StoreConfig    `yaml:"store"`
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CorpusConfig points at a local word list and selects its loader.
type CorpusConfig struct {
	Path      string `yaml:"path"`
	Format    string `yaml:"format"`
	Separator string `yaml:"separator"`
}

// SearchConfig holds the decomposition policy parameters.
type SearchConfig struct {
	Variant           string `yaml:"variant"`
	MinIncludeWordLen int    `yaml:"minIncludeWordLen"`
	MinTestWordLen    int    `yaml:"minTestWordLen"`
	MinClippedWordLen int    `yaml:"minClippedWordLen"`
	MaxDepth          int    `yaml:"maxDepth"`
	InternalOnly      bool   `yaml:"internalOnly"`
	Subtractions      bool   `yaml:"subtractions"`
	Replacements      bool   `yaml:"replacements"`
}

// DriverConfig controls the worker pool and checkpointing of a search run.
type DriverConfig struct {
	PoolSize           int           `yaml:"poolSize"`
	ChunkSize          int           `yaml:"chunkSize"`
	ChunkTimeout       time.Duration `yaml:"chunkTimeout"`
	CheckpointInterval time.Duration `yaml:"checkpointInterval"`
	MemoLimit          int           `yaml:"memoLimit"`
	PublishHits        bool          `yaml:"publishHits"`
}

// StoreConfig selects the result store snapshot backend.
type StoreConfig struct {
	DataDir string `yaml:"dataDir"`
	Backend string `yaml:"backend"`
}

// ServerConfig holds HTTP server settings for the graph query service.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	DefaultTop      int           `yaml:"defaultTop"`
	MaxTop          int           `yaml:"maxTop"`
	MaxFilterDepth  int           `yaml:"maxFilterDepth"`
	// RateLimit is the number of requests per RateWindow allowed from one
	// client address. Zero disables rate limiting.
	RateLimit       int           `yaml:"rateLimit"`
	RateWindow      time.Duration `yaml:"rateWindow"`
	CORSOrigins     []string      `yaml:"corsOrigins"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DecompositionHits string `yaml:"decompositionHits"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a .env file (if present), a YAML config file (if provided) and
// applies environment-variable overrides. It returns a Config populated with
// defaults for any missing values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env file: %w", err)
	}
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
func Default() *Config {
	return defaultConfig()
}

// Validate rejects configurations the driver cannot run with.
func (c *Config) Validate() error {
	switch c.Search.Variant {
	case "subtraction", "graph":
	default:
		return fmt.Errorf("search.variant %q: must be subtraction or graph", c.Search.Variant)
	}
	switch c.Store.Backend {
	case "segment", "badger":
	default:
		return fmt.Errorf("store.backend %q: must be segment or badger", c.Store.Backend)
	}
	switch c.Corpus.Format {
	case "txt", "cmudict":
	default:
		return fmt.Errorf("corpus.format %q: must be txt or cmudict", c.Corpus.Format)
	}
	if c.Driver.PoolSize <= 0 {
		return fmt.Errorf("driver.poolSize must be positive, got %d", c.Driver.PoolSize)
	}
	if c.Driver.ChunkSize <= 0 {
		return fmt.Errorf("driver.chunkSize must be positive, got %d", c.Driver.ChunkSize)
	}
	if c.Search.MinTestWordLen < 1 || c.Search.MinClippedWordLen < 1 {
		return fmt.Errorf("search.minTestWordLen and search.minClippedWordLen must be at least 1")
	}
	if c.Search.MaxDepth < 0 {
		return fmt.Errorf("search.maxDepth must not be negative, got %d", c.Search.MaxDepth)
	}
	return nil
}

// defaultConfig returns a Config with the defaults used for local runs.
func defaultConfig() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Format:    "txt",
			Separator: "\n",
		},
		Search: SearchConfig{
			Variant:           "subtraction",
			MinIncludeWordLen: 9,
			MinTestWordLen:    2,
			MinClippedWordLen: 3,
			MaxDepth:          0,
			InternalOnly:      true,
			Subtractions:      true,
			Replacements:      true,
		},
		Driver: DriverConfig{
			PoolSize:           12,
			ChunkSize:          100,
			ChunkTimeout:       10 * time.Minute,
			CheckpointInterval: 5 * time.Minute,
			MemoLimit:          200000,
		},
		Store: StoreConfig{
			DataDir: "data",
			Backend: "segment",
		},
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			DefaultTop:      10,
			MaxTop:          1000,
			MaxFilterDepth:  5,
			RateLimit:       600,
			RateWindow:      time.Minute,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "recursewords",
			User:            "recursewords",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "recursewords-edgesink",
			Topics: KafkaTopics{
				DecompositionHits: "decomposition-hits",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads RW_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RW_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("RW_CORPUS_FORMAT"); v != "" {
		cfg.Corpus.Format = v
	}
	if v := os.Getenv("RW_SEARCH_VARIANT"); v != "" {
		cfg.Search.Variant = v
	}
	setInt("RW_SEARCH_MIN_INCLUDE_WORD_LEN", &cfg.Search.MinIncludeWordLen)
	setInt("RW_SEARCH_MIN_TEST_WORD_LEN", &cfg.Search.MinTestWordLen)
	setInt("RW_SEARCH_MIN_CLIPPED_WORD_LEN", &cfg.Search.MinClippedWordLen)
	setInt("RW_SEARCH_MAX_DEPTH", &cfg.Search.MaxDepth)
	if v := os.Getenv("RW_SEARCH_INTERNAL_ONLY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.InternalOnly = b
		}
	}
	setInt("RW_DRIVER_POOL_SIZE", &cfg.Driver.PoolSize)
	setInt("RW_DRIVER_CHUNK_SIZE", &cfg.Driver.ChunkSize)
	if v := os.Getenv("RW_DRIVER_CHUNK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Driver.ChunkTimeout = d
		}
	}
	if v := os.Getenv("RW_STORE_DATA_DIR"); v != "" {
		cfg.Store.DataDir = v
	}
	if v := os.Getenv("RW_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	setInt("RW_SERVER_PORT", &cfg.Server.Port)
	setInt("RW_SERVER_RATE_LIMIT", &cfg.Server.RateLimit)
	if v := os.Getenv("RW_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("RW_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("RW_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("RW_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	setInt("RW_POSTGRES_PORT", &cfg.Postgres.Port)
	if v := os.Getenv("RW_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("RW_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("RW_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("RW_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("RW_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RW_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server     ServerConfig
	Redis      RedisConfig
	Queue      QueueConfig
	RateLimit  RateLimitConfig
	Refinement RefinementConfig
	Groq       GroqConfig
	Gemini     GeminiConfig
	Storage    StorageConfig
	Index      IndexConfig
	Source     SourceConfig
	Codegen    CodegenConfig
}

type ServerConfig struct {
	Port     string `validate:"required"`
	Env      string
	LogLevel string `validate:"oneof=debug info warn error"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type QueueConfig struct {
	Enabled     bool
	Concurrency int `validate:"min=1"`
}

type RateLimitConfig struct {
	IngestPerMin int `validate:"min=0"`
}

type RefinementConfig struct {
	Enabled   bool
	Provider  string `validate:"oneof=groq gemini"`
	Model     string
	Timeout   time.Duration `validate:"gt=0"`
	MaxPoints int           `validate:"min=1"`
}

type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	Backend         string `validate:"oneof=memory s3 minio"`
	Bucket          string `validate:"required_unless=Backend memory"`
	Region          string
	Endpoint        string `validate:"required_if=Backend minio"`
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	CacheEntries    int `validate:"min=0"`
}

type IndexConfig struct {
	Backend  string `validate:"oneof=memory redis postgres dynamodb"`
	Table    string `validate:"required_if=Backend dynamodb"`
	DSN      string `validate:"required_if=Backend postgres"`
	RedisKey string `validate:"required_if=Backend redis"`
}

type SourceConfig struct {
	ExpectedID string
}

type CodegenConfig struct {
	ProgramName  string
	RapidVariant string `validate:"oneof=basic advanced optimized"`
}

func Load() (*Config, error) {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GROQ_API_KEY")
	readSecret("GEMINI_API_KEY")
	readSecret("STORAGE_ACCESS_KEY_ID")
	readSecret("STORAGE_SECRET_ACCESS_KEY")
	readSecret("INDEX_DSN")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables
	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("queue.enabled", "QUEUE_ENABLED")
	_ = v.BindEnv("queue.concurrency", "QUEUE_CONCURRENCY")
	_ = v.BindEnv("ratelimit.ingest_per_min", "RATELIMIT_INGEST_PER_MIN")
	_ = v.BindEnv("refinement.enabled", "REFINEMENT_ENABLED")
	_ = v.BindEnv("refinement.provider", "REFINEMENT_PROVIDER")
	_ = v.BindEnv("refinement.model", "REFINEMENT_MODEL")
	_ = v.BindEnv("refinement.timeout", "REFINEMENT_TIMEOUT")
	_ = v.BindEnv("refinement.max_points", "REFINEMENT_MAX_POINTS")
	_ = v.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = v.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = v.BindEnv("groq.model", "GROQ_MODEL")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.model", "GEMINI_MODEL")
	_ = v.BindEnv("storage.backend", "STORAGE_BACKEND")
	_ = v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	_ = v.BindEnv("storage.region", "STORAGE_REGION")
	_ = v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	_ = v.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	_ = v.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	_ = v.BindEnv("storage.use_ssl", "STORAGE_USE_SSL")
	_ = v.BindEnv("storage.cache_entries", "STORAGE_CACHE_ENTRIES")
	_ = v.BindEnv("index.backend", "INDEX_BACKEND")
	_ = v.BindEnv("index.table", "INDEX_TABLE")
	_ = v.BindEnv("index.dsn", "INDEX_DSN")
	_ = v.BindEnv("index.redis_key", "INDEX_REDIS_KEY")
	_ = v.BindEnv("source.expected_id", "EXPECTED_SOURCE_ID")
	_ = v.BindEnv("codegen.program_name", "PROGRAM_NAME")
	_ = v.BindEnv("codegen.rapid_variant", "RAPID_VARIANT")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("ratelimit.ingest_per_min", 120)

	// Refinement is off unless explicitly enabled
	v.SetDefault("refinement.enabled", false)
	v.SetDefault("refinement.provider", "groq")
	v.SetDefault("refinement.model", "")
	v.SetDefault("refinement.timeout", "30s")
	v.SetDefault("refinement.max_points", 50)

	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.3-70b-versatile")
	v.SetDefault("gemini.model", "gemini-2.0-flash")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.bucket", "pathforge-artifacts")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.cache_entries", 256)

	v.SetDefault("index.backend", "memory")
	v.SetDefault("index.table", "path_jobs")
	v.SetDefault("index.redis_key", "pathforge:jobs")

	v.SetDefault("codegen.program_name", "GESTURE")
	v.SetDefault("codegen.rapid_variant", "basic")

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     v.GetString("server.port"),
			Env:      v.GetString("server.env"),
			LogLevel: strings.ToLower(v.GetString("server.log_level")),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Queue: QueueConfig{
			Enabled:     v.GetBool("queue.enabled"),
			Concurrency: v.GetInt("queue.concurrency"),
		},
		RateLimit: RateLimitConfig{
			IngestPerMin: v.GetInt("ratelimit.ingest_per_min"),
		},
		Refinement: RefinementConfig{
			Enabled:   v.GetBool("refinement.enabled"),
			Provider:  strings.ToLower(v.GetString("refinement.provider")),
			Model:     v.GetString("refinement.model"),
			Timeout:   v.GetDuration("refinement.timeout"),
			MaxPoints: v.GetInt("refinement.max_points"),
		},
		Groq: GroqConfig{
			APIKey:  v.GetString("groq.api_key"),
			BaseURL: v.GetString("groq.base_url"),
			Model:   v.GetString("groq.model"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini.api_key"),
			Model:  v.GetString("gemini.model"),
		},
		Storage: StorageConfig{
			Backend:         strings.ToLower(v.GetString("storage.backend")),
			Bucket:          v.GetString("storage.bucket"),
			Region:          v.GetString("storage.region"),
			Endpoint:        v.GetString("storage.endpoint"),
			AccessKeyID:     v.GetString("storage.access_key_id"),
			SecretAccessKey: v.GetString("storage.secret_access_key"),
			UseSSL:          v.GetBool("storage.use_ssl"),
			CacheEntries:    v.GetInt("storage.cache_entries"),
		},
		Index: IndexConfig{
			Backend:  strings.ToLower(v.GetString("index.backend")),
			Table:    v.GetString("index.table"),
			DSN:      v.GetString("index.dsn"),
			RedisKey: v.GetString("index.redis_key"),
		},
		Source: SourceConfig{
			ExpectedID: strings.TrimSpace(v.GetString("source.expected_id")),
		},
		Codegen: CodegenConfig{
			ProgramName:  v.GetString("codegen.program_name"),
			RapidVariant: strings.ToLower(v.GetString("codegen.rapid_variant")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks backend selections and limits
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RefinementModel returns the model identifier for the configured refinement provider
func (c *Config) RefinementModel() string {
	if c.Refinement.Model != "" {
		return c.Refinement.Model
	}
	if c.Refinement.Provider == "gemini" {
		return c.Gemini.Model
	}
	return c.Groq.Model
}

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KITTY_DB_HOST.
const EnvPrefix = "kitty"

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	Mode            string        `mapstructure:"mode"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	CORSMaxAge      time.Duration `mapstructure:"cors_max_age"`
}

type RedisConfig struct {
	URL             string        `mapstructure:"url"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	ConversationTTL time.Duration `mapstructure:"conversation_ttl"`

	// EncryptionKey is a base64 AES key sealing stored conversation
	// messages. Empty stores them in the clear.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	Issuer    string        `mapstructure:"issuer"`
	AccessTTL time.Duration `mapstructure:"access_ttl"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// AssistantConfig tunes the conversation orchestrator.
type AssistantConfig struct {
	RecentLimit         int           `mapstructure:"recent_limit"`
	RecommendationLimit int           `mapstructure:"recommendation_limit"`
	CallTimeout         time.Duration `mapstructure:"call_timeout"`
	DefaultSuggestions  []string      `mapstructure:"default_suggestions"`
	HealthTips          []string      `mapstructure:"health_tips"`
}

// RecommendationConfig tunes the recommendation aggregator.
type RecommendationConfig struct {
	DefaultLimit  int           `mapstructure:"default_limit"`
	MaxDistinct   int           `mapstructure:"max_distinct"`
	FetchLimit    int           `mapstructure:"fetch_limit"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	UrgentChannel string        `mapstructure:"urgent_channel"`
}

type BreakerConfig struct {
	MaxRequests         uint32        `mapstructure:"max_requests"`
	Interval            time.Duration `mapstructure:"interval"`
	Timeout             time.Duration `mapstructure:"timeout"`
	ConsecutiveFailures uint32        `mapstructure:"consecutive_failures"`
}

type WorkerConfig struct {
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`

	// Retention of finding log entries; zero keeps them forever.
	Retention       time.Duration `mapstructure:"retention"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

type ReferenceConfig struct {
	File string `mapstructure:"file"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	Log            LogConfig            `mapstructure:"log"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Assistant      AssistantConfig      `mapstructure:"assistant"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Breaker        BreakerConfig        `mapstructure:"breaker"`
	Worker         WorkerConfig         `mapstructure:"worker"`
	Reference      ReferenceConfig      `mapstructure:"reference"`
}

// envOverrides are the deployment knobs read from the environment after the
// config file, mirroring how the service is run in containers.
type envOverrides struct {
	ConfigFile      string   `envconfig:"CONFIG_FILE"`
	Port            int      `envconfig:"PORT"`
	DBHost          string   `envconfig:"DB_HOST"`
	DBPort          int      `envconfig:"DB_PORT"`
	DBUser          string   `envconfig:"DB_USER"`
	DBPassword      string   `envconfig:"DB_PASSWORD"`
	DBName          string   `envconfig:"DB_NAME"`
	RedisURL        string   `envconfig:"REDIS_URL"`
	ConversationKey string   `envconfig:"CONVERSATION_KEY"`
	JWTSecret       string   `envconfig:"JWT_SECRET"`
	LogLevel        string   `envconfig:"LOG_LEVEL"`
	ReferenceFile   string   `envconfig:"REFERENCE_FILE"`
	RateLimitRPS    float64  `envconfig:"RATE_LIMIT_RPS"`
	CORSOrigins     []string `envconfig:"CORS_ORIGINS"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("server.cors_max_age", 24*time.Hour)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "health")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.conversation_ttl", 24*time.Hour)

	v.SetDefault("jwt.issuer", "health-assistant")
	v.SetDefault("jwt.access_ttl", time.Hour)

	v.SetDefault("log.level", "info")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 10.0)
	v.SetDefault("rate_limit.burst", 20)

	v.SetDefault("assistant.recent_limit", 10)
	v.SetDefault("assistant.recommendation_limit", 10)
	v.SetDefault("assistant.call_timeout", 5*time.Second)
	v.SetDefault("assistant.default_suggestions", DefaultSuggestions)
	v.SetDefault("assistant.health_tips", DefaultHealthTips)

	v.SetDefault("recommendation.default_limit", 10)
	v.SetDefault("recommendation.max_distinct", 100)
	v.SetDefault("recommendation.fetch_limit", 50)
	v.SetDefault("recommendation.cache_ttl", time.Minute)
	v.SetDefault("recommendation.urgent_channel", "findings.urgent")

	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", 30*time.Second)
	v.SetDefault("breaker.timeout", 10*time.Second)
	v.SetDefault("breaker.consecutive_failures", 5)

	v.SetDefault("worker.retry_attempts", 3)
	v.SetDefault("worker.retry_delay", time.Second)
	v.SetDefault("worker.retention", 90*24*time.Hour)
	v.SetDefault("worker.cleanup_interval", time.Hour)
}

// LoadConfig reads config.yml from the usual locations (or the file named by
// KITTY_CONFIG_FILE), falls back to built-in defaults when no file exists, and
// finally applies KITTY_* environment overrides.
func LoadConfig() (*Config, error) {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	return load(env)
}

// LoadFile is LoadConfig with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	env.ConfigFile = path
	return load(env)
}

func load(env envOverrides) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if env.ConfigFile != "" {
		v.SetConfigFile(env.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/app")
		v.AddConfigPath("/app/config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if env.ConfigFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	env.apply(&cfg)
	return &cfg, nil
}

func (e envOverrides) apply(cfg *Config) {
	if e.Port != 0 {
		cfg.Server.Port = e.Port
	}
	if e.DBHost != "" {
		cfg.Database.Host = e.DBHost
	}
	if e.DBPort != 0 {
		cfg.Database.Port = e.DBPort
	}
	if e.DBUser != "" {
		cfg.Database.User = e.DBUser
	}
	if e.DBPassword != "" {
		cfg.Database.Password = e.DBPassword
	}
	if e.DBName != "" {
		cfg.Database.Name = e.DBName
	}
	if e.RedisURL != "" {
		cfg.Redis.URL = e.RedisURL
	}
	if e.ConversationKey != "" {
		cfg.Redis.EncryptionKey = e.ConversationKey
	}
	if e.JWTSecret != "" {
		cfg.JWT.Secret = e.JWTSecret
	}
	if e.LogLevel != "" {
		cfg.Log.Level = e.LogLevel
	}
	if e.ReferenceFile != "" {
		cfg.Reference.File = e.ReferenceFile
	}
	if e.RateLimitRPS > 0 {
		cfg.RateLimit.RequestsPerSecond = e.RateLimitRPS
	}
	if len(e.CORSOrigins) > 0 {
		cfg.Server.CORSOrigins = e.CORSOrigins
	}
}

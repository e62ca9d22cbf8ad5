// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alchemorsel/nutriplan/internal/application/blueprint"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	AI         AIConfig         `mapstructure:"ai"`
	Nutrition  NutritionConfig  `mapstructure:"nutrition"`
	Generation GenerationConfig `mapstructure:"generation"`
	Recalc     RecalcConfig     `mapstructure:"recalc"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS      bool          `mapstructure:"enable_cors"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`

	// Per-user request limits on the blueprint API
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	Replicas           []string      `mapstructure:"replicas"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig contains entitlement token configuration
type AuthConfig struct {
	JWTSecret       string   `mapstructure:"jwt_secret"`
	JWTIssuer       string   `mapstructure:"jwt_issuer"`
	ElevatedTiers   []string `mapstructure:"elevated_tiers"`
	RequireAuthOnly bool     `mapstructure:"require_auth_only"`
}

// AIConfig contains text generation configuration
type AIConfig struct {
	Provider     string                `mapstructure:"provider"`
	BaseURL      string                `mapstructure:"base_url"`
	APIKey       string                `mapstructure:"api_key"`
	EconomyModel string                `mapstructure:"economy_model"`
	PremiumModel string                `mapstructure:"premium_model"`
	RequestsPerS float64               `mapstructure:"requests_per_second"`
	Burst        int                   `mapstructure:"burst"`
	Retry        blueprint.RetryPolicy `mapstructure:"retry"`
}

// NutritionConfig contains nutrition lookup configuration
type NutritionConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	RequestsPerS float64       `mapstructure:"requests_per_second"`
	Burst        int           `mapstructure:"burst"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// GenerationConfig contains pipeline settings
type GenerationConfig struct {
	HistoryWindow      int                        `mapstructure:"history_window"`
	DeviationThreshold float64                    `mapstructure:"deviation_threshold"`
	Aggregator         blueprint.AggregatorLimits `mapstructure:"aggregator"`
	Service            blueprint.ServiceConfig    `mapstructure:"service"`
}

// RecalcConfig contains async macro recalculation settings
type RecalcConfig struct {
	Enabled bool                   `mapstructure:"enabled"`
	Topic   string                 `mapstructure:"topic"`
	Policy  blueprint.RecalcPolicy `mapstructure:"policy"`
}

// KafkaConfig contains Kafka configuration
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	ClientID     string        `mapstructure:"client_id"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	MetricsPort     int     `mapstructure:"metrics_port"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	ReadinessPath   string  `mapstructure:"readiness_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/nutriplan")
	}

	v.SetEnvPrefix("NUTRIPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "nutriplan")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "16m")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_header_bytes", 1<<20)
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout", "15m")
	v.SetDefault("server.rate_limit_rps", 1.0)
	v.SetDefault("server.rate_limit_burst", 5)

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.database", "nutriplan.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")

	// Auth defaults
	v.SetDefault("auth.jwt_issuer", "nutriplan")
	v.SetDefault("auth.elevated_tiers", []string{"premium", "pro"})

	// AI defaults
	retry := blueprint.DefaultRetryPolicy()
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1")
	v.SetDefault("ai.economy_model", "gpt-4o-mini")
	v.SetDefault("ai.premium_model", "gpt-4o")
	v.SetDefault("ai.requests_per_second", 2.0)
	v.SetDefault("ai.burst", 2)
	v.SetDefault("ai.retry.max_attempts", retry.MaxAttempts)
	v.SetDefault("ai.retry.premium_attempt", retry.PremiumAttempt)
	v.SetDefault("ai.retry.attempt_timeout", retry.AttemptTimeout)
	v.SetDefault("ai.retry.rate_limit_backoff", retry.RateLimitBackoff)
	v.SetDefault("ai.retry.server_error_backoff", retry.ServerErrorBackoff)
	v.SetDefault("ai.retry.malformed_backoff", retry.MalformedBackoff)
	v.SetDefault("ai.retry.min_response_length", retry.MinResponseLength)
	v.SetDefault("ai.retry.max_output_tokens", retry.MaxOutputTokens)
	v.SetDefault("ai.retry.temperature", retry.Temperature)

	// Nutrition lookup defaults
	v.SetDefault("nutrition.base_url", "https://api.studio93.io/food/search")
	v.SetDefault("nutrition.requests_per_second", 5.0)
	v.SetDefault("nutrition.burst", 5)
	v.SetDefault("nutrition.timeout", "10s")

	// Generation defaults
	limits := blueprint.DefaultAggregatorLimits()
	service := blueprint.DefaultServiceConfig()
	v.SetDefault("generation.history_window", 8)
	v.SetDefault("generation.deviation_threshold", blueprint.DefaultDeviationThreshold)
	v.SetDefault("generation.aggregator.max_items", limits.MaxItems)
	v.SetDefault("generation.aggregator.max_proteins", limits.MaxProteins)
	v.SetDefault("generation.service.cache_ttl", service.CacheTTL)
	v.SetDefault("generation.service.lock_ttl", service.LockTTL)
	v.SetDefault("generation.service.generation_budget", service.GenerationBudget)
	v.SetDefault("generation.service.plan_ready_topic", service.PlanReadyTopic)
	v.SetDefault("generation.service.default_list_limit", service.DefaultListLimit)
	v.SetDefault("generation.service.max_list_limit", service.MaxListLimit)

	// Recalc defaults
	recalc := blueprint.DefaultRecalcPolicy()
	v.SetDefault("recalc.enabled", true)
	v.SetDefault("recalc.topic", "blueprint.macros-recalculated")
	v.SetDefault("recalc.policy.batch_size", recalc.BatchSize)
	v.SetDefault("recalc.policy.max_retries", recalc.MaxRetries)
	v.SetDefault("recalc.policy.rate_limit_backoff", recalc.RateLimitBackoff)
	v.SetDefault("recalc.policy.retry_backoff", recalc.RetryBackoff)
	v.SetDefault("recalc.policy.batch_delay", recalc.BatchDelay)
	v.SetDefault("recalc.policy.job_timeout", recalc.JobTimeout)
	v.SetDefault("recalc.policy.queue_size", recalc.QueueSize)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.client_id", "nutriplan")
	v.SetDefault("kafka.batch_timeout", "50ms")
	v.SetDefault("kafka.required_acks", 1)

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_port", 9090)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.readiness_path", "/ready")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}

	if c.Auth.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}

	switch c.AI.Provider {
	case "openai", "ollama", "gemini":
	default:
		return fmt.Errorf("ai.provider must be openai, ollama or gemini, got %q", c.AI.Provider)
	}
	if c.AI.Retry.MaxAttempts < 1 {
		return fmt.Errorf("ai.retry.max_attempts must be at least 1")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Monitoring.MetricsPort == c.Server.Port {
		return fmt.Errorf("monitoring.metrics_port must differ from server.port")
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.Database
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// Package config handles loading and validation of the service configuration
// from environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caliper-tracking/caliper-tracking-backend/logger"
	"github.com/spf13/viper"
)

// Environment represents the application's running environment (development or production).
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"

	minServiceSecretLength = 32
)

// Mail transports understood by the mailer package.
const (
	TransportSMTP   = "smtp"
	TransportResend = "resend"
)

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Environment    Environment `mapstructure:"ENVIRONMENT" yaml:"environment"`
	Port           string      `mapstructure:"PORT" yaml:"port"`
	AllowedOrigins []string    `mapstructure:"ALLOWED_ORIGINS" yaml:"allowed_origins"`
	Version        string      `mapstructure:"VERSION" yaml:"version"`
	// ServiceTokenSecret signs the HS256 bearer tokens presented by the
	// tracking pipeline. Empty disables authentication on /v1.
	ServiceTokenSecret string `mapstructure:"SERVICE_TOKEN_SECRET" yaml:"service_token_secret"`
}

// LMSConfig describes the host platform the links point at.
type LMSConfig struct {
	RootURL string `mapstructure:"ROOT_URL" yaml:"root_url"`
	// RoutesFile optionally overrides the built-in named routes.
	RoutesFile string `mapstructure:"ROUTES_FILE" yaml:"routes_file"`
}

// DatabaseConfig holds connection details for the LMS user and team tables.
type DatabaseConfig struct {
	Host           string `mapstructure:"HOST" yaml:"host"`
	Port           int    `mapstructure:"PORT" yaml:"port"`
	User           string `mapstructure:"USER" yaml:"user"`
	Password       string `mapstructure:"PASSWORD" yaml:"password"`
	Name           string `mapstructure:"NAME" yaml:"name"`
	SSLMode        string `mapstructure:"SSL_MODE" yaml:"ssl_mode"`
	MaxConnections int    `mapstructure:"MAX_CONNECTIONS" yaml:"max_connections"`
	// RunMigrations creates the directory tables on startup. Development only.
	RunMigrations bool `mapstructure:"RUN_MIGRATIONS" yaml:"run_migrations"`
}

// URL returns a postgres:// connection URL.
func (c *DatabaseConfig) URL() string {
	sslmode := c.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		c.Name,
		sslmode,
	)
}

// RedisConfig holds Redis connection details for the lookup cache.
type RedisConfig struct {
	Enabled         bool   `mapstructure:"ENABLED" yaml:"enabled"`
	Address         string `mapstructure:"ADDRESS" yaml:"address"`
	Password        string `mapstructure:"PASSWORD" yaml:"password"`
	DB              int    `mapstructure:"DB" yaml:"db"`
	UseTLS          bool   `mapstructure:"USE_TLS" yaml:"use_tls"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS" yaml:"cache_ttl_seconds"`
}

// CacheTTL returns the configured TTL as a duration.
func (c *RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// EmailConfig holds configuration for sending notification emails.
type EmailConfig struct {
	Transport      string `mapstructure:"TRANSPORT" yaml:"transport"`
	FromAddress    string `mapstructure:"FROM_ADDRESS" yaml:"from_address"`
	SMTPHost       string `mapstructure:"SMTP_HOST" yaml:"smtp_host"`
	SMTPPort       int    `mapstructure:"SMTP_PORT" yaml:"smtp_port"`
	SMTPUsername   string `mapstructure:"SMTP_USERNAME" yaml:"smtp_username"`
	SMTPPassword   string `mapstructure:"SMTP_PASSWORD" yaml:"smtp_password"`
	SMTPUseTLS     bool   `mapstructure:"SMTP_USE_TLS" yaml:"smtp_use_tls"`
	ResendAPIKey   string `mapstructure:"RESEND_API_KEY" yaml:"resend_api_key"`
	TimeoutSeconds int    `mapstructure:"TIMEOUT_SECONDS" yaml:"timeout_seconds"`
}

// WorkerPoolConfig holds configuration for the async notification pool.
type WorkerPoolConfig struct {
	MaxWorkers             int `mapstructure:"MAX_WORKERS" yaml:"max_workers"`
	QueueSize              int `mapstructure:"QUEUE_SIZE" yaml:"queue_size"`
	ShutdownTimeoutSeconds int `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" yaml:"shutdown_timeout_seconds"`
}

// Config aggregates all application configuration sections.
type Config struct {
	Server     ServerConfig     `mapstructure:"SERVER" yaml:"server"`
	LMS        LMSConfig        `mapstructure:"LMS" yaml:"lms"`
	Database   DatabaseConfig   `mapstructure:"DATABASE" yaml:"database"`
	Redis      RedisConfig      `mapstructure:"REDIS" yaml:"redis"`
	Email      EmailConfig      `mapstructure:"EMAIL" yaml:"email"`
	WorkerPool WorkerPoolConfig `mapstructure:"WORKER_POOL" yaml:"worker_pool"`
}

// IsProduction returns true if the application is running in production environment.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

// bindEnvVars binds multiple environment variables to config keys.
// Format: []{configKey, envVar}
func bindEnvVars(v *viper.Viper, bindings [][2]string) error {
	for _, b := range bindings {
		if err := v.BindEnv(b[0], b[1]); err != nil {
			return fmt.Errorf("failed to bind %s: %w", b[0], err)
		}
	}
	return nil
}

// LoadConfig loads configuration from environment variables using Viper,
// applies defaults and validates the result.
func LoadConfig() (*Config, error) {
	v := viper.New()
	log := logger.GetLogger()

	v.SetDefault("SERVER.ENVIRONMENT", EnvDevelopment)
	v.SetDefault("SERVER.PORT", "8080")
	v.SetDefault("SERVER.ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER.VERSION", "dev")
	v.SetDefault("SERVER.SERVICE_TOKEN_SECRET", "")
	v.SetDefault("LMS.ROOT_URL", "http://localhost:18000")
	v.SetDefault("LMS.ROUTES_FILE", "")
	v.SetDefault("DATABASE.HOST", "localhost")
	v.SetDefault("DATABASE.PORT", 5432)
	v.SetDefault("DATABASE.USER", "postgres")
	v.SetDefault("DATABASE.PASSWORD", "")
	v.SetDefault("DATABASE.NAME", "edxapp")
	v.SetDefault("DATABASE.SSL_MODE", "disable")
	v.SetDefault("DATABASE.MAX_CONNECTIONS", 5)
	v.SetDefault("DATABASE.RUN_MIGRATIONS", false)
	v.SetDefault("REDIS.ENABLED", false)
	v.SetDefault("REDIS.ADDRESS", "localhost:6379")
	v.SetDefault("REDIS.PASSWORD", "")
	v.SetDefault("REDIS.DB", 0)
	v.SetDefault("REDIS.USE_TLS", false)
	v.SetDefault("REDIS.CACHE_TTL_SECONDS", 300)
	v.SetDefault("EMAIL.TRANSPORT", TransportSMTP)
	v.SetDefault("EMAIL.FROM_ADDRESS", "")
	v.SetDefault("EMAIL.SMTP_HOST", "localhost")
	v.SetDefault("EMAIL.SMTP_PORT", 25)
	v.SetDefault("EMAIL.SMTP_USERNAME", "")
	v.SetDefault("EMAIL.SMTP_PASSWORD", "")
	v.SetDefault("EMAIL.SMTP_USE_TLS", false)
	v.SetDefault("EMAIL.RESEND_API_KEY", "")
	v.SetDefault("EMAIL.TIMEOUT_SECONDS", 10)
	v.SetDefault("WORKER_POOL.MAX_WORKERS", 4)
	v.SetDefault("WORKER_POOL.QUEUE_SIZE", 100)
	v.SetDefault("WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", 30)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	envBindings := [][2]string{
		// Server config
		{"SERVER.ENVIRONMENT", "ENVIRONMENT"},
		{"SERVER.PORT", "PORT"},
		{"SERVER.ALLOWED_ORIGINS", "ALLOWED_ORIGINS"},
		{"SERVER.VERSION", "VERSION"},
		{"SERVER.SERVICE_TOKEN_SECRET", "SERVICE_TOKEN_SECRET"},
		// LMS
		{"LMS.ROOT_URL", "LMS_ROOT_URL"},
		{"LMS.ROUTES_FILE", "LMS_ROUTES_FILE"},
		// Database config
		{"DATABASE.HOST", "DB_HOST"},
		{"DATABASE.PORT", "DB_PORT"},
		{"DATABASE.USER", "DB_USER"},
		{"DATABASE.PASSWORD", "DB_PASSWORD"},
		{"DATABASE.NAME", "DB_NAME"},
		{"DATABASE.SSL_MODE", "DB_SSL_MODE"},
		{"DATABASE.MAX_CONNECTIONS", "DB_MAX_CONNECTIONS"},
		{"DATABASE.RUN_MIGRATIONS", "DB_RUN_MIGRATIONS"},
		// Redis config
		{"REDIS.ENABLED", "REDIS_ENABLED"},
		{"REDIS.ADDRESS", "REDIS_ADDRESS"},
		{"REDIS.PASSWORD", "REDIS_PASSWORD"},
		{"REDIS.DB", "REDIS_DB"},
		{"REDIS.USE_TLS", "REDIS_USE_TLS"},
		{"REDIS.CACHE_TTL_SECONDS", "REDIS_CACHE_TTL_SECONDS"},
		// Email config
		{"EMAIL.TRANSPORT", "EMAIL_TRANSPORT"},
		{"EMAIL.FROM_ADDRESS", "EMAIL_FROM_ADDRESS"},
		{"EMAIL.SMTP_HOST", "EMAIL_SMTP_HOST"},
		{"EMAIL.SMTP_PORT", "EMAIL_SMTP_PORT"},
		{"EMAIL.SMTP_USERNAME", "EMAIL_SMTP_USERNAME"},
		{"EMAIL.SMTP_PASSWORD", "EMAIL_SMTP_PASSWORD"},
		{"EMAIL.SMTP_USE_TLS", "EMAIL_SMTP_USE_TLS"},
		{"EMAIL.RESEND_API_KEY", "RESEND_API_KEY"},
		{"EMAIL.TIMEOUT_SECONDS", "EMAIL_TIMEOUT_SECONDS"},
		// WorkerPool config
		{"WORKER_POOL.MAX_WORKERS", "WORKER_POOL_MAX_WORKERS"},
		{"WORKER_POOL.QUEUE_SIZE", "WORKER_POOL_QUEUE_SIZE"},
		{"WORKER_POOL.SHUTDOWN_TIMEOUT_SECONDS", "WORKER_POOL_SHUTDOWN_TIMEOUT_SECONDS"},
	}

	if err := bindEnvVars(v, envBindings); err != nil {
		return nil, err
	}

	log.Infow("Configuration loaded",
		"environment", v.GetString("SERVER.ENVIRONMENT"),
		"server_port", v.GetString("SERVER.PORT"),
		"lms_root_url", v.GetString("LMS.ROOT_URL"),
		"db_host", v.GetString("DATABASE.HOST"),
		"redis_enabled", v.GetBool("REDIS.ENABLED"),
		"email_transport", v.GetString("EMAIL.TRANSPORT"),
	)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal failed: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	log.Info("Configuration validated successfully")
	return &cfg, nil
}

// validateConfig checks the loaded values and normalizes the LMS root URL.
func validateConfig(cfg *Config) error {
	log := logger.GetLogger()

	if cfg.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if cfg.Server.ServiceTokenSecret != "" && len(cfg.Server.ServiceTokenSecret) < minServiceSecretLength {
		return fmt.Errorf("service token secret must be at least %d characters long", minServiceSecretLength)
	}
	if cfg.Server.ServiceTokenSecret == "" {
		log.Warn("SERVICE_TOKEN_SECRET is not set, /v1 routes are unauthenticated")
	}

	if cfg.LMS.RootURL == "" {
		return fmt.Errorf("LMS root URL is required")
	}
	if _, err := url.ParseRequestURI(cfg.LMS.RootURL); err != nil {
		return fmt.Errorf("invalid LMS root URL '%s': %w", cfg.LMS.RootURL, err)
	}
	cfg.LMS.RootURL = strings.TrimRight(cfg.LMS.RootURL, "/")

	if cfg.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if cfg.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}
	if cfg.Database.MaxConnections <= 0 {
		return fmt.Errorf("database max connections must be positive")
	}

	if cfg.Redis.Enabled {
		if cfg.Redis.Address == "" {
			return fmt.Errorf("redis address is required when the cache is enabled")
		}
		if cfg.Redis.CacheTTLSeconds <= 0 {
			return fmt.Errorf("redis cache TTL must be positive")
		}
	}

	if err := validateEmailConfig(&cfg.Email); err != nil {
		return err
	}

	if cfg.WorkerPool.MaxWorkers <= 0 {
		return fmt.Errorf("worker pool max workers must be positive")
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		return fmt.Errorf("worker pool queue size must be positive")
	}
	if cfg.WorkerPool.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("worker pool shutdown timeout must be positive")
	}

	return nil
}

func validateEmailConfig(cfg *EmailConfig) error {
	cfg.Transport = strings.ToLower(strings.TrimSpace(cfg.Transport))
	switch cfg.Transport {
	case TransportSMTP:
		if cfg.SMTPHost == "" {
			return fmt.Errorf("SMTP host is required for the smtp transport")
		}
		if cfg.SMTPPort <= 0 {
			return fmt.Errorf("SMTP port must be positive")
		}
	case TransportResend:
		if cfg.ResendAPIKey == "" {
			return fmt.Errorf("resend API key is required for the resend transport")
		}
	default:
		return fmt.Errorf("unknown email transport '%s'", cfg.Transport)
	}
	if cfg.TimeoutSeconds <= 0 {
		return fmt.Errorf("email timeout must be positive")
	}
	return nil
}

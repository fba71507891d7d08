// Package config provides configuration management for the OpenAlex explorer.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "OAEXPLORER"

// Config holds all configuration for the OpenAlex explorer.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// OpenAlex contains upstream API client settings.
	OpenAlex OpenAlexConfig `mapstructure:"openalex"`
	// Cache contains Redis response cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// UI contains dashboard presentation settings.
	UI UIConfig `mapstructure:"ui"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the dashboard port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing a response. Pages wait
	// on OpenAlex, so this must exceed openalex.timeout.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
	// Namespace prefixes every metric name.
	Namespace string `mapstructure:"namespace"`
}

// OpenAlexConfig holds OpenAlex API client settings.
type OpenAlexConfig struct {
	// BaseURL is the API base URL.
	BaseURL string `mapstructure:"base_url"`
	// Email joins the polite pool when set.
	Email string `mapstructure:"email"`
	// Timeout bounds a single upstream request.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the maximum requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// Burst is the rate limiter burst size.
	Burst int `mapstructure:"burst"`
	// MaxRetries is the number of retries on 429 and 5xx responses. Zero
	// disables retries.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the wait between retries without a Retry-After header.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// Concurrency bounds parallel lookups such as related works.
	Concurrency int `mapstructure:"concurrency"`
}

// CacheConfig holds Redis response cache settings.
type CacheConfig struct {
	// Enabled puts Redis in front of the OpenAlex client.
	Enabled bool `mapstructure:"enabled"`
	// Addr is the Redis host:port.
	Addr string `mapstructure:"addr"`
	// Password is loaded from OAEXPLORER_CACHE_PASSWORD only.
	Password string `mapstructure:"-"`
	// DB is the Redis database number.
	DB int `mapstructure:"db"`
	// PoolSize is the Redis connection pool size.
	PoolSize int `mapstructure:"pool_size"`
	// DetailTTL is how long single records stay cached.
	DetailTTL time.Duration `mapstructure:"detail_ttl"`
	// ListTTL is how long list and group-by pages stay cached.
	ListTTL time.Duration `mapstructure:"list_ttl"`
}

// UIConfig holds dashboard settings.
type UIConfig struct {
	// PerPage is the default list page size.
	PerPage int `mapstructure:"per_page"`
	// RelatedWorks is how many related works a work page shows.
	RelatedWorks int `mapstructure:"related_works"`
	// OverviewWorks is how many top works the overview page shows.
	OverviewWorks int `mapstructure:"overview_works"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// ClientMaxRetries converts MaxRetries to the client's convention, where zero
// means "use the default" and a negative value disables retries.
func (c *OpenAlexConfig) ClientMaxRetries() int {
	if c.MaxRetries == 0 {
		return -1
	}
	return c.MaxRetries
}

// Load loads configuration from environment variables and config files.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/openalex-explorer")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
// These fields are tagged with mapstructure:"-" to prevent loading from config files.
func loadSecrets(cfg *Config) {
	cfg.Cache.Password = os.Getenv(EnvPrefix + "_CACHE_PASSWORD")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "openalex_explorer")

	// OpenAlex defaults
	v.SetDefault("openalex.base_url", "https://api.openalex.org")
	v.SetDefault("openalex.email", "")
	v.SetDefault("openalex.timeout", "30s")
	v.SetDefault("openalex.rate_limit", 10.0)
	v.SetDefault("openalex.burst", 10)
	v.SetDefault("openalex.max_retries", 3)
	v.SetDefault("openalex.retry_delay", "1s")
	v.SetDefault("openalex.concurrency", 5)

	// Cache defaults
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.detail_ttl", "24h")
	v.SetDefault("cache.list_ttl", "1h")

	// UI defaults
	v.SetDefault("ui.per_page", 25)
	v.SetDefault("ui.related_works", 5)
	v.SetDefault("ui.overview_works", 10)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	// Validate server ports
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.HTTPPort)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console", "pretty":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate OpenAlex client
	u, err := url.Parse(c.OpenAlex.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid openalex base_url: %q", c.OpenAlex.BaseURL)
	}
	if c.OpenAlex.Email != "" && !strings.Contains(c.OpenAlex.Email, "@") {
		return fmt.Errorf("invalid openalex email: %q", c.OpenAlex.Email)
	}
	if c.OpenAlex.RateLimit <= 0 {
		return fmt.Errorf("openalex rate_limit must be positive")
	}
	if c.OpenAlex.Burst <= 0 {
		return fmt.Errorf("openalex burst must be positive")
	}
	if c.OpenAlex.MaxRetries < 0 {
		return fmt.Errorf("openalex max_retries must not be negative")
	}

	// Validate cache
	if c.Cache.Enabled && c.Cache.Addr == "" {
		return fmt.Errorf("cache addr is required when the cache is enabled")
	}
	if c.Cache.DetailTTL < 0 || c.Cache.ListTTL < 0 {
		return fmt.Errorf("cache TTLs must not be negative")
	}

	// Validate UI
	if c.UI.PerPage < 1 || c.UI.PerPage > 200 {
		return fmt.Errorf("ui per_page must be between 1 and 200, got %d", c.UI.PerPage)
	}
	if c.UI.RelatedWorks < 0 {
		return fmt.Errorf("ui related_works must not be negative")
	}
	if c.UI.OverviewWorks < 1 || c.UI.OverviewWorks > 200 {
		return fmt.Errorf("ui overview_works must be between 1 and 200, got %d", c.UI.OverviewWorks)
	}

	return nil
}

// Package config provides configuration management for the squares EV service.
package config

import (
	"time"

	"github.com/yourusername/squares-ev/internal/models"
	"github.com/yourusername/squares-ev/internal/names"
)

// Config represents the complete application configuration
type Config struct {
	App      AppConfig      `mapstructure:"app" validate:"required"`
	Pool     PoolConfig     `mapstructure:"pool" validate:"required"`
	Names    NamesConfig    `mapstructure:"names"`
	OddsFeed OddsFeedConfig `mapstructure:"odds_feed"`
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Refresh  RefreshConfig  `mapstructure:"refresh"`
	Metrics  MetricsConfig  `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PoolConfig holds the default pricing and blending for an analysis
type PoolConfig struct {
	PricePerSquare  float64 `mapstructure:"price_per_square" validate:"gte=0"`
	WeightA         float64 `mapstructure:"weight_a" validate:"gte=0"`
	WeightB         float64 `mapstructure:"weight_b" validate:"gte=0"`
	HomePlaceholder string  `mapstructure:"home_placeholder"`
	AwayPlaceholder string  `mapstructure:"away_placeholder"`
}

// NamesConfig holds the participant name canonicalization table
type NamesConfig struct {
	Rules []names.Rule `mapstructure:"rules" validate:"dive"`
}

// OddsFeedConfig represents the live odds provider configuration
type OddsFeedConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	BaseURL           string  `mapstructure:"base_url" validate:"required_if=Enabled true,omitempty,url"`
	APIKey            string  `mapstructure:"api_key"`
	AuthHeader        string  `mapstructure:"auth_header"`
	EventID           string  `mapstructure:"event_id"`
	MarketA           string  `mapstructure:"market_a" validate:"required_if=Enabled true"`
	MarketB           string  `mapstructure:"market_b" validate:"required_if=Enabled true"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"gte=0"`
	MaxRetries        int     `mapstructure:"max_retries" validate:"gte=0"`
	RateLimit         float64 `mapstructure:"rate_limit" validate:"gte=0"`
	CircuitBreakerMax int     `mapstructure:"circuit_breaker_max" validate:"gte=0"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// ServerConfig represents the dashboard API server configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RefreshConfig represents the scheduled odds refresh
type RefreshConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true,omitempty,cron"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Weights returns the configured blend weights
func (c *Config) Weights() models.Weights {
	return models.Weights{A: c.Pool.WeightA, B: c.Pool.WeightB}
}

// FeedTimeout returns the odds feed request timeout
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.OddsFeed.TimeoutSeconds) * time.Second
}

// FeedCacheTTL returns how long fetched odds stay cached
func (c *Config) FeedCacheTTL() time.Duration {
	return time.Duration(c.OddsFeed.CacheTTLSeconds) * time.Second
}

// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion"`
	Mail       MailConfig       `mapstructure:"mail"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// IngestionConfig describes the tabular record source.
type IngestionConfig struct {
	SourcePath     string `mapstructure:"source_path"`
	HeaderSentinel string `mapstructure:"header_sentinel"`
}

// MailConfig holds settings for the notification mail transport.
// Credentials are supplied via environment overrides, never committed.
type MailConfig struct {
	Provider string `mapstructure:"provider"` // "smtp" or "ses"
	From     string `mapstructure:"from"`

	SMTP struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		UseTLS   bool   `mapstructure:"use_tls"`
	} `mapstructure:"smtp"`

	SES struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"ses"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Quota caps requests per client within a rolling window.
type Quota struct {
	Requests int `mapstructure:"requests"`
	Window   int `mapstructure:"window"` // milliseconds
}

// WindowDuration returns the quota window as a time.Duration.
func (q Quota) WindowDuration() time.Duration {
	return time.Duration(q.Window) * time.Millisecond
}

type RateLimitsConfig struct {
	CheckStatus Quota `mapstructure:"check_status"`
	SendEmail   Quota `mapstructure:"send_email"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	TTL     int  `mapstructure:"ttl"` // milliseconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

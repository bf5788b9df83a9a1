package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path" validate:"required"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"oneof=console json"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret" validate:"required,min=16"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl" validate:"gt=0"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	MaxMessageBytes    int64         `mapstructure:"max_message_bytes" yaml:"max_message_bytes" validate:"gt=0"`
	MaxBodyRunes       int           `mapstructure:"max_body_runes" yaml:"max_body_runes" validate:"gte=0"`
	SendBuffer         int           `mapstructure:"send_buffer" yaml:"send_buffer" validate:"gt=0"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute" validate:"gte=0"`
	SweepInterval      time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval" validate:"gt=0"`
	PersistTimeout     time.Duration `mapstructure:"persist_timeout" yaml:"persist_timeout" validate:"gte=0"`

	CensoredWords []string `mapstructure:"censored_words" yaml:"censored_words"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		DatabasePath:       "lobbychat.db",
		LogLevel:           "info",
		LogFormat:          "console",
		JWTSecret:          "change-me-in-production-please",
		JWTIssuer:          "lobbychat",
		JWTAudience:        "lobbychat-clients",
		JWTTTL:             24 * time.Hour,
		AllowedOrigins:     []string{"*"},
		MaxMessageBytes:    1 << 20,
		MaxBodyRunes:       4000,
		SendBuffer:         64,
		RateLimitPerMinute: 120,
		SweepInterval:      30 * time.Second,
		PersistTimeout:     5 * time.Second,
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the fields exposed as CLI flags are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
}

// Package config loads the service configuration from the environment,
// optional .env files and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:",squash"`
	Database DatabaseConfig `mapstructure:",squash"`
	Auth     AuthConfig     `mapstructure:",squash"`
	Listing  ListingConfig  `mapstructure:",squash"`
	Log      LogConfig      `mapstructure:",squash"`
}

// ServerConfig contains the HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	AllowedOrigins  []string      `mapstructure:"cors_allowed_origins"`
	EnableHSTS      bool          `mapstructure:"enable_hsts"`
	RateLimitRPS    float64       `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst" validate:"gte=0"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes" validate:"gt=0"`
	// TrustProxyHeaders keys rate limits on X-Forwarded-For. Enable only
	// behind a proxy that overwrites the header.
	TrustProxyHeaders bool `mapstructure:"trust_proxy_headers"`
}

// DatabaseConfig selects and configures the book store.
type DatabaseConfig struct {
	DSN           string        `mapstructure:"db_dsn" validate:"required"`
	Name          string        `mapstructure:"db_name"`
	Timeout       time.Duration `mapstructure:"db_timeout" validate:"gt=0"`
	MigrationsDir string        `mapstructure:"migrations_dir"`
}

// AuthConfig holds the token signing secret and the single accepted client.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required"`
	ClientID  string        `mapstructure:"client_id" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

// ListingConfig tunes the listing endpoints.
type ListingConfig struct {
	DefaultPageLimit  int  `mapstructure:"default_page_limit" validate:"gt=0"`
	MaxPageLimit      int  `mapstructure:"max_page_limit" validate:"gtefield=DefaultPageLimit"`
	ListAllLimit      int  `mapstructure:"list_all_limit" validate:"gte=0"`
	MaxByIDs          int  `mapstructure:"max_by_ids" validate:"gt=0"`
	EmptyPageNotFound bool `mapstructure:"empty_page_not_found"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"log_format" validate:"oneof=json text"`
}

var defaults = map[string]any{
	"shutdown_timeout":     10 * time.Second,
	"cors_allowed_origins": "",
	"enable_hsts":          false,
	"rate_limit_rps":       20.0,
	"rate_limit_burst":     40,
	"max_body_bytes":       int64(1 << 20),
	"trust_proxy_headers":  false,
	"db_name":              "bookexchange",
	"db_timeout":           5 * time.Second,
	"migrations_dir":       "db/migrations",
	"token_ttl":            time.Hour,
	"default_page_limit":   10,
	"max_page_limit":       100,
	"list_all_limit":       0,
	"max_by_ids":           500,
	"empty_page_not_found": true,
	"log_level":            "info",
	"log_format":           "json",
}

// required keys have no default and must come from the environment or file.
var required = []string{"port", "db_dsn", "jwt_secret", "client_id"}

// LoadEnvFiles loads .env and .env.local into the process environment.
// Variables already set by the runtime are never overridden.
func LoadEnvFiles() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// Load reads configuration from environment variables (upper-cased keys) and,
// when CONFIG_FILE is set, from that file. Environment variables win.
func Load() (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range required {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.BindEnv("config_file"); err != nil {
		return nil, fmt.Errorf("bind env config_file: %w", err)
	}
	if file := v.GetString("config_file"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Server.AllowedOrigins = splitList(v.GetString("cors_allowed_origins"))

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

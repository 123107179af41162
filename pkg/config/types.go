package config

import (
	"time"
)

// Storage and cache backend names.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete server configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Cache   CacheConfig   `mapstructure:"cache" yaml:"cache"`
	CORS    CORSConfig    `mapstructure:"cors" yaml:"cors"`
	Admin   AdminConfig   `mapstructure:"admin" yaml:"admin"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `mapstructure:"addr" yaml:"addr" validate:"required"`
	// PublicURL overrides the scheme and host used in published endpoint URLs.
	PublicURL       string        `mapstructure:"public_url" yaml:"public_url,omitempty" validate:"omitempty,url"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
	// MaxBodySize caps mock and admin request bodies, in bytes.
	MaxBodySize int64 `mapstructure:"max_body_size" yaml:"max_body_size" validate:"gt=0"`
}

// StorageConfig selects where endpoint definitions live.
type StorageConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend" validate:"oneof=file memory redis"`
	Dir     string      `mapstructure:"dir" yaml:"dir,omitempty"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig holds redis connection settings shared by the redis storage
// and cache backends.
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Username string `mapstructure:"username" yaml:"username,omitempty"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db" validate:"gte=0"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Backend string `mapstructure:"backend" yaml:"backend" validate:"oneof=file memory redis"`
	// Dir is the file backend's directory. Defaults to the XDG cache dir.
	Dir           string        `mapstructure:"dir" yaml:"dir,omitempty"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gt=0"`
	SweepSchedule string        `mapstructure:"sweep_schedule" yaml:"sweep_schedule" validate:"required"`
}

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	// Enabled enables CORS handling. When false, no CORS headers are added.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// AllowOrigins lists allowed origins. "*" allows any origin.
	AllowOrigins  []string `mapstructure:"allow_origins" yaml:"allow_origins,omitempty"`
	AllowMethods  []string `mapstructure:"allow_methods" yaml:"allow_methods,omitempty"`
	AllowHeaders  []string `mapstructure:"allow_headers" yaml:"allow_headers,omitempty"`
	ExposeHeaders []string `mapstructure:"expose_headers" yaml:"expose_headers,omitempty"`
	// AllowCredentials cannot be combined with a literal "*" origin; the
	// request origin is echoed instead.
	AllowCredentials bool `mapstructure:"allow_credentials" yaml:"allow_credentials,omitempty"`
	// MaxAge is the preflight cache duration in seconds.
	MaxAge int `mapstructure:"max_age" yaml:"max_age,omitempty" validate:"gte=0"`
}

// AdminConfig configures the /__mockapi administrative API.
type AdminConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// RateLimit is the number of admin requests allowed per client IP per
	// minute. Zero disables limiting.
	RateLimit int `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"`
}

// LogConfig configures the operational logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// DefaultCORSConfig allows any origin with the headers mock clients send.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		Enabled:      true,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization", "X-Requested-With"},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Storage: StorageConfig{
			Backend: BackendFile,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "mockapi:",
			},
		},
		Cache: CacheConfig{
			Enabled:       true,
			Backend:       BackendMemory,
			TTL:           time.Second,
			SweepSchedule: "@every 30s",
		},
		CORS: DefaultCORSConfig(),
		Admin: AdminConfig{
			Enabled:   true,
			RateLimit: 600,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// IsWildcard reports whether any origin is allowed.
func (c *CORSConfig) IsWildcard() bool {
	for _, origin := range c.AllowOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// AllowOriginValue returns the Access-Control-Allow-Origin value for a
// request origin, or "" when the origin is not allowed.
func (c *CORSConfig) AllowOriginValue(requestOrigin string) string {
	if c == nil || !c.Enabled {
		return ""
	}
	if c.IsWildcard() {
		if c.AllowCredentials {
			return requestOrigin
		}
		return "*"
	}
	for _, allowed := range c.AllowOrigins {
		if allowed == requestOrigin {
			return requestOrigin
		}
	}
	return ""
}

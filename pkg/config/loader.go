package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "MOCKAPI"

// FileName is the config file name searched for when no path is given.
const FileName = "mockapi"

// Load reads the configuration. With an empty path, "mockapi.yaml" is looked
// up in the working directory and the user config directory; a missing file
// is not an error. The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "mockapi"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so environment overrides apply to keys
// absent from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.public_url", d.Server.PublicURL)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.max_body_size", d.Server.MaxBodySize)

	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("storage.redis.addr", d.Storage.Redis.Addr)
	v.SetDefault("storage.redis.username", d.Storage.Redis.Username)
	v.SetDefault("storage.redis.password", d.Storage.Redis.Password)
	v.SetDefault("storage.redis.db", d.Storage.Redis.DB)
	v.SetDefault("storage.redis.prefix", d.Storage.Redis.Prefix)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.sweep_schedule", d.Cache.SweepSchedule)

	v.SetDefault("cors.enabled", d.CORS.Enabled)
	v.SetDefault("cors.allow_origins", d.CORS.AllowOrigins)
	v.SetDefault("cors.allow_methods", d.CORS.AllowMethods)
	v.SetDefault("cors.allow_headers", d.CORS.AllowHeaders)
	v.SetDefault("cors.expose_headers", d.CORS.ExposeHeaders)
	v.SetDefault("cors.allow_credentials", d.CORS.AllowCredentials)
	v.SetDefault("cors.max_age", d.CORS.MaxAge)

	v.SetDefault("admin.enabled", d.Admin.Enabled)
	v.SetDefault("admin.rate_limit", d.Admin.RateLimit)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// ToYAML marshals c to YAML bytes.
func ToYAML(c *Config) ([]byte, error) {
	if c == nil {
		return nil, errors.New("config cannot be nil")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	return data, nil
}

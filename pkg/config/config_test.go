package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"unknown storage backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage.backend"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache.ttl"},
		{"bad schedule", func(c *Config) { c.Cache.SweepSchedule = "sometimes" }, "cache.sweep_schedule"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad public url", func(c *Config) { c.Server.PublicURL = "not a url" }, "server.public_url"},
		{"redis without addr", func(c *Config) {
			c.Storage.Backend = BackendRedis
			c.Storage.Redis.Addr = ""
		}, "storage.redis.addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	d := Default()
	assert.Equal(t, d.Server, cfg.Server)
	assert.Equal(t, d.Cache, cfg.Cache)
	assert.Equal(t, d.Storage.Backend, cfg.Storage.Backend)
	assert.Equal(t, d.CORS.AllowOrigins, cfg.CORS.AllowOrigins)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  addr: ":9090"
storage:
  backend: memory
cache:
  ttl: 250ms
  backend: file
cors:
  allow_origins: ["https://example.com"]
`), 0o600))

	t.Setenv("MOCKAPI_LOG_LEVEL", "debug")
	t.Setenv("MOCKAPI_ADMIN_RATE_LIMIT", "5")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 250*time.Millisecond, cfg.Cache.TTL)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, []string{"https://example.com"}, cfg.CORS.AllowOrigins)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Admin.RateLimit)
	// Untouched keys keep their defaults.
	assert.Equal(t, int64(10<<20), cfg.Server.MaxBodySize)
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mockapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  backend: tape\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.backend")
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestToYAML(t *testing.T) {
	data, err := ToYAML(Default())
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "ttl: 1s")
	assert.Contains(t, out, "@every 30s")
	assert.Contains(t, out, "backend: file")

	_, err = ToYAML(nil)
	assert.Error(t, err)
}

func TestCORSConfig_AllowOriginValue(t *testing.T) {
	wild := DefaultCORSConfig()
	assert.Equal(t, "*", wild.AllowOriginValue("https://a.test"))

	wild.AllowCredentials = true
	assert.Equal(t, "https://a.test", wild.AllowOriginValue("https://a.test"))

	list := CORSConfig{Enabled: true, AllowOrigins: []string{"https://a.test"}}
	assert.Equal(t, "https://a.test", list.AllowOriginValue("https://a.test"))
	assert.Empty(t, list.AllowOriginValue("https://b.test"))

	off := CORSConfig{AllowOrigins: []string{"*"}}
	assert.Empty(t, off.AllowOriginValue("https://a.test"))
}

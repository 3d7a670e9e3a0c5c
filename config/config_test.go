package config

import (
	"testing"
	"time"

	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/override"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	def := Default()
	assert.Equal(t, def.Namespace, cfg.Namespace)
	assert.Equal(t, def.Override, cfg.Override)
	assert.Equal(t, def.Store, cfg.Store)
	assert.Equal(t, def.Admin, cfg.Admin)
	assert.Equal(t, override.DefaultKey, cfg.Override.Key)
	assert.Equal(t, log.DebugLevel, cfg.Log.Level)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("LUMBER_NAMESPACE", "rails")
	t.Setenv("LUMBER_LOG_LEVEL", "warn")
	t.Setenv("LUMBER_OVERRIDE_POLL_INTERVAL", "5s")
	t.Setenv("LUMBER_OVERRIDE_MONITOR", "false")
	t.Setenv("LUMBER_STORE_TYPE", "badger")
	t.Setenv("LUMBER_STORE_DIR", "/var/lib/lumber")
	t.Setenv("LUMBER_ADMIN_ADDR", "0.0.0.0:9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rails", cfg.Namespace)
	assert.Equal(t, log.WarnLevel, cfg.Log.Level)
	assert.Equal(t, 5*time.Second, cfg.Override.PollInterval)
	assert.False(t, cfg.Override.Monitor)
	assert.Equal(t, "badger", cfg.Store.Type)
	assert.Equal(t, "/var/lib/lumber", cfg.Store.Dir)
	assert.Equal(t, "0.0.0.0:9000", cfg.Admin.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("LUMBER_STORE_TYPE", "redis")

	_, err := Load()
	assert.ErrorContains(t, err, "Config.Store.Type")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"badger needs dir", func(c *Config) { c.Store.Type = "badger" }, "Config.Store.Dir"},
		{"zero poll interval", func(c *Config) { c.Override.PollInterval = 0 }, "Config.Override.PollInterval"},
		{"empty key", func(c *Config) { c.Override.Key = "" }, "Config.Override.Key"},
		{"bad admin addr", func(c *Config) { c.Admin.Addr = "nowhere" }, "Config.Admin.Addr"},
		{"metrics path", func(c *Config) { c.Admin.MetricsPath = "metrics" }, "Config.Admin.MetricsPath"},
		{"log level", func(c *Config) { c.Log.Level = log.Level(42) }, "invalid log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}

	cfg := Default()
	cfg.Store = StoreConfig{Type: "badger", InMemory: true}
	assert.NoError(t, cfg.Validate())
	cfg.Admin = AdminConfig{Enabled: false}
	assert.NoError(t, cfg.Validate())
}

func TestPluginConf(t *testing.T) {
	cfg := Default()
	assert.Equal(t, map[string]any{
		"store": map[string]any{"memory": map[string]any{"tag": "default"}},
	}, cfg.PluginConf())

	cfg.Store = StoreConfig{Type: "badger", Dir: "/data"}
	assert.Equal(t, map[string]any{
		"store": map[string]any{"badger": map[string]any{"tag": "default", "dir": "/data", "in_memory": false}},
	}, cfg.PluginConf())
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "admin.addr", envKey("LUMBER_ADMIN_ADDR"))
	assert.Equal(t, "override.poll_interval", envKey("LUMBER_OVERRIDE_POLL_INTERVAL"))
	assert.Equal(t, "namespace", envKey("LUMBER_NAMESPACE"))
}

// Package config loads the configuration of the lumberd daemon.
//
// Values are layered: struct defaults first, then LUMBER_* environment
// variables. LUMBER_ADMIN_ADDR sets admin.addr, LUMBER_OVERRIDE_POLL_INTERVAL
// sets override.poll_interval: the first segment after the prefix names the
// section and the rest names the key.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/linchenxuan/lumber/hierarchy"
	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/override"
	"github.com/linchenxuan/lumber/plugin"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LUMBER_"

// Config is the daemon configuration.
type Config struct {
	Log       log.Config     `mapstructure:"log"`
	Namespace string         `mapstructure:"namespace" validate:"required"`
	Override  OverrideConfig `mapstructure:"override"`
	Store     StoreConfig    `mapstructure:"store"`
	Admin     AdminConfig    `mapstructure:"admin"`
}

// OverrideConfig configures the level override engine and its poller.
type OverrideConfig struct {
	Key          string        `mapstructure:"key" validate:"required"`
	TTL          time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Monitor      bool          `mapstructure:"monitor"`
	PollInterval time.Duration `mapstructure:"poll_interval" validate:"gt=0"`
}

// StoreConfig selects the override store plugin.
type StoreConfig struct {
	Type     string `mapstructure:"type" validate:"oneof=memory badger"`
	Dir      string `mapstructure:"dir" validate:"required_if=Type badger InMemory false"`
	InMemory bool   `mapstructure:"in_memory"`
}

// AdminConfig configures the admin HTTP server.
type AdminConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Addr            string        `mapstructure:"addr" validate:"required_if=Enabled true,omitempty,hostname_port"`
	MetricsPath     string        `mapstructure:"metrics_path" validate:"omitempty,startswith=/"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gte=0"`
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		Log:       *log.DefaultConfig(),
		Namespace: hierarchy.DefaultNamespace,
		Override: OverrideConfig{
			Key:          override.DefaultKey,
			TTL:          override.DefaultTTL,
			Monitor:      true,
			PollInterval: override.DefaultInterval,
		},
		Store: StoreConfig{
			Type: override.MemoryStoreName,
		},
		Admin: AdminConfig{
			Enabled:         true,
			Addr:            "127.0.0.1:7070",
			MetricsPath:     "/metrics",
			ReadTimeout:     10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Load layers the environment over Default and validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "mapstructure"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// envKey maps LUMBER_SECTION_SOME_KEY to section.some_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, key, ok := strings.Cut(s, "_")
	if !ok {
		return section
	}
	return section + "." + key
}

var _validate = validator.New()

// Validate checks struct constraints and the logging configuration.
func (c *Config) Validate() error {
	if err := _validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// PluginConf renders the store selection as plugin manager configuration,
// registering the selected store as the default instance.
func (c *Config) PluginConf() map[string]any {
	cfg := map[string]any{"tag": plugin.DefaultInsName}
	if c.Store.Type == override.BadgerStoreName {
		cfg["dir"] = c.Store.Dir
		cfg["in_memory"] = c.Store.InMemory
	}
	return map[string]any{
		string(plugin.Store): map[string]any{
			c.Store.Type: cfg,
		},
	}
}

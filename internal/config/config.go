// Package config adapts Viper to the plugin.Config interface.
package config

import (
	"strings"
	"time"

	"github.com/Arwindpianist/gridhealth/pkg/plugin"
	"github.com/spf13/viper"
)

// Compile-time interface guard.
var _ plugin.Config = (*ViperConfig)(nil)

// ViperConfig exposes one section of a shared Viper tree through
// plugin.Config. Sections are addressed by key prefix instead of
// viper.Sub, so defaults registered on the root (the plugins.health.*
// settings, for example) stay visible to the plugin that reads them.
type ViperConfig struct {
	v      *viper.Viper
	prefix string // "" for the root, "plugins.health." for a section
}

// New wraps a Viper instance as the root section.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) key(k string) string { return c.prefix + k }

func (c *ViperConfig) Unmarshal(target any) error {
	if c.prefix == "" {
		return c.v.Unmarshal(target)
	}
	return c.v.UnmarshalKey(strings.TrimSuffix(c.prefix, "."), target)
}

func (c *ViperConfig) Get(key string) any { return c.v.Get(c.key(key)) }

func (c *ViperConfig) GetString(key string) string { return c.v.GetString(c.key(key)) }

func (c *ViperConfig) GetInt(key string) int { return c.v.GetInt(c.key(key)) }

func (c *ViperConfig) GetBool(key string) bool { return c.v.GetBool(c.key(key)) }

func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(c.key(key)) }

func (c *ViperConfig) IsSet(key string) bool { return c.v.IsSet(c.key(key)) }

// Sub returns the named child section. The result is never nil, even
// when nothing is set under the key yet.
func (c *ViperConfig) Sub(key string) plugin.Config {
	return &ViperConfig{v: c.v, prefix: c.key(key) + "."}
}

// Viper returns the underlying root Viper instance for top-level
// settings like server.port that live outside any plugin section.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}

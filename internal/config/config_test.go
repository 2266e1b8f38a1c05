package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSub_SeesRootDefaults(t *testing.T) {
	v := viper.New()
	v.SetDefault("plugins.health.heartbeat_online_window", "5m")
	v.SetDefault("plugins.health.trust_stored_overall", true)

	section := New(v).Sub("plugins.health")

	if got := section.GetDuration("heartbeat_online_window"); got != 5*time.Minute {
		t.Errorf("heartbeat_online_window = %v, want 5m", got)
	}
	if !section.GetBool("trust_stored_overall") {
		t.Error("trust_stored_overall = false, want the root default true")
	}
}

func TestSub_ExplicitValueOverridesDefault(t *testing.T) {
	v := viper.New()
	v.SetDefault("plugins.health.heartbeat_online_window", "5m")
	v.Set("plugins.health.heartbeat_online_window", "90s")

	section := New(v).Sub("plugins.health")

	if got := section.GetDuration("heartbeat_online_window"); got != 90*time.Second {
		t.Errorf("heartbeat_online_window = %v, want 90s", got)
	}
}

func TestSub_EmptySectionIsUsable(t *testing.T) {
	section := New(viper.New()).Sub("plugins.webhook")

	if section == nil {
		t.Fatal("Sub() returned nil")
	}
	if section.IsSet("url") {
		t.Error("IsSet(url) = true on an empty section")
	}
	if got := section.GetString("url"); got != "" {
		t.Errorf("GetString(url) = %q, want empty", got)
	}
}

func TestUnmarshal_SectionStruct(t *testing.T) {
	v := viper.New()
	v.Set("plugins.webhook.url", "https://alerts.example.com/hook")
	v.Set("plugins.webhook.enabled", true)

	var cfg struct {
		URL     string `mapstructure:"url"`
		Enabled bool   `mapstructure:"enabled"`
	}
	if err := New(v).Sub("plugins.webhook").Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if cfg.URL != "https://alerts.example.com/hook" {
		t.Errorf("URL = %q", cfg.URL)
	}
	if !cfg.Enabled {
		t.Error("Enabled = false, want true")
	}
}

func TestNew_NilViperDefaultsToEmpty(t *testing.T) {
	c := New(nil)
	if c.GetString("anything") != "" {
		t.Error("empty config should return zero values")
	}
}

func TestNestedSub(t *testing.T) {
	v := viper.New()
	v.Set("plugins.health.report.metrics_limit", 100)

	got := New(v).Sub("plugins.health").Sub("report").GetInt("metrics_limit")
	if got != 100 {
		t.Errorf("metrics_limit = %d, want 100", got)
	}
}

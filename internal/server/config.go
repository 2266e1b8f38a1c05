package server

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("server.dev_mode", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/gridhealth.db")

	// Plugin defaults
	v.SetDefault("plugins.fleet.enabled", true)
	v.SetDefault("plugins.telemetry.enabled", true)
	v.SetDefault("plugins.telemetry.retention_period", "2160h")
	v.SetDefault("plugins.telemetry.maintenance_interval", "1h")
	v.SetDefault("plugins.health.enabled", true)
	v.SetDefault("plugins.health.heartbeat_online_window", "5m")
	v.SetDefault("plugins.health.heartbeat_warning_window", "30m")
	v.SetDefault("plugins.health.trust_stored_overall", true)
	v.SetDefault("plugins.health.report_metrics_window", "720h")
	v.SetDefault("plugins.health.report_metrics_limit", 100)
	v.SetDefault("plugins.health.report_heartbeat_window", "168h")
	v.SetDefault("plugins.health.report_heartbeat_limit", 50)
	v.SetDefault("plugins.webhook.enabled", true)
	v.SetDefault("plugins.webhook.url", "")
	v.SetDefault("plugins.webhook.timeout", "10s")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("gridhealth")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/gridhealth")
	}

	// Environment variable support: GH_SERVER_PORT=9090
	v.SetEnvPrefix("GH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Load reads the configuration from the environment and, when configFile is
// not empty, from that file. Environment variables take precedence.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("Storage.Type", File)
	v.SetDefault("Storage.File.Path", "dnsentries.txt")
	v.SetDefault("Storage.Route53.TTL", 300)
	v.SetDefault("Storage.Route53.AWSRegion", "us-west-1")
	v.SetDefault("UpdatesFile", "updates.txt")
	v.SetDefault("LogLevel", slog.LevelInfo)
	v.SetDefault("Timeout", 30*time.Second)
	v.SetDefault("Prometheus.ListenAddr", "")
	v.SetDefault("Prometheus.MetricsPath", "/metrics")

	v.BindEnv("Storage.Type", "STORAGE_TYPE")
	v.BindEnv("Storage.File.Path", "ENTRIES_FILE")
	v.BindEnv("Storage.Pihole.URL", "PIHOLE_URL")
	v.BindEnv("Storage.Pihole.Password", "PIHOLE_PASSWORD")
	v.BindEnv("Storage.Route53.HostedZone", "ROUTE53_HOSTED_ZONE")
	v.BindEnv("Storage.Route53.TTL", "ROUTE53_TTL")
	v.BindEnv("Storage.Route53.AWSRegion", "AWS_REGION")
	v.BindEnv("UpdatesFile", "UPDATES_FILE")
	v.BindEnv("LogLevel", "LOG_LEVEL")
	v.BindEnv("Timeout", "TIMEOUT")
	v.BindEnv("Prometheus.ListenAddr", "PROMETHEUS_LISTEN_ADDR")
	v.BindEnv("Prometheus.MetricsPath", "PROMETHEUS_METRICS_PATH")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %s: %w", configFile, err)
		}
	}

	config := &Config{}
	err := v.Unmarshal(config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("couldn't parse config: %w", err)
	}

	return config, config.Validate()
}

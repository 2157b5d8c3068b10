package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Storage     Storage
	UpdatesFile string        `validate:"required"`
	LogLevel    slog.Level
	Timeout     time.Duration `validate:"gt=0"`
	Prometheus  Prometheus
}

// Storage

type StorageType = string

const (
	File    StorageType = "file"
	Pihole  StorageType = "pihole"
	Route53 StorageType = "route53"
)

type Storage struct {
	Type    StorageType `validate:"oneof=file pihole route53"`
	File    FileConf
	Pihole  PiholeConf
	Route53 Route53Conf
}

type FileConf struct {
	Path string
}

type PiholeConf struct {
	URL      string
	Password string
}

type Route53Conf struct {
	HostedZone string
	TTL        int64 `validate:"gte=0"`
	AWSRegion  string
}

// Metrics

type Prometheus struct {
	ListenAddr  string
	MetricsPath string `validate:"startswith=/"`
}

func (c *Config) MetricsEnabled() bool {
	return c.Prometheus.ListenAddr != ""
}

func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Storage.Type {
	case File:
		if c.Storage.File.Path == "" {
			return fmt.Errorf("a storage file path is required for the %q storage type", File)
		}
	case Pihole:
		if err := v.Var(c.Storage.Pihole.URL, "required,url"); err != nil {
			return fmt.Errorf("a valid Pi-hole URL is required for the %q storage type: %w", Pihole, err)
		}
	case Route53:
		if c.Storage.Route53.HostedZone == "" {
			return fmt.Errorf("a hosted zone is required for the %q storage type", Route53)
		}
	}
	return nil
}

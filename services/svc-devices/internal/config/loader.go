package config

import (
	"errors"
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

var (
	ErrUnknownStorageDriver = errors.New("unknown storage driver")
	ErrUnknownExporter      = errors.New("unknown trace exporter")
	ErrInvalidSamplerRatio  = errors.New("sampler ratio must be within [0, 1]")
)

func Init() (*ServiceConfig, error) {
	cfg := &ServiceConfig{}

	err := envconfig.Process("", cfg)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service configuration: %w", err)
	}

	if len(ServiceVersion) != 0 {
		cfg.App.ServiceVersion = ServiceVersion
	}

	if len(CommitSHA) != 0 {
		cfg.App.CommitSHA = CommitSHA
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service configuration: %w", err)
	}

	return cfg, nil
}

func (c *ServiceConfig) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverBolt:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorageDriver, c.Storage.Driver)
	}

	if c.Telemetry.Traces.Enabled {
		switch c.Telemetry.ExporterType {
		case ExporterGRPC, ExporterStdout:
		default:
			return fmt.Errorf("%w: %q", ErrUnknownExporter, c.Telemetry.ExporterType)
		}
	}

	if ratio := c.Telemetry.Traces.SamplerRatio; ratio < 0 || ratio > 1 {
		return ErrInvalidSamplerRatio
	}

	return nil
}

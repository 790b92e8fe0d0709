package config

import (
	"log/slog"

	"github.com/jpalmerr/distroboard"
)

// BuildOptions converts parsed configuration into SDK options.
//
// logger may be nil, in which case the SDK default is used.
func BuildOptions(cfg *Config, logger *slog.Logger) ([]distroboard.Option, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	opts := []distroboard.Option{
		distroboard.WithPort(cfg.Port),
		distroboard.WithPollingInterval(cfg.PollInterval.Duration()),
		distroboard.WithLocation(loc),
		distroboard.WithMetrics(cfg.MetricsEnabled()),
		distroboard.WithAutoStart(cfg.AutoStart),
	}

	if cfg.Title != "" {
		opts = append(opts, distroboard.WithTitle(cfg.Title))
	}

	if cfg.CredentialsFile != "" {
		opts = append(opts, distroboard.WithCredentialsFile(cfg.CredentialsFile))
	}

	if cfg.DynamoDB.Endpoint != "" {
		opts = append(opts, distroboard.WithDynamoEndpoint(cfg.DynamoDB.Endpoint))
	}

	if cfg.Display.TimeFormat != "" {
		opts = append(opts, distroboard.WithTimeFormat(cfg.Display.TimeFormat))
	}

	if logger != nil {
		opts = append(opts, distroboard.WithLogger(logger))
	}

	return opts, nil
}

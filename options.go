package distroboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/source"
)

// minPollingInterval keeps the scan rate at one per second or slower.
const minPollingInterval = time.Second

// dbConfig holds mutable state during Dashboard construction.
type dbConfig struct {
	title           string
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	credentials     credentials.Store
	sources         source.Factory
	dynamoEndpoint  string
	registry        *prometheus.Registry
	metricsEnabled  bool
	location        *time.Location
	timeFormat      string
	autoStart       bool
	viewCallbacks   []func(Snapshot)
}

// Option is a function that configures a [Dashboard] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*dbConfig) error

// WithPollingInterval sets the time between poll ticks.
//
// Defaults to 2 seconds if not specified.
//
// Returns an error if the duration is below one second.
func WithPollingInterval(d time.Duration) Option {
	return func(cfg *dbConfig) error {
		if d < minPollingInterval {
			return errors.New("polling interval must be at least 1s")
		}
		cfg.pollingInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *dbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Dashboard instance.
//
// This allows SDK consumers to control where logs are written and in what
// format. If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "DistroBoard".
func WithTitle(title string) Option {
	return func(cfg *dbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithCredentialStore sets where operator credentials are persisted.
//
// Returns an error if the store is nil.
func WithCredentialStore(s credentials.Store) Option {
	return func(cfg *dbConfig) error {
		if s == nil {
			return errors.New("credential store cannot be nil")
		}
		cfg.credentials = s
		return nil
	}
}

// WithCredentialsFile persists credentials in the YAML file at path.
//
// Returns an error if path is empty.
func WithCredentialsFile(path string) Option {
	return func(cfg *dbConfig) error {
		if path == "" {
			return errors.New("credentials file path cannot be empty")
		}
		cfg.credentials = credentials.NewFileStore(path)
		return nil
	}
}

// WithSourceFactory replaces the DynamoDB source, e.g. with an in-memory
// [source.MemorySource] for demos and tests.
//
// Returns an error if the factory is nil.
func WithSourceFactory(f source.Factory) Option {
	return func(cfg *dbConfig) error {
		if f == nil {
			return errors.New("source factory cannot be nil")
		}
		cfg.sources = f
		return nil
	}
}

// WithDynamoEndpoint overrides the DynamoDB service endpoint, for example
// http://localhost:8000 for DynamoDB Local. Ignored when [WithSourceFactory]
// is used.
func WithDynamoEndpoint(endpoint string) Option {
	return func(cfg *dbConfig) error {
		cfg.dynamoEndpoint = endpoint
		return nil
	}
}

// WithRegistry registers metrics with reg instead of a private registry.
//
// Returns an error if reg is nil.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(cfg *dbConfig) error {
		if reg == nil {
			return errors.New("registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithMetrics enables or disables the /metrics endpoint. Enabled by default.
func WithMetrics(enabled bool) Option {
	return func(cfg *dbConfig) error {
		cfg.metricsEnabled = enabled
		return nil
	}
}

// WithLocation sets the time zone used to render replication timestamps.
// Defaults to [time.Local].
//
// Returns an error if loc is nil.
func WithLocation(loc *time.Location) Option {
	return func(cfg *dbConfig) error {
		if loc == nil {
			return errors.New("location cannot be nil")
		}
		cfg.location = loc
		return nil
	}
}

// WithTimeFormat sets the layout used to render replication timestamps,
// in [time.Time.Format] syntax.
func WithTimeFormat(layout string) Option {
	return func(cfg *dbConfig) error {
		cfg.timeFormat = layout
		return nil
	}
}

// WithAutoStart starts the session on launch when complete credentials are
// already stored.
func WithAutoStart(enabled bool) Option {
	return func(cfg *dbConfig) error {
		cfg.autoStart = enabled
		return nil
	}
}

// WithViewCallback registers a function called after every view change.
//
// The callback receives a [Snapshot] of the whole dashboard: session state,
// alert and records.
//
// Multiple callbacks may be registered by calling WithViewCallback multiple
// times; they execute in registration order.
//
// IMPORTANT: Callbacks must be non-blocking. Callbacks are invoked from a
// single goroutine fed by a buffered subscription; a slow callback makes it
// skip intermediate snapshots. Panics within callbacks are recovered and
// logged.
//
// Nil callbacks are silently ignored.
func WithViewCallback(cb func(Snapshot)) Option {
	return func(cfg *dbConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.viewCallbacks = append(cfg.viewCallbacks, cb)
		return nil
	}
}

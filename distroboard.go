package distroboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/dashboard"
	"github.com/jpalmerr/distroboard/internal/metrics"
	"github.com/jpalmerr/distroboard/internal/server"
	"github.com/jpalmerr/distroboard/internal/session"
	"github.com/jpalmerr/distroboard/internal/store"
	"github.com/jpalmerr/distroboard/source"
)

const (
	defaultPollingInterval = session.DefaultInterval
	defaultPort            = 8080
)

// Dashboard is the main orchestrator for the polling session and the web UI.
//
// Dashboard owns one polling session, the view it renders into and the HTTP
// server that exposes both. It is created using [New] with functional options
// and started with [Dashboard.Start].
//
// The typical lifecycle is:
//
//	db, err := distroboard.New(distroboard.WithPort(8080))
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	db.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown.
type Dashboard struct {
	title           string
	pollingInterval time.Duration
	port            int
	logger          *slog.Logger
	credentials     credentials.Store
	sources         source.Factory
	registry        *prometheus.Registry
	metricsEnabled  bool
	location        *time.Location
	timeFormat      string
	autoStart       bool
	viewCallbacks   []func(Snapshot)
}

// New creates a new [Dashboard] instance with the given options.
//
// Options have sensible defaults:
//   - Polling interval: 2 seconds
//   - Port: 8080
//   - Credentials: YAML file in the user config directory
//   - Source: DynamoDB using the entered credentials
//   - Metrics: enabled on a private registry
//
// Returns an error if any option is invalid.
//
// Example:
//
//	db, err := distroboard.New(
//	    distroboard.WithPort(9090),
//	    distroboard.WithCredentialsFile("/etc/distroboard/credentials.yaml"),
//	)
func New(opts ...Option) (*Dashboard, error) {
	cfg := &dbConfig{
		pollingInterval: defaultPollingInterval,
		port:            defaultPort,
		metricsEnabled:  true,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	creds := cfg.credentials
	if creds == nil {
		path, err := credentials.DefaultPath()
		if err != nil {
			return nil, err
		}
		creds = credentials.NewFileStore(path)
	}

	sources := cfg.sources
	if sources == nil {
		sources = source.NewDynamoFactory(source.DynamoConfig{Endpoint: cfg.dynamoEndpoint})
	}

	return &Dashboard{
		title:           cfg.title,
		pollingInterval: cfg.pollingInterval,
		port:            cfg.port,
		logger:          logger,
		credentials:     creds,
		sources:         sources,
		registry:        cfg.registry,
		metricsEnabled:  cfg.metricsEnabled,
		location:        cfg.location,
		timeFormat:      cfg.timeFormat,
		autoStart:       cfg.autoStart,
		viewCallbacks:   cfg.viewCallbacks,
	}, nil
}

// Start serves the dashboard and runs the polling session.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The HTTP server starts on the configured port
//   - The session stays stopped until the operator presses Start, unless
//     [WithAutoStart] is set and complete credentials are stored
//   - Every view change is pushed to the browser and to view callbacks
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server fails
// to start or the metrics collectors cannot be registered.
func (db *Dashboard) Start(ctx context.Context) error {
	db.logger.Info("distroboard starting", "interval", db.pollingInterval.String())
	db.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", db.port))

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	var m *metrics.Metrics
	if db.metricsEnabled {
		reg := db.registry
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		var err error
		if m, err = metrics.New(reg); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	view := store.NewMemoryStore(session.InitialView())

	sess, err := session.New(ctx, session.Config{
		Interval:    db.pollingInterval,
		Credentials: db.credentials,
		Sources:     db.sources,
		View:        view,
		Metrics:     m,
		Location:    db.location,
		TimeFormat:  db.timeFormat,
		Logger:      db.logger,
	})
	if err != nil {
		return err
	}

	// track the callback consumer goroutine to ensure clean shutdown
	var wg sync.WaitGroup
	var updates <-chan store.View
	if len(db.viewCallbacks) > 0 {
		updates = view.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for v := range updates {
				snap := snapshotFromView(v)
				for _, cb := range db.viewCallbacks {
					invokeCallbackSafe(cb, snap, db.logger)
				}
			}
		}()
	}

	// cleanup stops the session and drains the callback consumer
	cleanup := func() {
		sess.Close()
		if updates != nil {
			view.Unsubscribe(updates) // closes updates
		}
		wg.Wait()
	}

	httpServer := server.NewServer(server.Config{
		Store:      view,
		Controller: sess,
		Port:       db.port,
		Assets:     dashboard.Assets,
		Title:      db.title,
		Metrics:    m.Handler(),
		Logger:     db.logger,
	})
	if err := httpServer.Start(ctx); err != nil {
		cleanup()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if db.autoStart {
		db.startFromStored(sess)
	}

	<-ctx.Done()
	cleanup()
	db.logger.Info("distroboard stopped")
	return nil
}

// startFromStored starts the session with the persisted credentials when
// they are complete.
func (db *Dashboard) startFromStored(sess *session.Session) {
	creds, err := db.credentials.Load()
	if err != nil {
		db.logger.Warn("auto start skipped, credentials unreadable", "error", err.Error())
		return
	}
	if !creds.Complete() {
		db.logger.Info("auto start skipped, stored credentials incomplete")
		return
	}
	if err := sess.Start(creds); err != nil {
		db.logger.Warn("auto start failed", "error", err.Error())
	}
}

// Port returns the configured HTTP port for the dashboard server.
func (db *Dashboard) Port() int {
	return db.port
}

// PollingInterval returns the configured interval between poll ticks.
func (db *Dashboard) PollingInterval() time.Duration {
	return db.pollingInterval
}

// invokeCallbackSafe calls a view callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(Snapshot), snap Snapshot, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("view callback panicked",
				"panic", r,
				"session_id", snap.SessionID,
			)
		}
	}()
	cb(snap)
}

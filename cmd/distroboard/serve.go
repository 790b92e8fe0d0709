package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/distroboard"
	"github.com/jpalmerr/distroboard/config"
	"github.com/jpalmerr/distroboard/internal/logging"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newServeCmd starts the DistroBoard dashboard server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard server",
		Long: `Start the DistroBoard dashboard server.

The server will:
  - Load configuration from the optional YAML file, environment and flags
  - Serve the dashboard UI on the configured port
  - Start polling immediately when --auto-start is set and credentials
    are stored; otherwise wait for Start in the UI

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  distroboard serve
  distroboard serve -c /etc/distroboard/config.yaml --port 9090`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging(), os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closer.Close()

	logger.Info("starting server",
		"port", cfg.Port,
		"poll_interval", cfg.PollInterval.Duration().String(),
		"auto_start", cfg.AutoStart,
		"metrics", cfg.MetricsEnabled(),
	)

	opts, err := config.BuildOptions(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, distroboard.WithSourceFactory(newSources(cfg)))

	db, err := distroboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create DistroBoard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- db.Start(ctx)
	}()

	return waitForShutdown(ctx, errChan, logger)
}

// waitForShutdown waits for the dashboard to return, bounding the wait once
// ctx is cancelled.
func waitForShutdown(ctx context.Context, errChan <-chan error, logger *slog.Logger) error {
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}

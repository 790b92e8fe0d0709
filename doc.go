// Package distroboard provides an embeddable operator dashboard for video
// streaming endpoints whose state lives in a DynamoDB table.
//
// While a session is running the table is scanned every two seconds and the
// whole record set is repainted in the browser: name, region, domain, playlist
// freshness, blocking state and last replication time. Operators can toggle
// blocking per domain after a confirmation prompt, which writes the
// distro_open attribute back to the table.
//
// # Quick Start
//
//	db, _ := distroboard.New(distroboard.WithPort(8080))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	db.Start(ctx) // blocks until context is cancelled
//
// Open http://localhost:8080, enter the clustered video stream name, access
// key id, secret access key and region, and press Start. The credentials are
// stored in a YAML file (mode 0600) and pre-filled on the next visit.
//
// # Configuration
//
// Dashboard uses the functional options pattern for configuration:
//
//	db, err := distroboard.New(
//	    distroboard.WithPort(9090),
//	    distroboard.WithPollingInterval(5 * time.Second),
//	    distroboard.WithCredentialsFile("/var/lib/distroboard/credentials.yaml"),
//	    distroboard.WithLocation(time.UTC),
//	    distroboard.WithViewCallback(func(s distroboard.Snapshot) {
//	        if s.AlertKind == distroboard.AlertError {
//	            log.Printf("session stopped: %s", s.Alert)
//	        }
//	    }),
//	)
//
// # Session semantics
//
// A session is either Stopped or Running. Start replaces any running session.
// A failed scan stops the session and shows the error; there are no retries.
// Results from a session that has since been stopped or restarted are
// discarded.
//
// # Architecture
//
// Dashboard consists of several packages:
//
//   - credentials: Persisted operator credentials
//   - source: DynamoDB scan and update, plus an in-memory source
//   - internal/poller: Fixed-interval tick scheduler
//   - internal/session: Session state machine, tick body and blocking commands
//   - internal/store: In-memory view with pub/sub for real-time updates
//   - internal/server: HTTP server with REST API and Server-Sent Events
//   - internal/metrics: Prometheus collectors
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice.
package distroboard

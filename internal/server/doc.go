// Package server provides the HTTP server for the DistroBoard dashboard and API.
//
// This package is internal to DistroBoard and handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: "/api/state" for the current view, "/api/credentials" for the
//     stored credentials (secret masked), and POST routes that start and stop
//     the session or toggle blocking for a displayed record
//   - Server-Sent Events: Full view snapshots at "/api/sse"
//   - Metrics: Prometheus exposition at "/metrics" when enabled
//
// The server supports graceful shutdown via context cancellation, with a
// 5-second timeout for in-flight requests.
//
// Users of the distroboard library should not need to interact with this
// package directly. The server is started automatically by [distroboard.Dashboard.Start].
package server

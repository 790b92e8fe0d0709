// Package dashboard provides the embedded web UI assets for DistroBoard.
//
// This package uses Go's embed directive to include the dashboard HTML, CSS,
// and JavaScript at compile time. This enables single-binary deployment
// without external asset files.
//
// The embedded assets are served by the server package at the root path ("/").
// Users of the distroboard library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page: credential form, record table, alert banner
//
// The page subscribes to /api/sse and repaints the whole table from each view
// snapshot. Blocking actions ask for confirmation in the browser before the
// request is sent.
//
//go:embed assets/*
var Assets embed.FS

// Package main is the entry point for the distroboard CLI.
//
// DistroBoard can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	distroboard serve -c config.yaml                  # Start the dashboard
//	distroboard validate -c config.yaml               # Validate configuration
//	distroboard records                               # Print the table once
//	distroboard block enable --domain cdn.example.com # Toggle blocking
//	distroboard version                               # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// timezone names must resolve in minimal containers
	_ "time/tzdata"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "distroboard",
		Short: "An operator dashboard for video distribution endpoints",
		Long: `DistroBoard mirrors a DynamoDB table of video streaming endpoints.

While a session runs it scans the table every two seconds and shows
each endpoint's playlist freshness and blocking state in a web UI with
Server-Sent Events for live updates. Operators can enable or disable
blocking per domain after confirming.

Quick start:
  1. Run: distroboard serve
  2. Open http://localhost:8080 in your browser
  3. Enter the stream name, access key id, secret access key and region
  4. Click Start

Every setting can also be given as a flag or as a DISTROBOARD_* environment
variable, e.g. DISTROBOARD_PORT=9090 or DISTROBOARD_POLL_INTERVAL=5s.`,
		SilenceUsage: true,
		// No Run/RunE means this just shows help when called without subcommands
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	addOverrideFlags(root)

	root.AddCommand(
		newServeCmd(),
		newValidateCmd(),
		newRecordsCmd(),
		newBlockCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

// newVersionCmd prints version information.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, and build date of this distroboard binary.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "distroboard %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}

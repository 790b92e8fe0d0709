package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/distroboard"
	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/source"
)

func main() {
	// in-memory table standing in for DynamoDB (see mock_source.go)
	items := seedItems(time.Now())
	src := source.NewMemorySource(items...)

	domains := make([]string, len(items))
	for i, it := range items {
		domains[i] = it.Domain
	}

	// any non-empty values pass; the memory source ignores them
	creds := credentials.NewMemoryStore(credentials.Credentials{
		StreamName:      "demo-stream",
		AccessKeyID:     "demo",
		SecretAccessKey: "demo",
		Region:          credentials.DefaultRegion,
	})

	db, err := distroboard.New(
		distroboard.WithTitle("DistroBoard Demo"),
		distroboard.WithPort(8080),
		distroboard.WithCredentialStore(creds),
		distroboard.WithSourceFactory(func(credentials.Credentials) (source.Source, error) {
			return src, nil
		}),
		distroboard.WithAutoStart(true),
		distroboard.WithViewCallback(func(s distroboard.Snapshot) {
			if s.AlertKind == distroboard.AlertError {
				slog.Warn("session stopped", "reason", s.Alert)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create distroboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   DistroBoard Demo                                    ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Endpoints:                                          ║")
	fmt.Println("  ║   • 4 in-memory, playlist freshness changes randomly  ║")
	fmt.Println("  ║   • Enable/Disable toggles blocking after confirming  ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go simulateReplication(ctx, src, domains)

	if err := db.Start(ctx); err != nil {
		slog.Error("distroboard error", "error", err)
		os.Exit(1)
	}
}

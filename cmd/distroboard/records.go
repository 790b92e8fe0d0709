package main

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/distroboard/internal/session"
)

const recordsTimeout = 30 * time.Second

// newRecordsCmd prints the table once using the stored credentials.
func newRecordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "Print every endpoint once",
		Long: `Scan the table once with the stored credentials and print every
endpoint: domain, name, region, playlist freshness, blocking state and
last replication time.

Example:
  distroboard records
  distroboard records --timezone UTC`,
		Args: cobra.NoArgs,
		RunE: runRecords,
	}
}

func runRecords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	creds, err := storedCredentials(cfg)
	if err != nil {
		return err
	}

	src, err := newSources(cfg)(creds)
	if err != nil {
		return fmt.Errorf("failed to create source: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), recordsTimeout)
	defer cancel()

	items, err := src.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Domain < items[j].Domain
	})

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	clock := session.NewClock(loc, cfg.Display.TimeFormat)

	cols := columnize.DefaultConfig()
	cols.Delim = columnDelim

	lines := []string{row("DOMAIN", "NAME", "REGION", "PLAYLIST FRESH", "BLOCKING", "LAST CHANGE")}
	for _, it := range items {
		updated, _ := clock.Format(it.ReplicatedAt)
		lines = append(lines, row(
			it.Domain, it.Name, it.Region,
			mark(it.PlaylistFresh), mark(!it.DistroOpen), updated,
		))
	}
	fmt.Fprintln(cmd.OutOrStdout(), columnize.Format(lines, cols))
	return nil
}

// columnDelim separates cells for columnize. It is a control character so
// table values can contain "|".
const columnDelim = "\x1f"

// row joins cells for columnize, dropping any delimiter inside a value.
func row(cells ...string) string {
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(c, columnDelim, "")
	}
	return strings.Join(cells, columnDelim)
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

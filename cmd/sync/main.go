/*
main.go - Batch import of device punches

PURPOSE:
  Reads a JSON array of device events (as exported by the clocking device)
  and ingests them for one tenant, the same way POST /sync/events does.

COMMAND-LINE FLAGS:
  -tenant  Tenant the events belong to (required)
  -file    Path to the events file, "-" for stdin (default: "-")
  -db      SQLite database path (DB_PATH, default: labor.db)

EXIT STATUS:
  0 when every event was applied, 1 when any event failed.

EXAMPLES:
  ./sync -tenant=acme -file=./punches.json
  cat punches.json | ./sync -tenant=acme
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/warp/labor-engine/config"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/store/sqlite"
)

func main() {
	ok, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sync: %v\n", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}

func run() (bool, error) {
	cfg, err := config.Load()
	if err != nil {
		return false, err
	}

	tenant := flag.String("tenant", "", "tenant the events belong to")
	file := flag.String("file", "-", `events file ("-" for stdin)`)
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()

	if *tenant == "" {
		return false, fmt.Errorf("-tenant is required")
	}

	logger := cfg.App.NewLogger(os.Stderr, "labor-sync")

	data, err := readInput(*file)
	if err != nil {
		return false, err
	}
	events, err := labor.DecodeEvents(data)
	if err != nil {
		return false, err
	}

	ref, err := cfg.Reference()
	if err != nil {
		return false, fmt.Errorf("reference data: %w", err)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		return false, fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var calendar generic.HolidayCalendar = generic.NoHolidays{}
	if span, ok := labor.EventSpan(events, cfg.App.Timezone); ok {
		set, err := labor.LoadHolidaySet(ctx, store, generic.TenantID(*tenant), span)
		if err != nil {
			return false, err
		}
		calendar = set
	}

	fmt.Printf("Synchronizing %d events for %s...\n", len(events), *tenant)

	ingestor := labor.NewIngestor(ref.Code, store, calendar, cfg.App.Timezone, logger)
	result := ingestor.IngestBatch(ctx, generic.TenantID(*tenant), events)

	fmt.Println("Synchronization completed:")
	fmt.Printf("- Success: %d\n", result.Success)
	fmt.Printf("- Failed: %d\n", result.Failed)
	if len(result.Errors) > 0 {
		fmt.Fprintln(os.Stderr, "Errors:")
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", e)
		}
	}
	return result.Failed == 0, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

/*
main.go - National holiday list

PURPOSE:
  Prints the Portuguese national holidays of a year and, with -seed,
  persists them as global holidays.

COMMAND-LINE FLAGS:
  -year    Year to compute (default: current year in APP_TIMEZONE)
  -seed    Persist the list into the database
  -db      SQLite database path (DB_PATH, default: labor.db)

EXAMPLES:
  ./holidays -year=2025
  ./holidays -year=2025 -seed -db=./data/labor.db
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/warp/labor-engine/config"
	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "holidays: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	year := flag.Int("year", time.Now().In(cfg.App.Timezone).Year(), "year")
	seed := flag.Bool("seed", false, "persist the holidays")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite database path")
	flag.Parse()

	if *year < 1583 {
		return fmt.Errorf("year %d is before the Gregorian calendar", *year)
	}

	holidays := labor.NationalHolidays(*year)
	if *seed {
		store, err := sqlite.New(*dbPath)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		fmt.Printf("Seeding Portuguese national holidays for year %d...\n", *year)
		if holidays, err = labor.SeedNationalHolidays(context.Background(), store, *year); err != nil {
			return err
		}
	}

	for _, h := range holidays {
		fmt.Printf("  - %s: %s (%s)\n", h.Name, h.Date, h.Date.Weekday())
	}
	if *seed {
		fmt.Printf("Successfully seeded %d holidays.\n", len(holidays))
	}
	return nil
}

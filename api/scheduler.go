/*
scheduler.go - Automated holiday seeding

PURPOSE:
  Keeps the holiday table populated so working-day counts and overtime
  rates never run against an empty calendar. Each run persists the national
  holidays of the current and the next year, plus the company holidays from
  the reference-data document.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - Seeding is an upsert, so every run is safe to repeat

USAGE:
  scheduler := NewHolidayScheduler(store, ref.Holidays, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: SeedHolidays endpoint (manual seeding)
  - labor/holidays.go: NationalHolidays
*/
package api

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

// HolidayScheduler handles periodic holiday seeding.
type HolidayScheduler struct {
	Store         labor.HolidayStore
	Extra         []generic.Holiday
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger

	now    func() time.Time
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHolidayScheduler creates a new scheduler.
func NewHolidayScheduler(store labor.HolidayStore, extra []generic.Holiday, logger *slog.Logger) *HolidayScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HolidayScheduler{
		Store:         store,
		Extra:         extra,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		Logger:        logger.With("component", "holiday_scheduler"),
		now:           time.Now,
	}
}

// Start begins the scheduler.
func (hs *HolidayScheduler) Start() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.Enabled || hs.CheckInterval <= 0 {
		hs.Logger.Info("scheduler disabled, not starting")
		return
	}
	if hs.ticker != nil {
		return
	}

	hs.stop = make(chan struct{})
	hs.ticker = time.NewTicker(hs.CheckInterval)
	hs.wg.Add(1)

	go hs.run()

	hs.Logger.Info("scheduler started", "interval", hs.CheckInterval)
}

// Stop stops the scheduler and waits for a running seed to finish.
func (hs *HolidayScheduler) Stop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.ticker != nil {
		hs.ticker.Stop()
		close(hs.stop)
		hs.wg.Wait()
		hs.ticker = nil
		hs.Logger.Info("scheduler stopped")
	}
}

func (hs *HolidayScheduler) run() {
	defer hs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-hs.stop
		cancel()
	}()

	hs.seedAndLog(ctx)

	for {
		select {
		case <-hs.ticker.C:
			hs.seedAndLog(ctx)
		case <-hs.stop:
			return
		}
	}
}

func (hs *HolidayScheduler) seedAndLog(ctx context.Context) {
	n, err := hs.RunNow(ctx)
	if err != nil {
		hs.Logger.Error("holiday seeding failed", "error", err)
		return
	}
	hs.Logger.Info("holidays seeded", "count", n)
}

// RunNow seeds immediately and returns the number of holidays written.
func (hs *HolidayScheduler) RunNow(ctx context.Context) (int, error) {
	year := hs.now().Year()
	count := 0

	for _, y := range []int{year, year + 1} {
		seeded, err := labor.SeedNationalHolidays(ctx, hs.Store, y)
		if err != nil {
			return count, err
		}
		count += len(seeded)
	}

	for i := range hs.Extra {
		h := hs.Extra[i]
		if err := hs.Store.SaveHoliday(ctx, &h); err != nil {
			return count, fmt.Errorf("save %s (%s): %w", h.Name, h.Date, err)
		}
		count++
	}
	return count, nil
}

// NextRunTime returns when the next scheduled run will occur.
func (hs *HolidayScheduler) NextRunTime() time.Time {
	return hs.now().Add(hs.CheckInterval)
}

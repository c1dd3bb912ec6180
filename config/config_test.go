package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/labor"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_PORT", "")
	t.Setenv("DB_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "labor.db", cfg.Database.Path)
	assert.Equal(t, 24*time.Hour, cfg.Holidays.SeedInterval)
	assert.Equal(t, time.UTC, cfg.App.Timezone)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_PATH", ":memory:")
	t.Setenv("APP_TIMEZONE", "UTC")
	t.Setenv("HOLIDAY_SEED_INTERVAL", "1h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, time.Hour, cfg.Holidays.SeedInterval)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")

	_, err := Load()
	assert.ErrorContains(t, err, "APP_PORT")
}

func TestLaborConfig_ApplyTo(t *testing.T) {
	base := labor.PortugueseCode()

	code, err := LaborConfig{}.ApplyTo(base)
	require.NoError(t, err)
	assert.True(t, code.DailyRegularHours.Equal(base.DailyRegularHours), "no overrides keeps the defaults")

	code, err = LaborConfig{
		HoursPerDay:         "7.5",
		OvertimeRateExtra:   "1.8",
		MinRestHours:        "12",
		MaxShiftHours:       "14.5",
		VacationDaysPerYear: "25",
	}.ApplyTo(base)
	require.NoError(t, err)
	assert.Equal(t, "7.5", code.DailyRegularHours.String())
	assert.Equal(t, "1.8", code.AdditionalRate.String())
	assert.Equal(t, 12*time.Hour, code.MinDailyRest)
	assert.Equal(t, 14*time.Hour+30*time.Minute, code.MaxShiftLength)
	assert.Equal(t, 25, code.VacationDaysPerYear)
	assert.Equal(t, "40", code.WeeklyRegularHours.String())

	_, err = LaborConfig{HoursPerWeek: "forty"}.ApplyTo(base)
	assert.ErrorContains(t, err, "WORKING_HOURS_PER_WEEK")

	_, err = LaborConfig{MaxShiftHours: "long"}.ApplyTo(base)
	assert.ErrorContains(t, err, "MAX_SHIFT_HOURS")
}

func TestConfig_Reference(t *testing.T) {
	// GIVEN: A reference-data file and an environment override on top
	// WHEN: Loading the reference data
	// THEN: The document applies first, the environment wins

	dir := t.TempDir()
	path := filepath.Join(dir, "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte("overtime:\n  additional_rate: 1.8\nvacation:\n  days_per_year: 23\n"), 0o600))

	cfg := &Config{Labor: LaborConfig{ReferenceData: path, VacationDaysPerYear: "25"}}
	ref, err := cfg.Reference()
	require.NoError(t, err)
	assert.Equal(t, "1.8", ref.Code.AdditionalRate.String())
	assert.Equal(t, 25, ref.Code.VacationDaysPerYear)
	assert.Len(t, ref.Catalog.Types(), 8)

	cfg = &Config{Labor: LaborConfig{HoursPerDay: "0"}}
	_, err = cfg.Reference()
	assert.Error(t, err, "overrides are validated too")
}

func TestAppConfig_Level(t *testing.T) {
	level, err := AppConfig{LogLevel: "debug"}.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)

	_, err = AppConfig{LogLevel: "loud"}.Level()
	assert.Error(t, err)
}

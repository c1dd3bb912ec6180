package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/factory"
	"github.com/warp/labor-engine/labor"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Labor    LaborConfig
	Holidays HolidayConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone *time.Location
}

type DatabaseConfig struct {
	Path string
}

// LaborConfig holds the statutory limits. Empty values keep the ones from
// the reference-data document (or the built-in Portuguese defaults).
type LaborConfig struct {
	ReferenceData       string
	HoursPerDay         string
	HoursPerWeek        string
	OvertimeRateFirst   string
	OvertimeRateExtra   string
	MinRestHours        string
	MaxShiftHours       string
	VacationDaysPerYear string
}

// HolidayConfig drives the background seeding of national holidays.
// A zero SeedInterval disables the scheduler.
type HolidayConfig struct {
	SeedInterval time.Duration
}

// Load reads the environment, after merging an optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	config.App = AppConfig{
		Port:     appPort,
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: loc,
	}

	config.Database = DatabaseConfig{
		Path: getEnv("DB_PATH", "labor.db"),
	}

	config.Labor = LaborConfig{
		ReferenceData:       getEnv("REFERENCE_DATA", ""),
		HoursPerDay:         getEnv("WORKING_HOURS_PER_DAY", ""),
		HoursPerWeek:        getEnv("WORKING_HOURS_PER_WEEK", ""),
		OvertimeRateFirst:   getEnv("OVERTIME_RATE_FIRST", ""),
		OvertimeRateExtra:   getEnv("OVERTIME_RATE_ADDITIONAL", ""),
		MinRestHours:        getEnv("MIN_REST_HOURS", ""),
		MaxShiftHours:       getEnv("MAX_SHIFT_HOURS", ""),
		VacationDaysPerYear: getEnv("VACATION_DAYS_PER_YEAR", ""),
	}

	// Holiday seeding
	seedInterval, err := time.ParseDuration(getEnv("HOLIDAY_SEED_INTERVAL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOLIDAY_SEED_INTERVAL: %w", err)
	}
	config.Holidays = HolidayConfig{
		SeedInterval: seedInterval,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.App.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	if c.Holidays.SeedInterval < 0 {
		return fmt.Errorf("HOLIDAY_SEED_INTERVAL must not be negative")
	}
	if _, err := c.App.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LOG_LEVEL.
func (a AppConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger builds the JSON logger every binary uses, with ECS field names.
func (a AppConfig) NewLogger(w io.Writer, app string) *slog.Logger {
	level, _ := a.Level()
	logFormat := httplog.SchemaECS.Concise(a.Env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", app),
		slog.String("env", a.Env),
	)
}

// Reference loads the reference-data document (or the built-in defaults
// when REFERENCE_DATA is unset) and applies the environment overrides.
func (c *Config) Reference() (*factory.Reference, error) {
	f := factory.NewReferenceFactory()

	var (
		ref *factory.Reference
		err error
	)
	if c.Labor.ReferenceData != "" {
		ref, err = f.LoadFile(c.Labor.ReferenceData)
	} else {
		ref, err = f.FromDoc(factory.ReferenceDoc{})
	}
	if err != nil {
		return nil, err
	}

	code, err := c.Labor.ApplyTo(ref.Code)
	if err != nil {
		return nil, err
	}
	if err := factory.ValidateCode(code); err != nil {
		return nil, fmt.Errorf("labor overrides: %w", err)
	}
	ref.Code = code
	return ref, nil
}

// ApplyTo overrides the fields of code that are set in the environment.
func (l LaborConfig) ApplyTo(code labor.Code) (labor.Code, error) {
	overrides := []struct {
		env   string
		value string
		dst   *decimal.Decimal
	}{
		{"WORKING_HOURS_PER_DAY", l.HoursPerDay, &code.DailyRegularHours},
		{"WORKING_HOURS_PER_WEEK", l.HoursPerWeek, &code.WeeklyRegularHours},
		{"OVERTIME_RATE_FIRST", l.OvertimeRateFirst, &code.FirstTierRate},
		{"OVERTIME_RATE_ADDITIONAL", l.OvertimeRateExtra, &code.AdditionalRate},
	}
	for _, o := range overrides {
		if o.value == "" {
			continue
		}
		d, err := decimal.NewFromString(o.value)
		if err != nil {
			return code, fmt.Errorf("invalid %s: %w", o.env, err)
		}
		*o.dst = d
	}

	durations := []struct {
		env   string
		value string
		dst   *time.Duration
	}{
		{"MIN_REST_HOURS", l.MinRestHours, &code.MinDailyRest},
		{"MAX_SHIFT_HOURS", l.MaxShiftHours, &code.MaxShiftLength},
	}
	for _, o := range durations {
		if o.value == "" {
			continue
		}
		d, err := decimal.NewFromString(o.value)
		if err != nil {
			return code, fmt.Errorf("invalid %s: %w", o.env, err)
		}
		*o.dst = time.Duration(d.Mul(decimal.NewFromInt(int64(time.Hour))).IntPart())
	}
	if l.VacationDaysPerYear != "" {
		n, err := strconv.Atoi(l.VacationDaysPerYear)
		if err != nil {
			return code, fmt.Errorf("invalid VACATION_DAYS_PER_YEAR: %w", err)
		}
		code.VacationDaysPerYear = n
	}
	return code, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

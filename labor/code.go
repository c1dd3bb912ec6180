package labor

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LABOR CODE - Statutory constants, injected into every component
// =============================================================================

// Code is the immutable set of statutory limits the engine applies.
// It is produced once (defaults or a reference-data document) and passed by
// value; no component reads limits from literals of its own.
type Code struct {
	Name string

	// Working time (Article 203)
	DailyRegularHours  decimal.Decimal
	WeeklyRegularHours decimal.Decimal

	// MaxShiftLength bounds how long after a clock-in a check-out on the
	// following day still closes that shift.
	MaxShiftLength time.Duration

	// Rest (Article 214)
	MinDailyRest time.Duration

	// Overtime compensation (Article 268)
	FirstTierHours       decimal.Decimal
	FirstTierRate        decimal.Decimal
	AdditionalRate       decimal.Decimal
	WeekendOrHolidayRate decimal.Decimal

	// Vacation (Article 238)
	VacationDaysPerYear int

	// Breaks. Only audited when EnforceBreaks is set.
	BreakRequiredAfter time.Duration
	MinBreak           time.Duration
	EnforceBreaks      bool
}

// PortugueseCode returns the limits of the Portuguese Labor Code.
func PortugueseCode() Code {
	return Code{
		Name:                 "pt",
		DailyRegularHours:    decimal.NewFromInt(8),
		WeeklyRegularHours:   decimal.NewFromInt(40),
		MaxShiftLength:       16 * time.Hour,
		MinDailyRest:         11 * time.Hour,
		FirstTierHours:       decimal.NewFromInt(2),
		FirstTierRate:        decimal.RequireFromString("1.5"),
		AdditionalRate:       decimal.RequireFromString("1.75"),
		WeekendOrHolidayRate: decimal.NewFromInt(2),
		VacationDaysPerYear:  22,
		BreakRequiredAfter:   5 * time.Hour,
		MinBreak:             30 * time.Minute,
	}
}

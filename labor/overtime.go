package labor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME RATE CALCULATOR
// =============================================================================

// RateTier is a contiguous slice of overtime hours paid at one multiplier.
type RateTier struct {
	Hours      decimal.Decimal `json:"hours"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

// RateResult is the tier breakdown for one day's overtime.
type RateResult struct {
	Tiers       []RateTier
	Description string
}

// RateFor splits overtime hours into pay tiers.
//
//	weekend or holiday: all hours at WeekendOrHolidayRate
//	up to FirstTierHours: all hours at FirstTierRate
//	otherwise: FirstTierHours at FirstTierRate, the rest at AdditionalRate
func (c Code) RateFor(hours decimal.Decimal, weekendOrHoliday bool) RateResult {
	if !hours.IsPositive() {
		return RateResult{Description: "No overtime"}
	}

	if weekendOrHoliday {
		return RateResult{
			Tiers:       []RateTier{{Hours: hours, Multiplier: c.WeekendOrHolidayRate}},
			Description: fmt.Sprintf("Weekend/holiday rate (%s extra)", percentExtra(c.WeekendOrHolidayRate)),
		}
	}

	if hours.LessThanOrEqual(c.FirstTierHours) {
		return RateResult{
			Tiers:       []RateTier{{Hours: hours, Multiplier: c.FirstTierRate}},
			Description: fmt.Sprintf("First %sh (%s extra)", c.FirstTierHours, percentExtra(c.FirstTierRate)),
		}
	}

	return RateResult{
		Tiers: []RateTier{
			{Hours: c.FirstTierHours, Multiplier: c.FirstTierRate},
			{Hours: hours.Sub(c.FirstTierHours), Multiplier: c.AdditionalRate},
		},
		Description: fmt.Sprintf("Mixed rate (%s for first %sh, %s for additional)",
			percentExtra(c.FirstTierRate), c.FirstTierHours, percentExtra(c.AdditionalRate)),
	}
}

func percentExtra(multiplier decimal.Decimal) string {
	return multiplier.Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)).String() + "%"
}

// Hours is the total overtime covered by the tiers.
func (r RateResult) Hours() decimal.Decimal {
	total := decimal.Zero
	for _, t := range r.Tiers {
		total = total.Add(t.Hours)
	}
	return total
}

// WeightedHours is Σ hours × multiplier.
func (r RateResult) WeightedHours() decimal.Decimal {
	total := decimal.Zero
	for _, t := range r.Tiers {
		total = total.Add(t.Hours.Mul(t.Multiplier))
	}
	return total
}

// Pay reduces the tiers to a single amount for an externally supplied
// hourly rate. Rounded to cents.
func (r RateResult) Pay(hourlyRate decimal.Decimal) decimal.Decimal {
	return r.WeightedHours().Mul(hourlyRate).Round(2)
}

// BlendedMultiplier is the single multiplier that pays the same as the tiers.
func (r RateResult) BlendedMultiplier() decimal.Decimal {
	hours := r.Hours()
	if hours.IsZero() {
		return decimal.Zero
	}
	return r.WeightedHours().DivRound(hours, 4)
}

// NewOvertimeRecord derives the pending overtime row for an attendance record.
func NewOvertimeRecord(rec *AttendanceRecord, rate RateResult) *OvertimeRecord {
	return &OvertimeRecord{
		TenantID:       rec.TenantID,
		EmployeeID:     rec.EmployeeID,
		AttendanceID:   rec.ID,
		Date:           rec.Date,
		Hours:          rate.Hours(),
		RateMultiplier: rate.BlendedMultiplier(),
		Tiers:          rate.Tiers,
		Status:         OvertimePending,
		Notes:          rate.Description,
		CreatedAt:      time.Now().UTC(),
	}
}

package labor

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// TIME ACCOUNTING - Clock events to hour buckets
// =============================================================================

// ErrNotComputable is returned when hours are requested without both clock
// events. Callers skip the computation; it is not a data-entry failure.
var ErrNotComputable = fmt.Errorf("%w: clock-in and clock-out are both required", generic.ErrValidation)

// ClockEvents are the raw inputs of one attendance day. Break times are
// optional and only count when both are present.
type ClockEvents struct {
	ClockIn    *time.Time
	ClockOut   *time.Time
	BreakStart *time.Time
	BreakEnd   *time.Time
}

// HoursBreakdown is the derived value object: Total == Regular + Overtime
// exactly, and Regular never exceeds the daily cap.
type HoursBreakdown struct {
	Total    decimal.Decimal
	Regular  decimal.Decimal
	Overtime decimal.Decimal
}

// ComputeHours converts clock events into total/regular/overtime hours.
// The function is pure; writing the result onto a record is the caller's job
// (see AttendanceRecord.ApplyHours).
//
// A clock-out earlier than the clock-in is read as an overnight shift and
// rolled forward by whole days. The same applies to break end vs start.
func (c Code) ComputeHours(ev ClockEvents) (HoursBreakdown, error) {
	if ev.ClockIn == nil || ev.ClockOut == nil {
		return HoursBreakdown{}, ErrNotComputable
	}

	in := *ev.ClockIn
	out := rollForward(in, *ev.ClockOut)
	minutes := wholeMinutes(out.Sub(in))

	if ev.BreakStart != nil && ev.BreakEnd != nil {
		start := *ev.BreakStart
		end := rollForward(start, *ev.BreakEnd)
		minutes -= wholeMinutes(end.Sub(start))
	}

	if minutes < 0 {
		return HoursBreakdown{}, &generic.ValidationError{
			Field:   "break_end",
			Message: "break is longer than the shift",
		}
	}

	return c.SplitHours(minutesToHours(minutes)), nil
}

// SplitHours applies the daily regular cap to a total.
func (c Code) SplitHours(total decimal.Decimal) HoursBreakdown {
	if total.LessThanOrEqual(c.DailyRegularHours) {
		return HoursBreakdown{Total: total, Regular: total, Overtime: decimal.Zero}
	}
	return HoursBreakdown{
		Total:    total,
		Regular:  c.DailyRegularHours,
		Overtime: total.Sub(c.DailyRegularHours),
	}
}

// BreakCompliant reports whether a shift longer than BreakRequiredAfter
// carries a break of at least MinBreak. Shifts that cannot be computed pass.
func (c Code) BreakCompliant(ev ClockEvents) bool {
	if ev.ClockIn == nil || ev.ClockOut == nil {
		return true
	}
	in := *ev.ClockIn
	worked := rollForward(in, *ev.ClockOut).Sub(in)

	var brk time.Duration
	if ev.BreakStart != nil && ev.BreakEnd != nil {
		brk = rollForward(*ev.BreakStart, *ev.BreakEnd).Sub(*ev.BreakStart)
		worked -= brk
	}

	if worked <= c.BreakRequiredAfter {
		return true
	}
	return brk >= c.MinBreak
}

// rollForward moves t forward by whole days until it is not before ref.
func rollForward(ref, t time.Time) time.Time {
	for t.Before(ref) {
		t = t.Add(24 * time.Hour)
	}
	return t
}

// wholeMinutes truncates a duration to whole minutes.
func wholeMinutes(d time.Duration) int64 {
	return int64(d / time.Minute)
}

// minutesToHours rounds minutes/60 half away from zero to 2 places.
func minutesToHours(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).DivRound(decimal.NewFromInt(60), 2)
}

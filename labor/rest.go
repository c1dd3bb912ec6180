package labor

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/labor-engine/generic"
)

// RestWarning is appended to an attendance record's notes when the rest
// check fails during ingestion.
const RestWarning = "Warning: less than the statutory daily rest between shifts"

// =============================================================================
// REST PERIOD VALIDATOR
// =============================================================================

// RestValidator checks the minimum gap between the end of the previous shift
// and the start of the current one.
type RestValidator struct {
	Code       Code
	Attendance AttendanceStore
}

func NewRestValidator(code Code, attendance AttendanceStore) *RestValidator {
	return &RestValidator{Code: code, Attendance: attendance}
}

// HasAdequateRest looks up the employee's most recent earlier shift with a
// clock-out and compares the gap with the statutory minimum.
func (v *RestValidator) HasAdequateRest(ctx context.Context, tenant generic.TenantID, rec *AttendanceRecord) (bool, error) {
	if rec.ClockOut == nil {
		return true, nil
	}
	prev, err := v.Attendance.PreviousAttendance(ctx, tenant, rec.EmployeeID, rec.Date)
	if err != nil {
		return false, fmt.Errorf("previous attendance for %s before %s: %w", rec.EmployeeID, rec.Date, err)
	}
	return v.Code.AdequateRest(prev, rec), nil
}

// AdequateRest is the pure form of the rest check. A missing previous shift,
// or a side without the needed timestamp, passes.
func (c Code) AdequateRest(previous, current *AttendanceRecord) bool {
	if current == nil || current.ClockOut == nil || current.ClockIn == nil {
		return true
	}
	if previous == nil || previous.ClockOut == nil {
		return true
	}
	return RestGap(ShiftEnd(previous), *current.ClockIn) >= c.MinDailyRest
}

// ShiftEnd is the effective clock-out of a record. A clock-out earlier than
// the clock-in belongs to the next day, as in ComputeHours.
func ShiftEnd(rec *AttendanceRecord) time.Time {
	if rec.ClockIn == nil {
		return *rec.ClockOut
	}
	return rollForward(*rec.ClockIn, *rec.ClockOut)
}

// RestGap is the time between the previous clock-out and the current clock-in.
func RestGap(previousOut, currentIn time.Time) time.Duration {
	return currentIn.Sub(previousOut)
}

// Package labor implements the labor-compliance calculation engine.
// It turns clock events into hour buckets, checks statutory rest and weekly
// limits, prices overtime, computes the holiday calendar and derives leave
// entitlements. It never persists anything itself; callers hand it records
// read from a Store and write the results back.
package labor

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is read-only reference data owned by the organization.
type Employee struct {
	ID            generic.EmployeeID
	TenantID      generic.TenantID
	Name          string
	DeviceUserID  string // identifier used by the clocking device
	HireDate      generic.TimePoint
	WeeklyHourCap decimal.Decimal
	ScheduleID    string
}

// ValidateEmployee checks the fields the engine depends on.
func (c Code) ValidateEmployee(e Employee) error {
	if e.ID == "" {
		return &generic.ValidationError{Field: "id", Message: "required"}
	}
	if e.HireDate.IsZero() {
		return &generic.ValidationError{Field: "hire_date", Message: "required"}
	}
	if e.WeeklyHourCap.GreaterThan(c.WeeklyRegularHours) {
		return &generic.ValidationError{
			Field:   "weekly_hour_cap",
			Message: fmt.Sprintf("%s exceeds legal limit of %s", e.WeeklyHourCap, c.WeeklyRegularHours),
		}
	}
	return nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

type AttendanceStatus string

const (
	StatusPresent        AttendanceStatus = "present"
	StatusAbsent         AttendanceStatus = "absent"
	StatusLate           AttendanceStatus = "late"
	StatusEarlyDeparture AttendanceStatus = "early_departure"
)

// AttendanceRecord is one employee-day. At most one exists per
// (tenant, employee, date); the store enforces it.
type AttendanceRecord struct {
	ID         string
	TenantID   generic.TenantID
	EmployeeID generic.EmployeeID
	Date       generic.TimePoint

	ClockIn    *time.Time
	ClockOut   *time.Time
	BreakStart *time.Time
	BreakEnd   *time.Time

	// Derived by ComputeHours; never edited by hand once both clocks exist.
	TotalHours    decimal.Decimal
	RegularHours  decimal.Decimal
	OvertimeHours decimal.Decimal

	Status   AttendanceStatus
	Notes    string
	DeviceID string
	SyncedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClockEvents extracts the raw inputs of TimeAccounting.
func (r *AttendanceRecord) ClockEvents() ClockEvents {
	return ClockEvents{
		ClockIn:    r.ClockIn,
		ClockOut:   r.ClockOut,
		BreakStart: r.BreakStart,
		BreakEnd:   r.BreakEnd,
	}
}

// ApplyHours overwrites the derived hour fields.
func (r *AttendanceRecord) ApplyHours(h HoursBreakdown) {
	r.TotalHours = h.Total
	r.RegularHours = h.Regular
	r.OvertimeHours = h.Overtime
}

// AppendNote adds a line to Notes unless the exact line is already there.
func (r *AttendanceRecord) AppendNote(note string) {
	if r.Notes == "" {
		r.Notes = note
		return
	}
	for _, line := range strings.Split(r.Notes, "\n") {
		if line == note {
			return
		}
	}
	r.Notes += "\n" + note
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// LeaveRequest is created by a request action; its status transitions are
// decided outside the engine.
type LeaveRequest struct {
	ID             string
	TenantID       generic.TenantID
	EmployeeID     generic.EmployeeID
	Type           LeaveCode
	StartDate      generic.TimePoint
	EndDate        generic.TimePoint
	DaysRequested  int
	// DaysOverridden marks a day count set manually by an approver; Prepare
	// leaves it alone.
	DaysOverridden bool
	Status         LeaveStatus
	Reason         string
	ApprovedBy     string
	ApprovedAt     *time.Time
	CreatedAt      time.Time
}

// =============================================================================
// OVERTIME RECORD
// =============================================================================

type OvertimeStatus string

const (
	OvertimePending  OvertimeStatus = "pending"
	OvertimeApproved OvertimeStatus = "approved"
	OvertimeRejected OvertimeStatus = "rejected"
	OvertimePaid     OvertimeStatus = "paid"
)

// OvertimeRecord is created whenever an attendance record yields overtime.
type OvertimeRecord struct {
	ID             string
	TenantID       generic.TenantID
	EmployeeID     generic.EmployeeID
	AttendanceID   string
	Date           generic.TimePoint
	Hours          decimal.Decimal
	RateMultiplier decimal.Decimal
	Tiers          []RateTier
	Status         OvertimeStatus
	Notes          string
	CreatedAt      time.Time
}

// =============================================================================
// WORK SCHEDULE
// =============================================================================

// DaySchedule is the expected start/end for one weekday, "HH:MM".
type DaySchedule struct {
	Start string
	End   string
}

// WorkSchedule is reference data consulted for expected-hours comparisons.
type WorkSchedule struct {
	ID           string
	TenantID     generic.TenantID
	Name         string
	Days         map[time.Weekday]DaySchedule
	BreakMinutes int
	WeeklyHours  decimal.Decimal
}

// ExpectedHours returns the scheduled working hours for a weekday, net of
// the break. Days without a schedule return zero and false.
func (s WorkSchedule) ExpectedHours(day time.Weekday) (decimal.Decimal, bool, error) {
	d, ok := s.Days[day]
	if !ok || d.Start == "" || d.End == "" {
		return decimal.Zero, false, nil
	}
	start, err := time.Parse("15:04", d.Start)
	if err != nil {
		return decimal.Zero, false, &generic.ValidationError{Field: "start", Message: err.Error()}
	}
	end, err := time.Parse("15:04", d.End)
	if err != nil {
		return decimal.Zero, false, &generic.ValidationError{Field: "end", Message: err.Error()}
	}
	if end.Before(start) {
		end = end.Add(24 * time.Hour)
	}
	minutes := int64(end.Sub(start)/time.Minute) - int64(s.BreakMinutes)
	if minutes < 0 {
		minutes = 0
	}
	return minutesToHours(minutes), true, nil
}

// ValidateWeeklyHours reports whether the schedule stays within the weekly cap.
func (c Code) ValidateWeeklyHours(s WorkSchedule) bool {
	return s.WeeklyHours.LessThanOrEqual(c.WeeklyRegularHours)
}

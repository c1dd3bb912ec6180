package labor

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// COMPLIANCE AUDITOR - Weekly rule check per employee
// =============================================================================

type ViolationType string

const (
	ViolationWeeklyHours      ViolationType = "weekly_hours_exceeded"
	ViolationDailyHours       ViolationType = "daily_hours_exceeded"
	ViolationInsufficientRest ViolationType = "insufficient_rest"
	ViolationMissingBreak     ViolationType = "missing_break"
)

type Severity string

const (
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Violation is a finding, not an error. It never blocks the attendance
// write it was derived from.
type Violation struct {
	Type     ViolationType      `json:"type"`
	Date     *generic.TimePoint `json:"date,omitempty"`
	Message  string             `json:"message"`
	Severity Severity           `json:"severity"`
}

type ComplianceReport struct {
	EmployeeID    generic.EmployeeID `json:"employee_id"`
	WeekStart     generic.TimePoint  `json:"week_start"`
	WeekEnd       generic.TimePoint  `json:"week_end"`
	IsCompliant   bool               `json:"is_compliant"`
	TotalHours    decimal.Decimal    `json:"total_hours"`
	RegularHours  decimal.Decimal    `json:"regular_hours"`
	OvertimeHours decimal.Decimal    `json:"overtime_hours"`
	ExpectedHours *decimal.Decimal   `json:"expected_hours,omitempty"`
	Violations    []Violation        `json:"violations"`
}

type Auditor struct {
	Code       Code
	Attendance AttendanceStore
	Rest       *RestValidator

	// Schedules is optional. When set, the report carries the scheduled
	// hours of the week for comparison.
	Schedules ScheduleStore
}

func NewAuditor(code Code, attendance AttendanceStore, schedules ScheduleStore) *Auditor {
	return &Auditor{
		Code:       code,
		Attendance: attendance,
		Rest:       NewRestValidator(code, attendance),
		Schedules:  schedules,
	}
}

// AuditWeek gathers the employee's records in [weekStart, weekStart+6],
// sums the hour buckets and evaluates every rule. Rules do not
// short-circuit; all findings are collected.
func (a *Auditor) AuditWeek(ctx context.Context, tenant generic.TenantID, emp Employee, weekStart generic.TimePoint) (ComplianceReport, error) {
	week := generic.WeekFrom(weekStart)

	records, err := a.Attendance.AttendanceInRange(ctx, tenant, emp.ID, week)
	if err != nil {
		return ComplianceReport{}, fmt.Errorf("attendance for %s in %s: %w", emp.ID, week, err)
	}

	report := ComplianceReport{
		EmployeeID:    emp.ID,
		WeekStart:     week.Start,
		WeekEnd:       week.End,
		TotalHours:    decimal.Zero,
		RegularHours:  decimal.Zero,
		OvertimeHours: decimal.Zero,
		Violations:    []Violation{},
	}

	for _, r := range records {
		report.TotalHours = report.TotalHours.Add(r.TotalHours)
		report.RegularHours = report.RegularHours.Add(r.RegularHours)
		report.OvertimeHours = report.OvertimeHours.Add(r.OvertimeHours)
	}

	if report.RegularHours.GreaterThan(a.Code.WeeklyRegularHours) {
		report.Violations = append(report.Violations, Violation{
			Type:     ViolationWeeklyHours,
			Message:  fmt.Sprintf("Weekly regular hours (%s) exceed limit of %s", report.RegularHours, a.Code.WeeklyRegularHours),
			Severity: SeverityHigh,
		})
	}

	for i := range records {
		r := &records[i]
		date := r.Date

		if r.RegularHours.GreaterThan(a.Code.DailyRegularHours) {
			report.Violations = append(report.Violations, Violation{
				Type:     ViolationDailyHours,
				Date:     &date,
				Message:  fmt.Sprintf("Daily regular hours (%s) exceed limit of %s on %s", r.RegularHours, a.Code.DailyRegularHours, date),
				Severity: SeverityHigh,
			})
		}

		ok, err := a.Rest.HasAdequateRest(ctx, tenant, r)
		if err != nil {
			return ComplianceReport{}, err
		}
		if !ok {
			report.Violations = append(report.Violations, Violation{
				Type:     ViolationInsufficientRest,
				Date:     &date,
				Message:  fmt.Sprintf("Less than %s rest before the shift on %s", formatRest(a.Code), date),
				Severity: SeverityCritical,
			})
		}

		if a.Code.EnforceBreaks && !a.Code.BreakCompliant(r.ClockEvents()) {
			report.Violations = append(report.Violations, Violation{
				Type:     ViolationMissingBreak,
				Date:     &date,
				Message:  fmt.Sprintf("Shift on %s longer than %s without a %s break", date, a.Code.BreakRequiredAfter, a.Code.MinBreak),
				Severity: SeverityMedium,
			})
		}
	}

	expected, err := a.expectedHours(ctx, tenant, emp, week)
	if err != nil {
		return ComplianceReport{}, err
	}
	report.ExpectedHours = expected

	report.IsCompliant = len(report.Violations) == 0
	return report, nil
}

// expectedHours sums the scheduled hours of every day in the week. Nil when
// the employee has no schedule or no schedule store is configured.
func (a *Auditor) expectedHours(ctx context.Context, tenant generic.TenantID, emp Employee, week generic.Period) (*decimal.Decimal, error) {
	if a.Schedules == nil || emp.ScheduleID == "" {
		return nil, nil
	}
	sched, err := a.Schedules.GetWorkSchedule(ctx, tenant, emp.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("work schedule %s: %w", emp.ScheduleID, err)
	}
	if sched == nil {
		return nil, nil
	}

	total := decimal.Zero
	for _, day := range week.Days() {
		h, ok, err := sched.ExpectedHours(day.Weekday())
		if err != nil {
			return nil, fmt.Errorf("work schedule %s: %w", emp.ScheduleID, err)
		}
		if ok {
			total = total.Add(h)
		}
	}
	return &total, nil
}

func formatRest(c Code) string {
	return decimal.NewFromFloat(c.MinDailyRest.Hours()).String() + "h"
}

package labor_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
	"github.com/warp/labor-engine/store/memory"
)

// shift saves a computed attendance record for e1 on 2024-03-<day>.
func shift(t *testing.T, store *memory.Memory, code labor.Code, day, inHour, inMin, outHour, outMin int) {
	t.Helper()
	rec := &labor.AttendanceRecord{
		TenantID:   "acme",
		EmployeeID: "e1",
		Date:       generic.NewTimePoint(2024, time.March, day),
		ClockIn:    at(2024, time.March, day, inHour, inMin),
		ClockOut:   at(2024, time.March, day, outHour, outMin),
		Status:     labor.StatusPresent,
	}
	h, err := code.ComputeHours(rec.ClockEvents())
	require.NoError(t, err)
	rec.ApplyHours(h)
	require.NoError(t, store.SaveAttendance(context.Background(), rec))
}

func violationTypes(report labor.ComplianceReport) []labor.ViolationType {
	var types []labor.ViolationType
	for _, v := range report.Violations {
		types = append(types, v.Type)
	}
	return types
}

func TestAuditWeek_Compliant(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	code := labor.PortugueseCode()
	emp := labor.Employee{ID: "e1", TenantID: "acme"}

	// Mon 2024-03-04 .. Fri 03-08, 09:00-17:00
	for day := 4; day <= 8; day++ {
		shift(t, store, code, day, 9, 0, 17, 0)
	}

	report, err := labor.NewAuditor(code, store, nil).AuditWeek(ctx, "acme", emp, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)

	assert.True(t, report.IsCompliant)
	assert.Empty(t, report.Violations)
	assert.Equal(t, "2024-03-10", report.WeekEnd.String())
	assertDecimal(t, "40", report.TotalHours)
	assertDecimal(t, "40", report.RegularHours)
	assertDecimal(t, "0", report.OvertimeHours)
	assert.Nil(t, report.ExpectedHours)
}

func TestAuditWeek_CollectsEveryViolation(t *testing.T) {
	// GIVEN: Six 8h+ days and a short rest between Tue and Wed
	// WHEN: Auditing the week
	// THEN: Weekly cap and rest violations are both reported

	ctx := context.Background()
	store := memory.New()
	code := labor.PortugueseCode()
	emp := labor.Employee{ID: "e1", TenantID: "acme"}

	shift(t, store, code, 4, 9, 0, 18, 0)  // Mon 9h
	shift(t, store, code, 5, 12, 0, 22, 0) // Tue 10h, ends 22:00
	shift(t, store, code, 6, 7, 0, 16, 0)  // Wed starts 07:00 -> 9h rest
	shift(t, store, code, 7, 9, 0, 17, 0)
	shift(t, store, code, 8, 9, 0, 17, 0)
	shift(t, store, code, 9, 9, 0, 17, 0) // Sat

	report, err := labor.NewAuditor(code, store, nil).AuditWeek(ctx, "acme", emp, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)

	assert.False(t, report.IsCompliant)
	assertDecimal(t, "52", report.TotalHours)
	assertDecimal(t, "48", report.RegularHours)
	assertDecimal(t, "4", report.OvertimeHours)

	types := violationTypes(report)
	assert.Contains(t, types, labor.ViolationWeeklyHours)
	assert.Contains(t, types, labor.ViolationInsufficientRest)
	assert.NotContains(t, types, labor.ViolationDailyHours, "regular is capped at 8 by time accounting")

	for _, v := range report.Violations {
		switch v.Type {
		case labor.ViolationWeeklyHours:
			assert.Equal(t, labor.SeverityHigh, v.Severity)
			assert.Nil(t, v.Date)
		case labor.ViolationInsufficientRest:
			assert.Equal(t, labor.SeverityCritical, v.Severity)
			require.NotNil(t, v.Date)
			assert.Equal(t, "2024-03-06", v.Date.String())
		}
	}
}

func TestAuditWeek_RestAfterNightShift(t *testing.T) {
	// GIVEN: A Tue night shift 22:00-06:00 stored with the clock-out time
	//        only, then a Wed shift starting 10:00
	// WHEN: Auditing the week
	// THEN: The 4h rest after the rolled-over clock-out is a violation

	ctx := context.Background()
	store := memory.New()
	code := labor.PortugueseCode()
	emp := labor.Employee{ID: "e1", TenantID: "acme"}

	shift(t, store, code, 5, 22, 0, 6, 0)
	shift(t, store, code, 6, 10, 0, 18, 0)

	report, err := labor.NewAuditor(code, store, nil).AuditWeek(ctx, "acme", emp, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)

	assert.False(t, report.IsCompliant)
	assert.Equal(t, []labor.ViolationType{labor.ViolationInsufficientRest}, violationTypes(report))
	require.NotNil(t, report.Violations[0].Date)
	assert.Equal(t, "2024-03-06", report.Violations[0].Date.String())
	assertDecimal(t, "16", report.TotalHours)
}

func TestAuditWeek_DailyHoursOnHandEditedRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	code := labor.PortugueseCode()

	require.NoError(t, store.SaveAttendance(ctx, &labor.AttendanceRecord{
		TenantID: "acme", EmployeeID: "e1", Date: generic.NewTimePoint(2024, 3, 5),
		TotalHours: dec("9"), RegularHours: dec("9"), OvertimeHours: dec("0"),
	}))

	report, err := labor.NewAuditor(code, store, nil).AuditWeek(ctx, "acme", labor.Employee{ID: "e1"}, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)

	require.Len(t, report.Violations, 1)
	assert.Equal(t, labor.ViolationDailyHours, report.Violations[0].Type)
	assert.Equal(t, "2024-03-05", report.Violations[0].Date.String())
}

func TestAuditWeek_MissingBreakIsOptIn(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	code := labor.PortugueseCode()
	shift(t, store, code, 4, 9, 0, 17, 0) // no break recorded

	report, err := labor.NewAuditor(code, store, nil).AuditWeek(ctx, "acme", labor.Employee{ID: "e1"}, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)
	assert.True(t, report.IsCompliant)

	code.EnforceBreaks = true
	report, err = labor.NewAuditor(code, store, nil).AuditWeek(ctx, "acme", labor.Employee{ID: "e1"}, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, labor.ViolationMissingBreak, report.Violations[0].Type)
	assert.Equal(t, labor.SeverityMedium, report.Violations[0].Severity)
}

func TestAuditWeek_ExpectedHoursFromSchedule(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.SaveWorkSchedule(ctx, labor.WorkSchedule{
		ID: "std", TenantID: "acme", Name: "Standard",
		Days: map[time.Weekday]labor.DaySchedule{
			time.Monday:    {Start: "09:00", End: "18:00"},
			time.Tuesday:   {Start: "09:00", End: "18:00"},
			time.Wednesday: {Start: "09:00", End: "18:00"},
			time.Thursday:  {Start: "09:00", End: "18:00"},
			time.Friday:    {Start: "09:00", End: "18:00"},
		},
		BreakMinutes: 60,
		WeeklyHours:  dec("40"),
	}))

	emp := labor.Employee{ID: "e1", TenantID: "acme", ScheduleID: "std"}
	report, err := labor.NewAuditor(labor.PortugueseCode(), store, store).AuditWeek(ctx, "acme", emp, generic.NewTimePoint(2024, 3, 4))
	require.NoError(t, err)

	require.NotNil(t, report.ExpectedHours)
	assertDecimal(t, "40", *report.ExpectedHours)
	assert.True(t, report.IsCompliant)
}

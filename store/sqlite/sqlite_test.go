package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func clock(day, hour, min int) *time.Time {
	t := time.Date(2024, 3, day, hour, min, 0, 0, time.UTC)
	return &t
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_TenantScoped(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "e1", TenantID: "acme", Name: "Ana", DeviceUserID: "101",
		HireDate: generic.NewTimePoint(2022, 1, 10), WeeklyHourCap: decimal.NewFromInt(40), ScheduleID: "std",
	}))
	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{
		ID: "e1", TenantID: "globex", Name: "Eva", DeviceUserID: "101", HireDate: generic.NewTimePoint(2020, 5, 1),
	}))

	emp, err := store.FindEmployeeByDevice(ctx, "acme", "101")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "Ana", emp.Name)
	assert.Equal(t, "2022-01-10", emp.HireDate.String())
	assert.Equal(t, "40", emp.WeeklyHourCap.String())
	assert.Equal(t, "std", emp.ScheduleID)

	emp, err = store.GetEmployee(ctx, "globex", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Eva", emp.Name)

	emp, err = store.FindEmployeeByDevice(ctx, "initech", "101")
	require.NoError(t, err)
	assert.Nil(t, emp)

	list, err := store.ListEmployees(ctx, "acme")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEmployees_DeviceUserUniquePerTenant(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveEmployee(ctx, labor.Employee{ID: "e1", TenantID: "acme", Name: "Ana", DeviceUserID: "101", HireDate: generic.NewTimePoint(2022, 1, 10)}))
	err := store.SaveEmployee(ctx, labor.Employee{ID: "e2", TenantID: "acme", Name: "Rui", DeviceUserID: "101", HireDate: generic.NewTimePoint(2022, 1, 10)})
	assert.ErrorIs(t, err, generic.ErrDuplicateRecord)
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func TestSaveAttendance_UpsertsOnEmployeeDay(t *testing.T) {
	// GIVEN: A record with only a clock-in
	// WHEN: Saving it again for the same day with a clock-out and hours
	// THEN: The same row is updated; ID and created_at are kept

	ctx := context.Background()
	store := newTestStore(t)
	day := generic.NewTimePoint(2024, 3, 4)

	first := &labor.AttendanceRecord{TenantID: "acme", EmployeeID: "e1", Date: day, ClockIn: clock(4, 9, 0), DeviceID: "DEV1"}
	require.NoError(t, store.SaveAttendance(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &labor.AttendanceRecord{TenantID: "acme", EmployeeID: "e1", Date: day, ClockIn: clock(4, 9, 0), ClockOut: clock(4, 19, 30), Notes: "late"}
	second.ApplyHours(labor.PortugueseCode().SplitHours(decimal.RequireFromString("10.5")))
	require.NoError(t, store.SaveAttendance(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := store.GetAttendance(ctx, "acme", "e1", day)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.True(t, got.ClockOut.Equal(*clock(4, 19, 30)))
	assert.Equal(t, "10.5", got.TotalHours.String())
	assert.Equal(t, "8", got.RegularHours.String())
	assert.Equal(t, "2.5", got.OvertimeHours.String())
	assert.Equal(t, labor.StatusPresent, got.Status)
	assert.Equal(t, "late", got.Notes)
	assert.Nil(t, got.BreakStart)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt))

	foreign := &labor.AttendanceRecord{ID: "other", TenantID: "acme", EmployeeID: "e1", Date: day}
	err = store.SaveAttendance(ctx, foreign)
	assert.True(t, errors.Is(err, generic.ErrDuplicateRecord))

	assert.Error(t, store.SaveAttendance(ctx, &labor.AttendanceRecord{TenantID: "acme", Date: day}))
}

func TestPreviousAttendance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, rec := range []*labor.AttendanceRecord{
		{TenantID: "acme", EmployeeID: "e1", Date: generic.NewTimePoint(2024, 3, 1), ClockIn: clock(1, 9, 0), ClockOut: clock(1, 17, 0)},
		{TenantID: "acme", EmployeeID: "e1", Date: generic.NewTimePoint(2024, 3, 4), ClockIn: clock(4, 9, 0), ClockOut: clock(4, 21, 0)},
		{TenantID: "acme", EmployeeID: "e1", Date: generic.NewTimePoint(2024, 3, 5), ClockIn: clock(5, 9, 0)},
		{TenantID: "globex", EmployeeID: "e1", Date: generic.NewTimePoint(2024, 3, 5), ClockIn: clock(5, 6, 0), ClockOut: clock(5, 23, 0)},
	} {
		require.NoError(t, store.SaveAttendance(ctx, rec))
	}

	prev, err := store.PreviousAttendance(ctx, "acme", "e1", generic.NewTimePoint(2024, 3, 6))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, "2024-03-04", prev.Date.String(), "records without clock-out are skipped")

	prev, err = store.PreviousAttendance(ctx, "acme", "e1", generic.NewTimePoint(2024, 3, 1))
	require.NoError(t, err)
	assert.Nil(t, prev)

	week, err := store.AttendanceInRange(ctx, "acme", "e1", generic.WeekFrom(generic.NewTimePoint(2024, 3, 4)))
	require.NoError(t, err)
	require.Len(t, week, 2)
	assert.Equal(t, "2024-03-04", week[0].Date.String())
	assert.Equal(t, "2024-03-05", week[1].Date.String())
}

// =============================================================================
// LEAVE
// =============================================================================

func TestApprovedLeaveDays(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, req := range []labor.LeaveRequest{
		{TenantID: "acme", EmployeeID: "e1", Type: labor.LeaveVacation, StartDate: generic.NewTimePoint(2024, 7, 1), EndDate: generic.NewTimePoint(2024, 7, 5), DaysRequested: 5, Status: labor.LeaveApproved},
		{TenantID: "acme", EmployeeID: "e1", Type: labor.LeaveVacation, StartDate: generic.NewTimePoint(2024, 12, 30), EndDate: generic.NewTimePoint(2025, 1, 3), DaysRequested: 4, Status: labor.LeaveApproved},
		{TenantID: "acme", EmployeeID: "e1", Type: labor.LeaveVacation, StartDate: generic.NewTimePoint(2024, 8, 1), EndDate: generic.NewTimePoint(2024, 8, 2), DaysRequested: 2},
		{TenantID: "acme", EmployeeID: "e1", Type: labor.LeaveSick, StartDate: generic.NewTimePoint(2024, 2, 1), EndDate: generic.NewTimePoint(2024, 2, 2), DaysRequested: 2, Status: labor.LeaveApproved},
		{TenantID: "acme", EmployeeID: "e1", Type: labor.LeaveVacation, StartDate: generic.NewTimePoint(2025, 2, 3), EndDate: generic.NewTimePoint(2025, 2, 3), DaysRequested: 1, Status: labor.LeaveApproved},
	} {
		require.NoError(t, store.SaveLeaveRequest(ctx, &req))
		assert.NotEmpty(t, req.ID)
	}

	days, err := store.ApprovedLeaveDays(ctx, "acme", "e1", labor.LeaveVacation, 2024)
	require.NoError(t, err)
	assert.Equal(t, 9, days, "approved vacation starting in 2024 only")

	days, err = store.ApprovedLeaveDays(ctx, "globex", "e1", labor.LeaveVacation, 2024)
	require.NoError(t, err)
	assert.Zero(t, days)
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_SeedIsIdempotentAndScoped(t *testing.T) {
	// GIVEN: National holidays seeded twice and one recurring company holiday
	// WHEN: Listing per tenant and year
	// THEN: No duplicates, the company holiday only shows for its tenant and
	//       is projected into every year

	ctx := context.Background()
	store := newTestStore(t)

	_, err := labor.SeedNationalHolidays(ctx, store, 2024)
	require.NoError(t, err)
	_, err = labor.SeedNationalHolidays(ctx, store, 2024)
	require.NoError(t, err)

	company := &generic.Holiday{CompanyID: "acme", Date: generic.NewTimePoint(2020, 9, 14), Name: "Company day", Recurring: true}
	require.NoError(t, store.SaveHoliday(ctx, company))
	firstID := company.ID
	again := &generic.Holiday{CompanyID: "acme", Date: generic.NewTimePoint(2020, 9, 14), Name: "Company day", Recurring: true}
	require.NoError(t, store.SaveHoliday(ctx, again))
	assert.Equal(t, firstID, again.ID)

	acme, err := store.HolidaysInYear(ctx, "acme", 2024)
	require.NoError(t, err)
	assert.Len(t, acme, 14)

	globex, err := store.HolidaysInYear(ctx, "globex", 2024)
	require.NoError(t, err)
	assert.Len(t, globex, 13)
	assert.True(t, globex[0].National)
	assert.Equal(t, "2024-01-01", globex[0].Date.String())

	later, err := store.HolidaysInYear(ctx, "acme", 2031)
	require.NoError(t, err)
	require.Len(t, later, 1)
	assert.Equal(t, "2031-09-14", later[0].Date.String())

	set, err := labor.LoadHolidaySet(ctx, store, "acme", generic.YearPeriod(2024))
	require.NoError(t, err)
	assert.True(t, set.IsHoliday(generic.NewTimePoint(2024, 4, 25)))
	assert.True(t, set.IsHoliday(generic.NewTimePoint(2024, 9, 14)))
}

// =============================================================================
// OVERTIME AND SCHEDULES
// =============================================================================

func TestOvertime_UpsertOnAttendance(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	code := labor.PortugueseCode()

	rec := &labor.AttendanceRecord{ID: "att-1", TenantID: "acme", EmployeeID: "e1", Date: generic.NewTimePoint(2024, 3, 4)}
	rec.ApplyHours(code.SplitHours(decimal.NewFromInt(11)))

	ot := labor.NewOvertimeRecord(rec, code.RateFor(rec.OvertimeHours, false))
	require.NoError(t, store.SaveOvertime(ctx, ot))
	require.NotEmpty(t, ot.ID)

	rec.ApplyHours(code.SplitHours(decimal.NewFromInt(9)))
	again := labor.NewOvertimeRecord(rec, code.RateFor(rec.OvertimeHours, false))
	again.Status = labor.OvertimeApproved
	require.NoError(t, store.SaveOvertime(ctx, again))
	assert.Equal(t, ot.ID, again.ID)

	got, err := store.OvertimeByAttendance(ctx, "acme", "att-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1", got.Hours.String())
	assert.Equal(t, "1.5", got.RateMultiplier.String())
	assert.Equal(t, labor.OvertimeApproved, got.Status)
	require.Len(t, got.Tiers, 1)
	assert.Equal(t, "1.5", got.Tiers[0].Multiplier.String())

	got, err = store.OvertimeByAttendance(ctx, "globex", "att-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Error(t, store.SaveOvertime(ctx, &labor.OvertimeRecord{TenantID: "acme"}))
}

func TestWorkSchedule_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ws := labor.WorkSchedule{
		ID: "std", TenantID: "acme", Name: "Standard",
		Days: map[time.Weekday]labor.DaySchedule{
			time.Monday: {Start: "09:00", End: "18:00"},
			time.Friday: {Start: "09:00", End: "15:00"},
		},
		BreakMinutes: 60,
		WeeklyHours:  decimal.NewFromInt(40),
	}
	require.NoError(t, store.SaveWorkSchedule(ctx, ws))

	got, err := store.GetWorkSchedule(ctx, "acme", "std")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ws.Days, got.Days)
	assert.Equal(t, 60, got.BreakMinutes)
	assert.Equal(t, "40", got.WeeklyHours.String())

	hours, ok, err := got.ExpectedHours(time.Monday)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "8", hours.String())

	missing, err := store.GetWorkSchedule(ctx, "globex", "std")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

/*
store.go - Record store contracts consumed by the engine

PURPOSE:
  The engine is a pure computation layer. Everything it reads or writes
  goes through these interfaces, owned by a data-access collaborator.

TENANT SCOPE:
  Every method takes the tenant explicitly. No implementation may filter
  by hidden session state. generic.GlobalTenant addresses national data.

MISSING ROWS:
  Single-row getters return (nil, nil) when nothing matches. Callers decide
  whether absence is an error (ingestion turns a missing employee into a
  *generic.NotFoundError).

UNIQUENESS:
  SaveAttendance upserts on (tenant, employee, date). This is what keeps
  PreviousAttendance deterministic under concurrent writers.

IMPLEMENTATIONS:
  - store/sqlite: SQLite
  - store/memory: In-memory for tests and dev
*/
package labor

import (
	"context"

	"github.com/warp/labor-engine/generic"
)

type EmployeeStore interface {
	GetEmployee(ctx context.Context, tenant generic.TenantID, id generic.EmployeeID) (*Employee, error)
	FindEmployeeByDevice(ctx context.Context, tenant generic.TenantID, deviceUserID string) (*Employee, error)
	ListEmployees(ctx context.Context, tenant generic.TenantID) ([]Employee, error)
}

type AttendanceStore interface {
	GetAttendance(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, date generic.TimePoint) (*AttendanceRecord, error)

	// AttendanceInRange returns records with date in [period.Start, period.End], by date.
	AttendanceInRange(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, period generic.Period) ([]AttendanceRecord, error)

	// PreviousAttendance returns the latest record strictly before the given
	// date that has a clock-out. Ties on date go to the most recently created.
	PreviousAttendance(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, before generic.TimePoint) (*AttendanceRecord, error)

	SaveAttendance(ctx context.Context, rec *AttendanceRecord) error
}

type LeaveStore interface {
	SaveLeaveRequest(ctx context.Context, req *LeaveRequest) error

	// ApprovedLeaveDays sums DaysRequested over approved requests of the
	// given type whose start date falls in year.
	ApprovedLeaveDays(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, code LeaveCode, year int) (int, error)
}

type HolidayStore interface {
	SaveHoliday(ctx context.Context, h *generic.Holiday) error

	// HolidaysInYear returns the tenant's holidays plus global ones for year.
	// Recurring holidays are returned with their date moved into year.
	HolidaysInYear(ctx context.Context, tenant generic.TenantID, year int) ([]generic.Holiday, error)
}

type OvertimeStore interface {
	SaveOvertime(ctx context.Context, rec *OvertimeRecord) error
	OvertimeByAttendance(ctx context.Context, tenant generic.TenantID, attendanceID string) (*OvertimeRecord, error)
}

type ScheduleStore interface {
	GetWorkSchedule(ctx context.Context, tenant generic.TenantID, id string) (*WorkSchedule, error)
}

// Store is the full record store.
type Store interface {
	EmployeeStore
	AttendanceStore
	LeaveStore
	HolidayStore
	OvertimeStore
	ScheduleStore
}

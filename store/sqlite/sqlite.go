/*
Package sqlite provides a SQLite-backed implementation of labor.Store.

PURPOSE:
  Persists employees, attendance, leave requests, holidays, overtime and
  work schedules. In production the same patterns apply to PostgreSQL,
  with only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  labor.EmployeeStore:   Employee lookup (by ID and device user ID)
  labor.AttendanceStore: One record per employee per day
  labor.LeaveStore:      Leave requests and approved-day totals
  labor.HolidayStore:    National (company_id = '') and tenant holidays
  labor.OvertimeStore:   One overtime row per attendance record
  labor.ScheduleStore:   Work schedules

TENANT SCOPE:
  Every table carries a tenant column and every query filters on it.
  Holidays use company_id = '' for national rows, which are visible to
  all tenants.

UNIQUENESS:
  - attendance(tenant_id, employee_id, date): at most one record per day.
    SaveAttendance is an upsert on this key, so concurrent writers for the
    same day converge on one row and PreviousAttendance stays deterministic.
  - holidays(company_id, date, name): reseeding is harmless.
  - overtime(attendance_id): recomputation replaces the row.

NUMBERS:
  Hours and multipliers are stored as decimal strings, never floats.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. The pool is capped at one open
  connection, so every statement runs serialized on it.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/labor.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - labor/store.go: Interface definitions
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

// Store implements labor.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ labor.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would get its own empty
	// database; a single connection keeps one.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		device_user_id TEXT,
		hire_date TEXT NOT NULL,
		weekly_hour_cap TEXT NOT NULL DEFAULT '40',
		schedule_id TEXT,
		created_at TEXT NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_employees_device
		ON employees(tenant_id, device_user_id) WHERE device_user_id IS NOT NULL;

	-- One attendance record per employee per calendar day
	CREATE TABLE IF NOT EXISTS attendance (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		date TEXT NOT NULL,
		clock_in TEXT,
		clock_out TEXT,
		break_start TEXT,
		break_end TEXT,
		total_hours TEXT NOT NULL DEFAULT '0',
		regular_hours TEXT NOT NULL DEFAULT '0',
		overtime_hours TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'present',
		notes TEXT,
		device_id TEXT,
		synced_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (tenant_id, employee_id, date)
	);

	-- Rest-period lookups walk backwards from a date (hot path)
	CREATE INDEX IF NOT EXISTS idx_attendance_employee_date
		ON attendance(tenant_id, employee_id, date DESC);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		days_requested INTEGER NOT NULL DEFAULT 0,
		days_overridden INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		reason TEXT,
		approved_by TEXT,
		approved_at TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_employee_type
		ON leave_requests(tenant_id, employee_id, leave_type, status);

	-- Holidays (company_id = '' for national holidays)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		national INTEGER NOT NULL DEFAULT 0,
		recurring INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		UNIQUE (company_id, date, name)
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_company_date
		ON holidays(company_id, date);

	CREATE TABLE IF NOT EXISTS overtime (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		attendance_id TEXT NOT NULL UNIQUE,
		date TEXT NOT NULL,
		hours TEXT NOT NULL,
		rate_multiplier TEXT NOT NULL,
		tiers_json TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS work_schedules (
		id TEXT NOT NULL,
		tenant_id TEXT NOT NULL,
		name TEXT NOT NULL,
		days_json TEXT NOT NULL,
		break_minutes INTEGER NOT NULL DEFAULT 0,
		weekly_hours TEXT NOT NULL,
		PRIMARY KEY (tenant_id, id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or updates an employee row.
func (s *Store) SaveEmployee(ctx context.Context, emp labor.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees (id, tenant_id, name, device_user_id, hire_date, weekly_hour_cap, schedule_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name = excluded.name,
			device_user_id = excluded.device_user_id,
			hire_date = excluded.hire_date,
			weekly_hour_cap = excluded.weekly_hour_cap,
			schedule_id = excluded.schedule_id
	`

	_, err := s.db.ExecContext(ctx, query,
		string(emp.ID), string(emp.TenantID), emp.Name,
		nullString(emp.DeviceUserID),
		emp.HireDate.String(),
		emp.WeeklyHourCap,
		nullString(emp.ScheduleID),
		time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: device user %s already mapped", generic.ErrDuplicateRecord, emp.DeviceUserID)
	}
	return err
}

const employeeColumns = `id, tenant_id, name, device_user_id, hire_date, weekly_hour_cap, schedule_id`

func (s *Store) GetEmployee(ctx context.Context, tenant generic.TenantID, id generic.EmployeeID) (*labor.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = ? AND id = ?`,
		string(tenant), string(id))
	return scanEmployee(row)
}

func (s *Store) FindEmployeeByDevice(ctx context.Context, tenant generic.TenantID, deviceUserID string) (*labor.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = ? AND device_user_id = ?`,
		string(tenant), deviceUserID)
	return scanEmployee(row)
}

func (s *Store) ListEmployees(ctx context.Context, tenant generic.TenantID) ([]labor.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE tenant_id = ? ORDER BY id`,
		string(tenant))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []labor.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *emp)
	}
	return employees, rows.Err()
}

func scanEmployee(row scanner) (*labor.Employee, error) {
	var (
		emp                      labor.Employee
		id, tenant, hireDate     string
		deviceUserID, scheduleID sql.NullString
	)
	err := row.Scan(&id, &tenant, &emp.Name, &deviceUserID, &hireDate, &emp.WeeklyHourCap, &scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	emp.ID = generic.EmployeeID(id)
	emp.TenantID = generic.TenantID(tenant)
	emp.DeviceUserID = deviceUserID.String
	emp.ScheduleID = scheduleID.String
	if emp.HireDate, err = generic.ParseDate(hireDate); err != nil {
		return nil, fmt.Errorf("employee %s hire_date: %w", id, err)
	}
	return &emp, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

const attendanceColumns = `id, tenant_id, employee_id, date, clock_in, clock_out, break_start, break_end,
	total_hours, regular_hours, overtime_hours, status, notes, device_id, synced_at, created_at, updated_at`

func (s *Store) GetAttendance(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, date generic.TimePoint) (*labor.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance WHERE tenant_id = ? AND employee_id = ? AND date = ?`,
		string(tenant), string(employeeID), date.String())
	return scanAttendance(row)
}

func (s *Store) AttendanceInRange(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, period generic.Period) ([]labor.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance
		WHERE tenant_id = ? AND employee_id = ? AND date >= ? AND date <= ?
		ORDER BY date ASC`,
		string(tenant), string(employeeID), period.Start.String(), period.End.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []labor.AttendanceRecord
	for rows.Next() {
		rec, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (s *Store) PreviousAttendance(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, before generic.TimePoint) (*labor.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+attendanceColumns+` FROM attendance
		WHERE tenant_id = ? AND employee_id = ? AND date < ? AND clock_out IS NOT NULL
		ORDER BY date DESC, created_at DESC
		LIMIT 1`,
		string(tenant), string(employeeID), before.String())
	return scanAttendance(row)
}

// SaveAttendance upserts on (tenant_id, employee_id, date). New rows get a
// generated ID; an existing row keeps its ID and created_at.
func (s *Store) SaveAttendance(ctx context.Context, rec *labor.AttendanceRecord) error {
	if rec.EmployeeID == "" || rec.Date.IsZero() {
		return &generic.ValidationError{Field: "attendance", Message: "employee and date are required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID, createdAt string
	err = tx.QueryRowContext(ctx,
		`SELECT id, created_at FROM attendance WHERE tenant_id = ? AND employee_id = ? AND date = ?`,
		string(rec.TenantID), string(rec.EmployeeID), rec.Date.String()).Scan(&existingID, &createdAt)

	now := time.Now().UTC()
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.CreatedAt = now
	case err != nil:
		return err
	default:
		if rec.ID != "" && rec.ID != existingID {
			return fmt.Errorf("%w: attendance for %s on %s", generic.ErrDuplicateRecord, rec.EmployeeID, rec.Date)
		}
		rec.ID = existingID
		rec.CreatedAt = parseTime(createdAt)
	}
	rec.UpdatedAt = now

	query := `
		INSERT INTO attendance (` + attendanceColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, employee_id, date) DO UPDATE SET
			clock_in = excluded.clock_in,
			clock_out = excluded.clock_out,
			break_start = excluded.break_start,
			break_end = excluded.break_end,
			total_hours = excluded.total_hours,
			regular_hours = excluded.regular_hours,
			overtime_hours = excluded.overtime_hours,
			status = excluded.status,
			notes = excluded.notes,
			device_id = excluded.device_id,
			synced_at = excluded.synced_at,
			updated_at = excluded.updated_at
	`
	status := rec.Status
	if status == "" {
		status = labor.StatusPresent
	}
	_, err = tx.ExecContext(ctx, query,
		rec.ID, string(rec.TenantID), string(rec.EmployeeID), rec.Date.String(),
		nullTime(rec.ClockIn), nullTime(rec.ClockOut), nullTime(rec.BreakStart), nullTime(rec.BreakEnd),
		rec.TotalHours, rec.RegularHours, rec.OvertimeHours,
		string(status), nullString(rec.Notes), nullString(rec.DeviceID), nullTime(rec.SyncedAt),
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: attendance for %s on %s", generic.ErrDuplicateRecord, rec.EmployeeID, rec.Date)
		}
		return err
	}
	return tx.Commit()
}

func scanAttendance(row scanner) (*labor.AttendanceRecord, error) {
	var (
		rec                                     labor.AttendanceRecord
		tenant, employeeID, date, status        string
		clockIn, clockOut, breakStart, breakEnd sql.NullString
		notes, deviceID, syncedAt               sql.NullString
		createdAt, updatedAt                    string
	)
	err := row.Scan(&rec.ID, &tenant, &employeeID, &date,
		&clockIn, &clockOut, &breakStart, &breakEnd,
		&rec.TotalHours, &rec.RegularHours, &rec.OvertimeHours,
		&status, &notes, &deviceID, &syncedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.TenantID = generic.TenantID(tenant)
	rec.EmployeeID = generic.EmployeeID(employeeID)
	if rec.Date, err = generic.ParseDate(date); err != nil {
		return nil, fmt.Errorf("attendance %s date: %w", rec.ID, err)
	}
	rec.ClockIn = parseNullTime(clockIn)
	rec.ClockOut = parseNullTime(clockOut)
	rec.BreakStart = parseNullTime(breakStart)
	rec.BreakEnd = parseNullTime(breakEnd)
	rec.Status = labor.AttendanceStatus(status)
	rec.Notes = notes.String
	rec.DeviceID = deviceID.String
	rec.SyncedAt = parseNullTime(syncedAt)
	rec.CreatedAt = parseTime(createdAt)
	rec.UpdatedAt = parseTime(updatedAt)
	return &rec, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (s *Store) SaveLeaveRequest(ctx context.Context, req *labor.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	if req.Status == "" {
		req.Status = labor.LeavePending
	}

	query := `
		INSERT INTO leave_requests (id, tenant_id, employee_id, leave_type, start_date, end_date,
			days_requested, days_overridden, status, reason, approved_by, approved_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			days_requested = excluded.days_requested,
			days_overridden = excluded.days_overridden,
			status = excluded.status,
			reason = excluded.reason,
			approved_by = excluded.approved_by,
			approved_at = excluded.approved_at
	`

	_, err := s.db.ExecContext(ctx, query,
		req.ID, string(req.TenantID), string(req.EmployeeID), string(req.Type),
		req.StartDate.String(), req.EndDate.String(),
		req.DaysRequested, req.DaysOverridden, string(req.Status),
		nullString(req.Reason), nullString(req.ApprovedBy), nullTime(req.ApprovedAt),
		req.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) ApprovedLeaveDays(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, code labor.LeaveCode, year int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(days_requested), 0) FROM leave_requests
		WHERE tenant_id = ? AND employee_id = ? AND leave_type = ? AND status = ?
		  AND substr(start_date, 1, 4) = ?`,
		string(tenant), string(employeeID), string(code), string(labor.LeaveApproved), fmt.Sprintf("%04d", year),
	).Scan(&total)
	return total, err
}

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// SaveHoliday upserts on (company_id, date, name).
func (s *Store) SaveHoliday(ctx context.Context, h *generic.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	query := `
		INSERT INTO holidays (id, company_id, date, name, national, recurring, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_id, date, name) DO UPDATE SET
			national = excluded.national,
			recurring = excluded.recurring
	`

	_, err := s.db.ExecContext(ctx, query,
		h.ID,
		string(h.CompanyID),
		h.Date.String(),
		h.Name,
		h.National,
		h.Recurring,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}

	return s.db.QueryRowContext(ctx,
		`SELECT id FROM holidays WHERE company_id = ? AND date = ? AND name = ?`,
		string(h.CompanyID), h.Date.String(), h.Name).Scan(&h.ID)
}

// HolidaysInYear returns tenant and national holidays for year. Recurring
// rows are projected into year.
func (s *Store) HolidaysInYear(ctx context.Context, tenant generic.TenantID, year int) ([]generic.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, company_id, date, name, national, recurring
		FROM holidays
		WHERE (company_id = ? OR company_id = '')
		  AND (recurring = 1 OR substr(date, 1, 4) = ?)
		ORDER BY date ASC, name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, string(tenant), fmt.Sprintf("%04d", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []generic.Holiday
	for rows.Next() {
		var (
			h                generic.Holiday
			company, dateStr string
		)
		if err := rows.Scan(&h.ID, &company, &dateStr, &h.Name, &h.National, &h.Recurring); err != nil {
			return nil, err
		}
		h.CompanyID = generic.TenantID(company)
		if h.Date, err = generic.ParseDate(dateStr); err != nil {
			return nil, fmt.Errorf("holiday %s date: %w", h.ID, err)
		}
		if h.Recurring {
			h.Date = generic.NewTimePoint(year, h.Date.Month(), h.Date.Day())
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

// =============================================================================
// OVERTIME
// =============================================================================

// SaveOvertime upserts on attendance_id.
func (s *Store) SaveOvertime(ctx context.Context, rec *labor.OvertimeRecord) error {
	if rec.AttendanceID == "" {
		return &generic.ValidationError{Field: "attendance_id", Message: "required"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	tiers, err := json.Marshal(rec.Tiers)
	if err != nil {
		return fmt.Errorf("encode overtime tiers: %w", err)
	}

	query := `
		INSERT INTO overtime (id, tenant_id, employee_id, attendance_id, date, hours, rate_multiplier,
			tiers_json, status, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(attendance_id) DO UPDATE SET
			hours = excluded.hours,
			rate_multiplier = excluded.rate_multiplier,
			tiers_json = excluded.tiers_json,
			status = excluded.status,
			notes = excluded.notes
	`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, string(rec.TenantID), string(rec.EmployeeID), rec.AttendanceID, rec.Date.String(),
		rec.Hours, rec.RateMultiplier, string(tiers), string(rec.Status), nullString(rec.Notes),
		rec.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}

	return s.db.QueryRowContext(ctx,
		`SELECT id FROM overtime WHERE attendance_id = ?`, rec.AttendanceID).Scan(&rec.ID)
}

func (s *Store) OvertimeByAttendance(ctx context.Context, tenant generic.TenantID, attendanceID string) (*labor.OvertimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		rec                                labor.OvertimeRecord
		tenantID, employeeID, date, status string
		tiers, notes                       sql.NullString
		createdAt                          string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, employee_id, attendance_id, date, hours, rate_multiplier,
			tiers_json, status, notes, created_at
		FROM overtime WHERE tenant_id = ? AND attendance_id = ?`,
		string(tenant), attendanceID,
	).Scan(&rec.ID, &tenantID, &employeeID, &rec.AttendanceID, &date, &rec.Hours, &rec.RateMultiplier,
		&tiers, &status, &notes, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.TenantID = generic.TenantID(tenantID)
	rec.EmployeeID = generic.EmployeeID(employeeID)
	if rec.Date, err = generic.ParseDate(date); err != nil {
		return nil, fmt.Errorf("overtime %s date: %w", rec.ID, err)
	}
	if tiers.Valid && tiers.String != "" {
		if err := json.Unmarshal([]byte(tiers.String), &rec.Tiers); err != nil {
			return nil, fmt.Errorf("decode overtime tiers: %w", err)
		}
	}
	rec.Status = labor.OvertimeStatus(status)
	rec.Notes = notes.String
	rec.CreatedAt = parseTime(createdAt)
	return &rec, nil
}

// =============================================================================
// WORK SCHEDULES
// =============================================================================

// scheduleDay is the stored shape of a DaySchedule, keyed by weekday name.
type scheduleDay struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (s *Store) SaveWorkSchedule(ctx context.Context, ws labor.WorkSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	days := make(map[string]scheduleDay, len(ws.Days))
	for wd, d := range ws.Days {
		days[strings.ToLower(wd.String())] = scheduleDay{Start: d.Start, End: d.End}
	}
	daysJSON, err := json.Marshal(days)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO work_schedules (id, tenant_id, name, days_json, break_minutes, weekly_hours)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(tenant_id, id) DO UPDATE SET
			name = excluded.name,
			days_json = excluded.days_json,
			break_minutes = excluded.break_minutes,
			weekly_hours = excluded.weekly_hours
	`
	_, err = s.db.ExecContext(ctx, query,
		ws.ID, string(ws.TenantID), ws.Name, string(daysJSON), ws.BreakMinutes, ws.WeeklyHours)
	return err
}

func (s *Store) GetWorkSchedule(ctx context.Context, tenant generic.TenantID, id string) (*labor.WorkSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		ws             labor.WorkSchedule
		tenantID, days string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, days_json, break_minutes, weekly_hours
		FROM work_schedules WHERE tenant_id = ? AND id = ?`,
		string(tenant), id,
	).Scan(&ws.ID, &tenantID, &ws.Name, &days, &ws.BreakMinutes, &ws.WeeklyHours)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ws.TenantID = generic.TenantID(tenantID)

	var stored map[string]scheduleDay
	if err := json.Unmarshal([]byte(days), &stored); err != nil {
		return nil, fmt.Errorf("decode schedule %s: %w", id, err)
	}
	ws.Days = make(map[time.Weekday]labor.DaySchedule, len(stored))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if d, ok := stored[strings.ToLower(wd.String())]; ok {
			ws.Days[wd] = labor.DaySchedule{Start: d.Start, End: d.End}
		}
	}
	return &ws, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339Nano), Valid: true}
}

func parseNullTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t := parseTime(ns.String)
	return &t
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}

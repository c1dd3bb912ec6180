// Package memory provides an in-memory labor.Store for tests and dev.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	employees  map[generic.TenantID]map[generic.EmployeeID]labor.Employee
	attendance map[dayKey]labor.AttendanceRecord
	leaves     []labor.LeaveRequest
	holidays   map[holidayKey]generic.Holiday
	overtime   map[string]labor.OvertimeRecord // by attendance ID
	schedules  map[generic.TenantID]map[string]labor.WorkSchedule

	now func() time.Time
}

type dayKey struct {
	Tenant     generic.TenantID
	EmployeeID generic.EmployeeID
	Date       string
}

type holidayKey struct {
	Tenant generic.TenantID
	Date   string
	Name   string
}

var _ labor.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		employees:  make(map[generic.TenantID]map[generic.EmployeeID]labor.Employee),
		attendance: make(map[dayKey]labor.AttendanceRecord),
		holidays:   make(map[holidayKey]generic.Holiday),
		overtime:   make(map[string]labor.OvertimeRecord),
		schedules:  make(map[generic.TenantID]map[string]labor.WorkSchedule),
		now:        time.Now,
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// SaveEmployee inserts or replaces an employee. Reference data is owned
// elsewhere; this exists for seeding tests and dev servers.
func (m *Memory) SaveEmployee(_ context.Context, e labor.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.employees[e.TenantID] == nil {
		m.employees[e.TenantID] = make(map[generic.EmployeeID]labor.Employee)
	}
	for id, other := range m.employees[e.TenantID] {
		if id != e.ID && e.DeviceUserID != "" && other.DeviceUserID == e.DeviceUserID {
			return fmt.Errorf("%w: device user %s already mapped", generic.ErrDuplicateRecord, e.DeviceUserID)
		}
	}
	m.employees[e.TenantID][e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, tenant generic.TenantID, id generic.EmployeeID) (*labor.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[tenant][id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) FindEmployeeByDevice(_ context.Context, tenant generic.TenantID, deviceUserID string) (*labor.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees[tenant] {
		if e.DeviceUserID != "" && e.DeviceUserID == deviceUserID {
			found := e
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListEmployees(_ context.Context, tenant generic.TenantID) ([]labor.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]labor.Employee, 0, len(m.employees[tenant]))
	for _, e := range m.employees[tenant] {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// ATTENDANCE
// =============================================================================

func (m *Memory) GetAttendance(_ context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, date generic.TimePoint) (*labor.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.attendance[dayKey{tenant, employeeID, date.String()}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *Memory) AttendanceInRange(_ context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, period generic.Period) ([]labor.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []labor.AttendanceRecord
	for k, rec := range m.attendance {
		if k.Tenant == tenant && k.EmployeeID == employeeID && period.Contains(rec.Date) {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) PreviousAttendance(_ context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, before generic.TimePoint) (*labor.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *labor.AttendanceRecord
	for k, rec := range m.attendance {
		if k.Tenant != tenant || k.EmployeeID != employeeID || rec.ClockOut == nil || !rec.Date.Before(before) {
			continue
		}
		if best == nil || rec.Date.After(best.Date) ||
			(rec.Date.Equal(best.Date) && rec.CreatedAt.After(best.CreatedAt)) {
			r := rec
			best = &r
		}
	}
	return best, nil
}

// SaveAttendance upserts on (tenant, employee, date) and assigns an ID to
// new records.
func (m *Memory) SaveAttendance(_ context.Context, rec *labor.AttendanceRecord) error {
	if rec.EmployeeID == "" || rec.Date.IsZero() {
		return &generic.ValidationError{Field: "attendance", Message: "employee and date are required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	k := dayKey{rec.TenantID, rec.EmployeeID, rec.Date.String()}
	now := m.now().UTC()
	if existing, ok := m.attendance[k]; ok {
		if rec.ID != "" && rec.ID != existing.ID {
			return fmt.Errorf("%w: attendance for %s on %s", generic.ErrDuplicateRecord, rec.EmployeeID, rec.Date)
		}
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
	} else {
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	m.attendance[k] = *rec
	return nil
}

// =============================================================================
// LEAVE
// =============================================================================

func (m *Memory) SaveLeaveRequest(_ context.Context, req *labor.LeaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = m.now().UTC()
	}
	for i := range m.leaves {
		if m.leaves[i].ID == req.ID {
			m.leaves[i] = *req
			return nil
		}
	}
	m.leaves = append(m.leaves, *req)
	return nil
}

func (m *Memory) ApprovedLeaveDays(_ context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, code labor.LeaveCode, year int) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, req := range m.leaves {
		if req.TenantID == tenant && req.EmployeeID == employeeID && req.Type == code &&
			req.Status == labor.LeaveApproved && req.StartDate.Year() == year {
			total += req.DaysRequested
		}
	}
	return total, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// SaveHoliday upserts on (tenant, date, name).
func (m *Memory) SaveHoliday(_ context.Context, h *generic.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := holidayKey{h.CompanyID, h.Date.String(), h.Name}
	if existing, ok := m.holidays[k]; ok {
		h.ID = existing.ID
	} else if h.ID == "" {
		h.ID = uuid.NewString()
	}
	m.holidays[k] = *h
	return nil
}

func (m *Memory) HolidaysInYear(_ context.Context, tenant generic.TenantID, year int) ([]generic.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []generic.Holiday
	for k, h := range m.holidays {
		if k.Tenant != tenant && k.Tenant != generic.GlobalTenant {
			continue
		}
		switch {
		case h.Recurring:
			h.Date = generic.NewTimePoint(year, h.Date.Month(), h.Date.Day())
			result = append(result, h)
		case h.Date.Year() == year:
			result = append(result, h)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// =============================================================================
// OVERTIME
// =============================================================================

// SaveOvertime upserts on the attendance ID.
func (m *Memory) SaveOvertime(_ context.Context, rec *labor.OvertimeRecord) error {
	if rec.AttendanceID == "" {
		return &generic.ValidationError{Field: "attendance_id", Message: "required"}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.overtime[rec.AttendanceID]; ok {
		rec.ID = existing.ID
	} else if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	m.overtime[rec.AttendanceID] = *rec
	return nil
}

func (m *Memory) OvertimeByAttendance(_ context.Context, tenant generic.TenantID, attendanceID string) (*labor.OvertimeRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.overtime[attendanceID]
	if !ok || rec.TenantID != tenant {
		return nil, nil
	}
	return &rec, nil
}

// =============================================================================
// SCHEDULES
// =============================================================================

func (m *Memory) SaveWorkSchedule(_ context.Context, s labor.WorkSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.schedules[s.TenantID] == nil {
		m.schedules[s.TenantID] = make(map[string]labor.WorkSchedule)
	}
	m.schedules[s.TenantID][s.ID] = s
	return nil
}

func (m *Memory) GetWorkSchedule(_ context.Context, tenant generic.TenantID, id string) (*labor.WorkSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[tenant][id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

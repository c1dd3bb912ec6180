/*
sync.go - Device clock-event ingestion

PURPOSE:
  Maps raw events from clocking devices onto attendance records and runs
  the derived computations once both clocks are known.

EVENT RULES:
  check_in   sets ClockIn only when it is still empty (first check-in wins)
  check_out  always overwrites ClockOut (last check-out wins)

  Events land on the record of their own local date, except a check-out
  on a day without a clock-in, or earlier than that day's clock-in: it
  closes the previous day's shift when that shift was clocked in at most
  Code.MaxShiftLength earlier.

  When both clocks exist:
    1. ComputeHours rewrites the hour buckets
    2. The rest check runs; a failure appends RestWarning to Notes and
       never rejects the write
    3. Overtime > 0 upserts a pending OvertimeRecord priced with the
       weekend/holiday rule of the injected calendar

BATCHES:
  IngestBatch isolates failures per event. An unknown device id or a
  store error is counted, logged and recorded; the remaining events
  are still processed.
*/
package labor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/warp/labor-engine/generic"
)

type EventType string

const (
	EventCheckIn  EventType = "check_in"
	EventCheckOut EventType = "check_out"
)

// DeviceEvent is one punch read from a clocking device.
type DeviceEvent struct {
	EmployeeDeviceID string    `json:"employee_device_id" validate:"required"`
	Timestamp        string    `json:"timestamp" validate:"required"`
	EventType        EventType `json:"event_type" validate:"required,oneof=check_in check_out"`
	DeviceID         string    `json:"device_id"`
}

// timestampLayouts are tried in order. Layouts without an offset are read
// in the ingestor's location.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp accepts ISO-8601 with or without offset, and the
// space-separated form some devices emit.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &generic.ValidationError{Field: "timestamp", Message: fmt.Sprintf("unrecognized timestamp %q", s)}
}

// SyncResult summarizes a batch. Errors holds one message per failed event.
type SyncResult struct {
	Success int      `json:"success"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors"`
}

// =============================================================================
// INGESTOR
// =============================================================================

type Ingestor struct {
	Code     Code
	Store    Store
	Calendar generic.HolidayCalendar
	Location *time.Location
	Logger   *slog.Logger

	now func() time.Time
}

func NewIngestor(code Code, store Store, calendar generic.HolidayCalendar, loc *time.Location, logger *slog.Logger) *Ingestor {
	if calendar == nil {
		calendar = generic.NoHolidays{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		Code:     code,
		Store:    store,
		Calendar: calendar,
		Location: loc,
		Logger:   logger,
		now:      time.Now,
	}
}

// Ingest applies one event and persists the resulting record.
func (in *Ingestor) Ingest(ctx context.Context, tenant generic.TenantID, ev DeviceEvent) (*AttendanceRecord, error) {
	if ev.EventType != EventCheckIn && ev.EventType != EventCheckOut {
		return nil, &generic.ValidationError{Field: "event_type", Message: fmt.Sprintf("unknown event type %q", ev.EventType)}
	}
	ts, err := ParseTimestamp(ev.Timestamp, in.Location)
	if err != nil {
		return nil, err
	}

	emp, err := in.Store.FindEmployeeByDevice(ctx, tenant, ev.EmployeeDeviceID)
	if err != nil {
		return nil, fmt.Errorf("find employee by device id %s: %w", ev.EmployeeDeviceID, err)
	}
	if emp == nil {
		return nil, &generic.NotFoundError{Kind: "employee", Key: "device user " + ev.EmployeeDeviceID}
	}

	date := generic.DateOf(ts.In(in.Location))
	rec, err := in.Store.GetAttendance(ctx, tenant, emp.ID, date)
	if err != nil {
		return nil, fmt.Errorf("attendance for %s on %s: %w", emp.ID, date, err)
	}
	if ev.EventType == EventCheckOut && (rec == nil || rec.ClockIn == nil || ts.Before(*rec.ClockIn)) {
		open, err := in.overnightShift(ctx, tenant, emp.ID, date, ts)
		if err != nil {
			return nil, err
		}
		if open != nil {
			rec, date = open, open.Date
		}
	}
	if rec == nil {
		rec = &AttendanceRecord{
			TenantID:   tenant,
			EmployeeID: emp.ID,
			Date:       date,
			Status:     StatusPresent,
		}
	}

	switch ev.EventType {
	case EventCheckIn:
		if rec.ClockIn == nil {
			rec.ClockIn = &ts
		}
	case EventCheckOut:
		rec.ClockOut = &ts
	}
	if ev.DeviceID != "" {
		rec.DeviceID = ev.DeviceID
	}
	synced := in.now().UTC()
	rec.SyncedAt = &synced

	var overtime *OvertimeRecord
	if rec.ClockIn != nil && rec.ClockOut != nil {
		hours, err := in.Code.ComputeHours(rec.ClockEvents())
		if err != nil {
			return nil, err
		}
		rec.ApplyHours(hours)

		rest := NewRestValidator(in.Code, in.Store)
		ok, err := rest.HasAdequateRest(ctx, tenant, rec)
		if err != nil {
			return nil, err
		}
		if !ok {
			rec.AppendNote(RestWarning)
			in.Logger.Warn("insufficient rest between shifts",
				"tenant", tenant, "employee_id", emp.ID, "date", date)
		}

		if hours.Overtime.IsPositive() {
			rate := in.Code.RateFor(hours.Overtime, NewWorkingDayCounter(in.Calendar).IsWeekendOrHoliday(date))
			overtime = NewOvertimeRecord(rec, rate)
		}
	}

	if err := in.Store.SaveAttendance(ctx, rec); err != nil {
		return nil, fmt.Errorf("save attendance for %s on %s: %w", emp.ID, date, err)
	}

	if overtime != nil {
		overtime.AttendanceID = rec.ID
		existing, err := in.Store.OvertimeByAttendance(ctx, tenant, rec.ID)
		if err != nil {
			return nil, fmt.Errorf("overtime for attendance %s: %w", rec.ID, err)
		}
		if existing != nil {
			overtime.ID = existing.ID
			overtime.CreatedAt = existing.CreatedAt
			if existing.Status != OvertimePending {
				// Already decided; only hours and pricing follow the clocks.
				overtime.Status = existing.Status
			}
		}
		if err := in.Store.SaveOvertime(ctx, overtime); err != nil {
			return nil, fmt.Errorf("save overtime for attendance %s: %w", rec.ID, err)
		}
	}

	return rec, nil
}

// overnightShift returns the previous day's record when a check-out at ts
// closes it: the clock-in is at most MaxShiftLength earlier, and the record
// has no clock-out yet or one already carried past its own date.
func (in *Ingestor) overnightShift(ctx context.Context, tenant generic.TenantID, employeeID generic.EmployeeID, date generic.TimePoint, ts time.Time) (*AttendanceRecord, error) {
	prev, err := in.Store.GetAttendance(ctx, tenant, employeeID, date.AddDays(-1))
	if err != nil {
		return nil, fmt.Errorf("attendance for %s on %s: %w", employeeID, date.AddDays(-1), err)
	}
	if prev == nil || prev.ClockIn == nil || !ts.After(*prev.ClockIn) || ts.Sub(*prev.ClockIn) > in.Code.MaxShiftLength {
		return nil, nil
	}
	if prev.ClockOut != nil && generic.DateOf(prev.ClockOut.In(in.Location)).Equal(prev.Date) {
		return nil, nil
	}
	return prev, nil
}

// IngestBatch processes events in order, one failure never stopping the rest.
func (in *Ingestor) IngestBatch(ctx context.Context, tenant generic.TenantID, events []DeviceEvent) SyncResult {
	result := SyncResult{Errors: []string{}}

	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			result.Failed += len(events) - i
			result.Errors = append(result.Errors, fmt.Sprintf("sync interrupted: %v", err))
			break
		}

		if _, err := in.Ingest(ctx, tenant, ev); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			in.Logger.Error("failed to process device event",
				"tenant", tenant,
				"employee_device_id", ev.EmployeeDeviceID,
				"timestamp", ev.Timestamp,
				"event_type", ev.EventType,
				"error", err)
			continue
		}
		result.Success++
	}

	in.Logger.Info("device sync finished",
		"tenant", tenant, "success", result.Success, "failed", result.Failed)
	return result
}

// DecodeEvents reads a JSON array of device events.
func DecodeEvents(data []byte) ([]DeviceEvent, error) {
	var events []DeviceEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, &generic.ValidationError{Field: "events", Message: err.Error()}
	}
	return events, nil
}

// EventSpan is the range of local dates a batch touches. Events with an
// unreadable timestamp are skipped; ok is false when none remain.
func EventSpan(events []DeviceEvent, loc *time.Location) (span generic.Period, ok bool) {
	if loc == nil {
		loc = time.UTC
	}
	for _, ev := range events {
		ts, err := ParseTimestamp(ev.Timestamp, loc)
		if err != nil {
			continue
		}
		d := generic.DateOf(ts.In(loc))
		switch {
		case !ok:
			span = generic.Period{Start: d, End: d}
			ok = true
		case d.Before(span.Start):
			span.Start = d
		case d.After(span.End):
			span.End = d
		}
	}
	return span, ok
}

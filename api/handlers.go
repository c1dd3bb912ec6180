/*
handlers.go - HTTP API handlers for the labor compliance engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization and validation, and delegates to the labor package.

ENDPOINTS:
  Tenant scoped (/api/tenants/{tenant}):
    POST   /sync/events                       Ingest device punches
    GET    /employees/{id}/compliance?week=   Weekly audit of one employee
    GET    /compliance?week=                  Weekly audit of every employee
    GET    /employees/{id}/vacation?year=     Vacation balance
    POST   /leave-requests/preview            Size a leave request
    GET    /holidays?year=                    Holidays (company + national)
    POST   /holidays                          Add a company holiday
    GET    /working-days?start=&end=          Count working days

  Global:
    POST   /api/holidays/seed?year=           Persist the national holidays
    GET    /api/overtime/rate?hours=&weekend=&hourly_rate=
    GET    /api/leave-types                   Leave catalog
    GET    /api/labor-code                    Active reference data

ARCHITECTURE:
  Handler holds the store and the reference data. Holiday calendars are
  loaded per request for the years the request touches and handed to the
  engine as an immutable labor.HolidaySet.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Employee not found
  - 409: Duplicate record
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The tenant comes from the URL and is trusted.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/warp/labor-engine/factory"
	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    labor.Store
	Code     labor.Code
	Catalog  *labor.Catalog
	Location *time.Location
	Logger   *slog.Logger

	// AuditConcurrency bounds the per-employee audits of a team report.
	AuditConcurrency int

	validate *validator.Validate
}

// NewHandler creates a handler over store using the given reference data.
func NewHandler(store labor.Store, ref *factory.Reference, loc *time.Location, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		Store:            store,
		Code:             ref.Code,
		Catalog:          ref.Catalog,
		Location:         loc,
		Logger:           logger,
		AuditConcurrency: 4,
		validate:         newValidator(),
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// =============================================================================
// SYNC
// =============================================================================

// SyncEvents ingests a batch of device events for a tenant.
// POST /api/tenants/{tenant}/sync/events
//
// Events that fail validation are counted as failed; the rest of the batch
// still goes through.
func (h *Handler) SyncEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := tenantParam(r)

	var req SyncEventsRequest
	if !h.decode(w, r, &req) {
		return
	}

	result := labor.SyncResult{Errors: []string{}}
	valid := make([]labor.DeviceEvent, 0, len(req.Events))
	for i, ev := range req.Events {
		if err := h.validate.Struct(ev); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("event %d: %s", i, formatValidationError(err)))
			continue
		}
		valid = append(valid, ev)
	}

	calendar, err := h.calendar(ctx, tenant, h.eventSpan(valid))
	if err != nil {
		h.fail(w, "Failed to load holidays", err)
		return
	}

	ingestor := labor.NewIngestor(h.Code, h.Store, calendar, h.Location, h.Logger)
	batch := ingestor.IngestBatch(ctx, tenant, valid)
	result.Success += batch.Success
	result.Failed += batch.Failed
	result.Errors = append(result.Errors, batch.Errors...)

	h.Logger.Info("device events synced",
		"tenant", tenant, "success", result.Success, "failed", result.Failed)
	writeJSON(w, http.StatusOK, result)
}

// eventSpan falls back to today so an unreadable batch still gets a
// calendar.
func (h *Handler) eventSpan(events []labor.DeviceEvent) generic.Period {
	if span, ok := labor.EventSpan(events, h.Location); ok {
		return span
	}
	today := generic.DateOf(time.Now().In(h.Location))
	return generic.Period{Start: today, End: today}
}

// =============================================================================
// COMPLIANCE
// =============================================================================

// GetEmployeeCompliance audits one employee's week.
// GET /api/tenants/{tenant}/employees/{id}/compliance?week=2024-03-04
func (h *Handler) GetEmployeeCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := tenantParam(r)

	weekStart, err := dateQuery(r, "week")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week", err)
		return
	}
	emp, ok := h.employee(w, r, tenant)
	if !ok {
		return
	}

	report, err := labor.NewAuditor(h.Code, h.Store, h.Store).AuditWeek(ctx, tenant, *emp, weekStart)
	if err != nil {
		h.fail(w, "Failed to audit week", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GetTeamCompliance audits the week of every employee of the tenant.
// GET /api/tenants/{tenant}/compliance?week=2024-03-04
func (h *Handler) GetTeamCompliance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := tenantParam(r)

	weekStart, err := dateQuery(r, "week")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid week", err)
		return
	}

	employees, err := h.Store.ListEmployees(ctx, tenant)
	if err != nil {
		h.fail(w, "Failed to list employees", err)
		return
	}

	auditor := labor.NewAuditor(h.Code, h.Store, h.Store)
	reports := make([]labor.ComplianceReport, len(employees))

	g, gCtx := errgroup.WithContext(ctx)
	if h.AuditConcurrency > 0 {
		g.SetLimit(h.AuditConcurrency)
	}
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			report, err := auditor.AuditWeek(gCtx, tenant, emp, weekStart)
			if err != nil {
				return fmt.Errorf("audit %s: %w", emp.ID, err)
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.fail(w, "Failed to audit team", err)
		return
	}

	dto := TeamComplianceDTO{WeekStart: weekStart, Employees: len(reports), Reports: reports}
	for _, rep := range reports {
		if !rep.IsCompliant {
			dto.NonCompliant++
		}
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// LEAVE
// =============================================================================

// GetVacationBalance returns the vacation balance for a year (default:
// current year).
// GET /api/tenants/{tenant}/employees/{id}/vacation?year=2024
func (h *Handler) GetVacationBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := tenantParam(r)

	year, err := yearQuery(r, h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	emp, ok := h.employee(w, r, tenant)
	if !ok {
		return
	}

	engine := labor.NewLeaveEngine(h.Code, h.Catalog, labor.NewWorkingDayCounter(nil), h.Store)
	balance, err := engine.VacationBalance(ctx, tenant, *emp, year)
	if err != nil {
		h.fail(w, "Failed to compute vacation balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toVacationBalanceDTO(*emp, balance))
}

// PreviewLeaveRequest validates and sizes a leave request without storing it.
// POST /api/tenants/{tenant}/leave-requests/preview
func (h *Handler) PreviewLeaveRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := tenantParam(r)

	var req LeavePreviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	code, err := labor.ParseLeaveCode(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid leave type", err)
		return
	}
	start, err := generic.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := generic.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}
	period, err := generic.NewPeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid dates", err)
		return
	}

	emp, err := h.Store.GetEmployee(ctx, tenant, generic.EmployeeID(req.EmployeeID))
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	calendar, err := h.calendar(ctx, tenant, period)
	if err != nil {
		h.fail(w, "Failed to load holidays", err)
		return
	}
	engine := labor.NewLeaveEngine(h.Code, h.Catalog, labor.NewWorkingDayCounter(calendar), h.Store)

	leave := labor.LeaveRequest{
		TenantID:   tenant,
		EmployeeID: emp.ID,
		Type:       code,
		StartDate:  start,
		EndDate:    end,
		Reason:     req.Reason,
	}
	if req.Days != nil {
		leave.DaysRequested = *req.Days
		leave.DaysOverridden = true
	}
	if err := engine.Prepare(&leave); err != nil {
		h.fail(w, "Invalid leave request", err)
		return
	}

	lt, _ := h.Catalog.Type(code)
	dto := LeavePreviewDTO{
		EmployeeID:       string(emp.ID),
		LeaveType:        code,
		StartDate:        leave.StartDate,
		EndDate:          leave.EndDate,
		DaysRequested:    leave.DaysRequested,
		Status:           leave.Status,
		Paid:             lt.Entitlement.Paid,
		RequiresApproval: lt.Entitlement.RequiresApproval,
	}
	if code == labor.LeaveVacation {
		balance, err := engine.VacationBalance(ctx, tenant, *emp, start.Year())
		if err != nil {
			h.fail(w, "Failed to compute vacation balance", err)
			return
		}
		dto.RemainingVacationDays = &balance.RemainingDays
	}
	writeJSON(w, http.StatusOK, dto)
}

// ListLeaveTypes returns the leave catalog.
// GET /api/leave-types
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"leave_types": h.Catalog.Types()})
}

// =============================================================================
// HOLIDAYS AND WORKING DAYS
// =============================================================================

// ListHolidays returns the tenant's holidays for a year, national included.
// GET /api/tenants/{tenant}/holidays?year=2024
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, err := yearQuery(r, h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	holidays, err := h.Store.HolidaysInYear(ctx, tenantParam(r), year)
	if err != nil {
		h.fail(w, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusOK, map[string]any{"year": year, "holidays": dtos})
}

// CreateHoliday adds a company holiday.
// POST /api/tenants/{tenant}/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decode(w, r, &req) {
		return
	}
	date, err := generic.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := generic.Holiday{
		CompanyID: tenantParam(r),
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), &holiday); err != nil {
		h.fail(w, "Failed to create holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, toHolidayDTO(holiday))
}

// SeedHolidays persists the national holidays of a year (default: current).
// POST /api/holidays/seed?year=2024
func (h *Handler) SeedHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := yearQuery(r, h.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}

	holidays, err := labor.SeedNationalHolidays(r.Context(), h.Store, year)
	if err != nil {
		h.fail(w, "Failed to seed holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, toHolidayDTO(hol))
	}
	writeJSON(w, http.StatusCreated, map[string]any{"year": year, "count": len(dtos), "holidays": dtos})
}

// CountWorkingDays counts weekdays that are not holidays, inclusive.
// GET /api/tenants/{tenant}/working-days?start=2024-04-22&end=2024-04-26
func (h *Handler) CountWorkingDays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start, err := dateQuery(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start", err)
		return
	}
	end, err := dateQuery(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end", err)
		return
	}
	period, err := generic.NewPeriod(start, end)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}

	calendar, err := h.calendar(ctx, tenantParam(r), period)
	if err != nil {
		h.fail(w, "Failed to load holidays", err)
		return
	}
	n := labor.NewWorkingDayCounter(calendar).CountWorkingDays(start, end)
	writeJSON(w, http.StatusOK, WorkingDaysDTO{Start: start, End: end, WorkingDays: n})
}

// =============================================================================
// OVERTIME AND REFERENCE DATA
// =============================================================================

// GetOvertimeRate splits overtime hours into pay tiers.
// GET /api/overtime/rate?hours=3&weekend=false&hourly_rate=10
func (h *Handler) GetOvertimeRate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hours, err := decimal.NewFromString(q.Get("hours"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours", err)
		return
	}
	if hours.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid hours", errors.New("must not be negative"))
		return
	}

	weekend := false
	if s := q.Get("weekend"); s != "" {
		if weekend, err = strconv.ParseBool(s); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid weekend flag", err)
			return
		}
	}

	rate := h.Code.RateFor(hours, weekend)
	tiers := rate.Tiers
	if tiers == nil {
		tiers = []labor.RateTier{}
	}
	dto := OvertimeRateDTO{
		Hours:             hours,
		WeekendOrHoliday:  weekend,
		Tiers:             tiers,
		BlendedMultiplier: rate.BlendedMultiplier(),
		Description:       rate.Description,
	}

	if s := q.Get("hourly_rate"); s != "" {
		hourly, err := decimal.NewFromString(s)
		if err != nil || hourly.IsNegative() {
			writeError(w, http.StatusBadRequest, "Invalid hourly_rate", err)
			return
		}
		pay := rate.Pay(hourly)
		dto.Pay = &pay
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetLaborCode returns the active reference data as a document.
// GET /api/labor-code
func (h *Handler) GetLaborCode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Code, h.Catalog))
}

// =============================================================================
// HELPERS
// =============================================================================

func tenantParam(r *http.Request) generic.TenantID {
	return generic.TenantID(chi.URLParam(r, "tenant"))
}

// employee loads the {id} employee, writing a 404 when missing.
func (h *Handler) employee(w http.ResponseWriter, r *http.Request, tenant generic.TenantID) (*labor.Employee, bool) {
	id := generic.EmployeeID(chi.URLParam(r, "id"))
	emp, err := h.Store.GetEmployee(r.Context(), tenant, id)
	if err != nil {
		h.fail(w, "Failed to get employee", err)
		return nil, false
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return nil, false
	}
	return emp, true
}

func (h *Handler) calendar(ctx context.Context, tenant generic.TenantID, period generic.Period) (*labor.HolidaySet, error) {
	return labor.LoadHolidaySet(ctx, h.Store, tenant, period)
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", errors.New(formatValidationError(err)))
		return false
	}
	return true
}

func dateQuery(r *http.Request, key string) (generic.TimePoint, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return generic.TimePoint{}, &generic.ValidationError{Field: key, Message: "required"}
	}
	return generic.ParseDate(s)
}

func yearQuery(r *http.Request, loc *time.Location) (int, error) {
	s := r.URL.Query().Get("year")
	if s == "" {
		return time.Now().In(loc).Year(), nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || year < 1900 || year > 9999 {
		return 0, &generic.ValidationError{Field: "year", Message: fmt.Sprintf("invalid year %q", s)}
	}
	return year, nil
}

// fail maps an engine error to its HTTP status.
func (h *Handler) fail(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, generic.ErrDuplicateRecord):
		writeError(w, http.StatusConflict, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	default:
		h.Logger.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func formatValidationError(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			out = append(out, fmt.Sprintf("field '%s' is required", fe.Field()))
		case "oneof":
			out = append(out, fmt.Sprintf("field '%s' must be one of [%s]", fe.Field(), fe.Param()))
		case "min":
			out = append(out, fmt.Sprintf("field '%s' must be at least %s", fe.Field(), fe.Param()))
		case "max":
			out = append(out, fmt.Sprintf("field '%s' must be at most %s", fe.Field(), fe.Param()))
		case "datetime":
			out = append(out, fmt.Sprintf("field '%s' must be a date (YYYY-MM-DD)", fe.Field()))
		default:
			out = append(out, fmt.Sprintf("field '%s' failed validation for '%s'", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(out, ", ")
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

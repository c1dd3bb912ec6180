/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's records from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Request bodies carry `validate` tags checked with go-playground/validator
  before they reach the engine. The engine repeats its own checks.

SEE ALSO:
  - handlers.go: Uses these types
  - labor/sync.go: DeviceEvent (decoded straight from the request body)
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

// =============================================================================
// REQUESTS
// =============================================================================

// SyncEventsRequest is a batch of device punches.
type SyncEventsRequest struct {
	Events []labor.DeviceEvent `json:"events" validate:"required,min=1,max=5000"`
}

// LeavePreviewRequest asks the engine to size a leave request without
// storing it.
type LeavePreviewRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	Type       string `json:"leave_type" validate:"required"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	// Days overrides the working-day count when set.
	Days   *int   `json:"days,omitempty" validate:"omitempty,min=1"`
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

// CreateHolidayRequest adds a company holiday.
type CreateHolidayRequest struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required,max=120"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// TeamComplianceDTO is the weekly audit of every employee of a tenant.
type TeamComplianceDTO struct {
	WeekStart    generic.TimePoint        `json:"week_start"`
	Employees    int                      `json:"employees"`
	NonCompliant int                      `json:"non_compliant"`
	Reports      []labor.ComplianceReport `json:"reports"`
}

type VacationBalanceDTO struct {
	EmployeeID    string `json:"employee_id"`
	Year          int    `json:"year"`
	EntitledDays  int    `json:"entitled_days"`
	UsedDays      int    `json:"used_days"`
	RemainingDays int    `json:"remaining_days"`
	IsFirstYear   bool   `json:"is_first_year"`
}

// LeavePreviewDTO is the prepared request plus the type's terms.
type LeavePreviewDTO struct {
	EmployeeID       string            `json:"employee_id"`
	LeaveType        labor.LeaveCode   `json:"leave_type"`
	StartDate        generic.TimePoint `json:"start_date"`
	EndDate          generic.TimePoint `json:"end_date"`
	DaysRequested    int               `json:"days_requested"`
	Status           labor.LeaveStatus `json:"status"`
	Paid             bool              `json:"paid"`
	RequiresApproval bool              `json:"requires_approval"`
	// RemainingVacationDays is set for vacation requests only.
	RemainingVacationDays *int `json:"remaining_vacation_days,omitempty"`
}

type HolidayDTO struct {
	ID        string            `json:"id"`
	CompanyID string            `json:"company_id,omitempty"`
	Date      generic.TimePoint `json:"date"`
	Name      string            `json:"name"`
	National  bool              `json:"national"`
	Recurring bool              `json:"recurring"`
}

type WorkingDaysDTO struct {
	Start       generic.TimePoint `json:"start"`
	End         generic.TimePoint `json:"end"`
	WorkingDays int               `json:"working_days"`
}

// OvertimeRateDTO is the tier breakdown for a number of overtime hours.
type OvertimeRateDTO struct {
	Hours             decimal.Decimal  `json:"hours"`
	WeekendOrHoliday  bool             `json:"weekend_or_holiday"`
	Tiers             []labor.RateTier `json:"tiers"`
	BlendedMultiplier decimal.Decimal  `json:"blended_multiplier"`
	Description       string           `json:"description"`
	Pay               *decimal.Decimal `json:"pay,omitempty"`
}

// ErrorResponse is returned on errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION
// =============================================================================

func toHolidayDTO(h generic.Holiday) HolidayDTO {
	return HolidayDTO{
		ID:        h.ID,
		CompanyID: string(h.CompanyID),
		Date:      h.Date,
		Name:      h.Name,
		National:  h.National,
		Recurring: h.Recurring,
	}
}

func toVacationBalanceDTO(emp labor.Employee, b labor.VacationBalance) VacationBalanceDTO {
	return VacationBalanceDTO{
		EmployeeID:    string(emp.ID),
		Year:          b.Year,
		EntitledDays:  b.EntitledDays,
		UsedDays:      b.UsedDays,
		RemainingDays: b.RemainingDays,
		IsFirstYear:   b.IsFirstYear,
	}
}

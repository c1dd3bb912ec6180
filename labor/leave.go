package labor

import (
	"context"
	"fmt"
	"sort"

	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// LEAVE TYPES - Closed set of codes, entitlement comes from reference data
// =============================================================================

type LeaveCode string

const (
	LeaveVacation    LeaveCode = "vacation"
	LeaveSick        LeaveCode = "sick"
	LeaveMaternity   LeaveCode = "maternity"
	LeavePaternity   LeaveCode = "paternity"
	LeaveParental    LeaveCode = "parental"
	LeaveMarriage    LeaveCode = "marriage"
	LeaveBereavement LeaveCode = "bereavement"
	LeaveUnpaid      LeaveCode = "unpaid"
)

var leaveCodes = []LeaveCode{
	LeaveVacation, LeaveSick, LeaveMaternity, LeavePaternity,
	LeaveParental, LeaveMarriage, LeaveBereavement, LeaveUnpaid,
}

// ParseLeaveCode rejects codes outside the closed set.
func ParseLeaveCode(s string) (LeaveCode, error) {
	for _, c := range leaveCodes {
		if string(c) == s {
			return c, nil
		}
	}
	return "", &generic.ValidationError{Field: "leave_type", Message: fmt.Sprintf("unknown leave type %q", s)}
}

// Entitlement is the statutory allowance of one leave type. Nil Days means
// the allowance is variable (decided case by case).
type Entitlement struct {
	Days             *int `json:"days,omitempty" yaml:"days,omitempty"`
	MinDays          *int `json:"min_days,omitempty" yaml:"min_days,omitempty"`
	MaxDays          *int `json:"max_days,omitempty" yaml:"max_days,omitempty"`
	Paid             bool `json:"paid" yaml:"paid"`
	RequiresApproval bool `json:"requires_approval" yaml:"requires_approval"`
}

// LeaveType binds a code to its display name and entitlement.
type LeaveType struct {
	Code        LeaveCode   `json:"code" yaml:"code"`
	Name        string      `json:"name" yaml:"name"`
	Reference   string      `json:"legal_reference,omitempty" yaml:"legal_reference,omitempty"`
	Entitlement Entitlement `json:"entitlement" yaml:"entitlement"`
}

// Catalog is the immutable leave-type reference table.
type Catalog struct {
	types map[LeaveCode]LeaveType
}

// NewCatalog validates and indexes leave types. Duplicate or unknown codes
// are rejected.
func NewCatalog(types ...LeaveType) (*Catalog, error) {
	c := &Catalog{types: make(map[LeaveCode]LeaveType, len(types))}
	for _, t := range types {
		if _, err := ParseLeaveCode(string(t.Code)); err != nil {
			return nil, err
		}
		if _, dup := c.types[t.Code]; dup {
			return nil, &generic.ValidationError{Field: "leave_type", Message: fmt.Sprintf("duplicate leave type %q", t.Code)}
		}
		e := t.Entitlement
		if e.MinDays != nil && e.MaxDays != nil && *e.MinDays > *e.MaxDays {
			return nil, &generic.ValidationError{Field: string(t.Code), Message: "min_days exceeds max_days"}
		}
		c.types[t.Code] = t
	}
	return c, nil
}

// EntitlementFor returns the entitlement of code. ok is false for codes
// absent from the catalog.
func (c *Catalog) EntitlementFor(code LeaveCode) (Entitlement, bool) {
	t, ok := c.types[code]
	return t.Entitlement, ok
}

// Type returns the full leave type row.
func (c *Catalog) Type(code LeaveCode) (LeaveType, bool) {
	t, ok := c.types[code]
	return t, ok
}

// Types lists the catalog in the canonical code order.
func (c *Catalog) Types() []LeaveType {
	out := make([]LeaveType, 0, len(c.types))
	for _, t := range c.types {
		out = append(out, t)
	}
	order := make(map[LeaveCode]int, len(leaveCodes))
	for i, code := range leaveCodes {
		order[code] = i
	}
	sort.Slice(out, func(i, j int) bool { return order[out[i].Code] < order[out[j].Code] })
	return out
}

func days(n int) *int { return &n }

// DefaultLeaveTypes mirrors the statutory leave table of the Portuguese
// Labor Code. Used when no reference-data document is configured.
func DefaultLeaveTypes() []LeaveType {
	return []LeaveType{
		{Code: LeaveVacation, Name: "Férias", Reference: "Article 238",
			Entitlement: Entitlement{Days: days(22), Paid: true, RequiresApproval: true}},
		{Code: LeaveMaternity, Name: "Licença de Maternidade", Reference: "Article 40",
			Entitlement: Entitlement{Days: days(150), MinDays: days(120), MaxDays: days(150), Paid: true, RequiresApproval: true}},
		{Code: LeavePaternity, Name: "Licença de Paternidade", Reference: "Article 43",
			Entitlement: Entitlement{Days: days(28), Paid: true, RequiresApproval: true}},
		{Code: LeaveParental, Name: "Licença Parental", Reference: "Articles 41-44",
			Entitlement: Entitlement{Paid: true, RequiresApproval: true}},
		{Code: LeaveMarriage, Name: "Casamento", Reference: "Article 252",
			Entitlement: Entitlement{Days: days(15), Paid: true, RequiresApproval: true}},
		{Code: LeaveBereavement, Name: "Luto", Reference: "Article 252",
			Entitlement: Entitlement{Days: days(5), Paid: true, RequiresApproval: true}},
		{Code: LeaveSick, Name: "Baixa Médica", Reference: "Article 254",
			Entitlement: Entitlement{Paid: true, RequiresApproval: false}},
		{Code: LeaveUnpaid, Name: "Sem Vencimento", Reference: "Article 320",
			Entitlement: Entitlement{Paid: false, RequiresApproval: true}},
	}
}

// DefaultCatalog is NewCatalog(DefaultLeaveTypes()...).
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultLeaveTypes()...)
	if err != nil {
		panic(err)
	}
	return c
}

// =============================================================================
// VACATION ENTITLEMENT
// =============================================================================

type VacationEntitlement struct {
	Year         int  `json:"year"`
	EntitledDays int  `json:"entitled_days"`
	IsFirstYear  bool `json:"is_first_year"`
	MonthsWorked int  `json:"months_worked,omitempty"`
}

// VacationEntitlement prorates the annual allowance in the hire year by
// whole calendar months worked, counting the hire month. Years before the
// hire year carry no entitlement.
func (c Code) VacationEntitlement(emp Employee, year int) VacationEntitlement {
	hireYear := emp.HireDate.Year()
	switch {
	case year < hireYear:
		return VacationEntitlement{Year: year}
	case year == hireYear:
		months := 12 - int(emp.HireDate.Month()) + 1
		entitled := months * c.VacationDaysPerYear / 12
		return VacationEntitlement{Year: year, EntitledDays: entitled, IsFirstYear: true, MonthsWorked: months}
	default:
		return VacationEntitlement{Year: year, EntitledDays: c.VacationDaysPerYear}
	}
}

type VacationBalance struct {
	Year          int  `json:"year"`
	EntitledDays  int  `json:"entitled_days"`
	UsedDays      int  `json:"used_days"`
	RemainingDays int  `json:"remaining_days"`
	IsFirstYear   bool `json:"is_first_year"`
}

// =============================================================================
// LEAVE ENGINE
// =============================================================================

// LeaveEngine combines the entitlement rules with the working-day counter
// and the approved-leave history.
type LeaveEngine struct {
	Code     Code
	Catalog  *Catalog
	Workdays WorkingDayCounter
	Leaves   LeaveStore
}

func NewLeaveEngine(code Code, catalog *Catalog, workdays WorkingDayCounter, leaves LeaveStore) *LeaveEngine {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &LeaveEngine{Code: code, Catalog: catalog, Workdays: workdays, Leaves: leaves}
}

// VacationBalance subtracts approved vacation days starting in year from
// the entitlement, never going below zero.
func (e *LeaveEngine) VacationBalance(ctx context.Context, tenant generic.TenantID, emp Employee, year int) (VacationBalance, error) {
	ent := e.Code.VacationEntitlement(emp, year)

	used, err := e.Leaves.ApprovedLeaveDays(ctx, tenant, emp.ID, LeaveVacation, year)
	if err != nil {
		return VacationBalance{}, fmt.Errorf("approved vacation days for %s in %d: %w", emp.ID, year, err)
	}

	remaining := ent.EntitledDays - used
	if remaining < 0 {
		remaining = 0
	}
	return VacationBalance{
		Year:          year,
		EntitledDays:  ent.EntitledDays,
		UsedDays:      used,
		RemainingDays: remaining,
		IsFirstYear:   ent.IsFirstYear,
	}, nil
}

// RequestedDays counts working days in [start, end].
func (e *LeaveEngine) RequestedDays(start, end generic.TimePoint) (int, error) {
	if _, err := generic.NewPeriod(start, end); err != nil {
		return 0, err
	}
	return e.Workdays.CountWorkingDays(start, end), nil
}

// Prepare validates a leave request before it is written and fills in
// DaysRequested from the working-day count unless an approver overrode it.
// Nothing on req changes when an error is returned.
func (e *LeaveEngine) Prepare(req *LeaveRequest) error {
	if req.EmployeeID == "" {
		return &generic.ValidationError{Field: "employee_id", Message: "required"}
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return &generic.ValidationError{Field: "dates", Message: "start and end date are required"}
	}
	ent, ok := e.Catalog.EntitlementFor(req.Type)
	if !ok {
		return &generic.ValidationError{Field: "leave_type", Message: fmt.Sprintf("unknown leave type %q", req.Type)}
	}

	n := req.DaysRequested
	if !req.DaysOverridden {
		computed, err := e.RequestedDays(req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		n = computed
	} else if _, err := generic.NewPeriod(req.StartDate, req.EndDate); err != nil {
		return err
	}

	if err := e.ValidateDays(req.Type, ent, n); err != nil {
		return err
	}

	req.DaysRequested = n
	if req.Status == "" {
		req.Status = LeavePending
	}
	return nil
}

// ValidateDays checks a day count against the type's bounds. MaxDays falls
// back to Days when only the allowance is set.
func (e *LeaveEngine) ValidateDays(code LeaveCode, ent Entitlement, n int) error {
	if n <= 0 {
		return &generic.ValidationError{Field: "days_requested", Message: "must cover at least one working day"}
	}
	if ent.MinDays != nil && n < *ent.MinDays {
		return &generic.ValidationError{Field: "days_requested",
			Message: fmt.Sprintf("%s requires at least %d days, got %d", code, *ent.MinDays, n)}
	}
	limit := ent.MaxDays
	if limit == nil {
		limit = ent.Days
	}
	if limit != nil && n > *limit {
		return &generic.ValidationError{Field: "days_requested",
			Message: fmt.Sprintf("%s allows at most %d days, got %d", code, *limit, n)}
	}
	return nil
}

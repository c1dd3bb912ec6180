/*
Package factory provides reference-data document to Go conversion.

PURPOSE:
  Converts a JSON or YAML reference-data document into the labor.Code,
  the leave catalog and any extra holidays. Statutory limits can then be
  changed without code changes; everything absent from the document keeps
  the built-in Portuguese default.

DOCUMENT SCHEMA (YAML shown, JSON uses the same keys):
  name: pt
  working_hours:
    per_day: 8
    per_week: 40
    max_shift_hours: 16
  rest:
    min_daily_hours: 11
  overtime:
    first_tier_hours: 2
    first_tier_rate: 1.5
    additional_rate: 1.75
    weekend_holiday_rate: 2.0
  vacation:
    days_per_year: 22
  breaks:
    required_after_hours: 5
    min_minutes: 30
    enforce: false
  leave_types:
    - code: maternity
      name: Licença de Maternidade
      entitlement: {days: 150, min_days: 120, max_days: 150, paid: true, requires_approval: true}
  holidays:
    - {company_id: acme, date: "2024-06-13", name: Santo António}
    - {company_id: acme, date: "2020-09-14", name: Company day, recurring: true}

LEAVE TYPES:
  When leave_types is present it replaces the default table entirely.

USAGE:
  f := factory.NewReferenceFactory()
  ref, err := f.LoadFile("reference.yaml")
  engine := labor.NewLeaveEngine(ref.Code, ref.Catalog, workdays, store)

SEE ALSO:
  - labor/code.go: The statutory limits
  - labor/leave.go: Leave catalog
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/labor-engine/generic"
	"github.com/warp/labor-engine/labor"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// ReferenceDoc is the document representation of the reference data.
// Pointer fields distinguish "absent" from zero.
type ReferenceDoc struct {
	Name         string            `json:"name" yaml:"name"`
	WorkingHours *WorkingHoursDoc  `json:"working_hours,omitempty" yaml:"working_hours,omitempty"`
	Rest         *RestDoc          `json:"rest,omitempty" yaml:"rest,omitempty"`
	Overtime     *OvertimeDoc      `json:"overtime,omitempty" yaml:"overtime,omitempty"`
	Vacation     *VacationDoc      `json:"vacation,omitempty" yaml:"vacation,omitempty"`
	Breaks       *BreaksDoc        `json:"breaks,omitempty" yaml:"breaks,omitempty"`
	LeaveTypes   []labor.LeaveType `json:"leave_types,omitempty" yaml:"leave_types,omitempty"`
	Holidays     []HolidayDoc      `json:"holidays,omitempty" yaml:"holidays,omitempty"`
}

type WorkingHoursDoc struct {
	PerDay        *float64 `json:"per_day,omitempty" yaml:"per_day,omitempty"`
	PerWeek       *float64 `json:"per_week,omitempty" yaml:"per_week,omitempty"`
	// MaxShiftHours bounds overnight shifts closed by a next-day check-out.
	MaxShiftHours *float64 `json:"max_shift_hours,omitempty" yaml:"max_shift_hours,omitempty"`
}

type RestDoc struct {
	MinDailyHours *float64 `json:"min_daily_hours,omitempty" yaml:"min_daily_hours,omitempty"`
}

type OvertimeDoc struct {
	FirstTierHours     *float64 `json:"first_tier_hours,omitempty" yaml:"first_tier_hours,omitempty"`
	FirstTierRate      *float64 `json:"first_tier_rate,omitempty" yaml:"first_tier_rate,omitempty"`
	AdditionalRate     *float64 `json:"additional_rate,omitempty" yaml:"additional_rate,omitempty"`
	WeekendHolidayRate *float64 `json:"weekend_holiday_rate,omitempty" yaml:"weekend_holiday_rate,omitempty"`
}

type VacationDoc struct {
	DaysPerYear *int `json:"days_per_year,omitempty" yaml:"days_per_year,omitempty"`
}

type BreaksDoc struct {
	RequiredAfterHours *float64 `json:"required_after_hours,omitempty" yaml:"required_after_hours,omitempty"`
	MinMinutes         *int     `json:"min_minutes,omitempty" yaml:"min_minutes,omitempty"`
	Enforce            bool     `json:"enforce" yaml:"enforce"`
}

type HolidayDoc struct {
	CompanyID string `json:"company_id" yaml:"company_id"`
	Date      string `json:"date" yaml:"date"`
	Name      string `json:"name" yaml:"name"`
	Recurring bool   `json:"recurring,omitempty" yaml:"recurring,omitempty"`
}

// Reference is the parsed, validated reference data.
type Reference struct {
	Code     labor.Code
	Catalog  *labor.Catalog
	Holidays []generic.Holiday
}

// =============================================================================
// REFERENCE FACTORY
// =============================================================================

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ReferenceFactory converts reference-data documents to Go structs.
type ReferenceFactory struct {
	// Base supplies every value the document leaves out.
	Base labor.Code
}

func NewReferenceFactory() *ReferenceFactory {
	return &ReferenceFactory{Base: labor.PortugueseCode()}
}

// LoadFile reads a document, picking the format from the file extension.
func (f *ReferenceFactory) LoadFile(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reference data: %w", err)
	}
	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	return f.Parse(data, format)
}

// Parse decodes data in the given format and builds the reference data.
func (f *ReferenceFactory) Parse(data []byte, format Format) (*Reference, error) {
	var doc ReferenceDoc
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse reference YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse reference JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown reference data format: %s", format)
	}
	return f.FromDoc(doc)
}

// FromDoc validates the document and layers it over the base code.
func (f *ReferenceFactory) FromDoc(doc ReferenceDoc) (*Reference, error) {
	code := f.Base
	if doc.Name != "" {
		code.Name = doc.Name
	}

	if wh := doc.WorkingHours; wh != nil {
		setDecimal(&code.DailyRegularHours, wh.PerDay)
		setDecimal(&code.WeeklyRegularHours, wh.PerWeek)
		if wh.MaxShiftHours != nil {
			code.MaxShiftLength = hours(*wh.MaxShiftHours)
		}
	}
	if r := doc.Rest; r != nil && r.MinDailyHours != nil {
		code.MinDailyRest = hours(*r.MinDailyHours)
	}
	if ot := doc.Overtime; ot != nil {
		setDecimal(&code.FirstTierHours, ot.FirstTierHours)
		setDecimal(&code.FirstTierRate, ot.FirstTierRate)
		setDecimal(&code.AdditionalRate, ot.AdditionalRate)
		setDecimal(&code.WeekendOrHolidayRate, ot.WeekendHolidayRate)
	}
	if v := doc.Vacation; v != nil && v.DaysPerYear != nil {
		code.VacationDaysPerYear = *v.DaysPerYear
	}
	if b := doc.Breaks; b != nil {
		if b.RequiredAfterHours != nil {
			code.BreakRequiredAfter = hours(*b.RequiredAfterHours)
		}
		if b.MinMinutes != nil {
			code.MinBreak = time.Duration(*b.MinMinutes) * time.Minute
		}
		code.EnforceBreaks = b.Enforce
	}

	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	types := doc.LeaveTypes
	if len(types) == 0 {
		types = labor.DefaultLeaveTypes()
	}
	catalog, err := labor.NewCatalog(types...)
	if err != nil {
		return nil, err
	}

	holidays := make([]generic.Holiday, 0, len(doc.Holidays))
	for i, hd := range doc.Holidays {
		date, err := generic.ParseDate(hd.Date)
		if err != nil {
			return nil, &generic.ValidationError{Field: fmt.Sprintf("holidays[%d].date", i), Message: err.Error()}
		}
		if hd.Name == "" {
			return nil, &generic.ValidationError{Field: fmt.Sprintf("holidays[%d].name", i), Message: "required"}
		}
		holidays = append(holidays, generic.Holiday{
			CompanyID: generic.TenantID(hd.CompanyID),
			Date:      date,
			Name:      hd.Name,
			Recurring: hd.Recurring,
		})
	}

	return &Reference{Code: code, Catalog: catalog, Holidays: holidays}, nil
}

// ValidateCode rejects limits that would make the engine's rules incoherent.
func ValidateCode(c labor.Code) error {
	one := decimal.NewFromInt(1)
	switch {
	case !c.DailyRegularHours.IsPositive():
		return &generic.ValidationError{Field: "working_hours.per_day", Message: "must be positive"}
	case c.WeeklyRegularHours.LessThan(c.DailyRegularHours):
		return &generic.ValidationError{Field: "working_hours.per_week", Message: "must be at least per_day"}
	case c.MaxShiftLength < decimalHours(c.DailyRegularHours) || c.MaxShiftLength > 24*time.Hour:
		return &generic.ValidationError{Field: "working_hours.max_shift_hours", Message: "must be within [per_day, 24]"}
	case c.MinDailyRest <= 0 || c.MinDailyRest > 24*time.Hour:
		return &generic.ValidationError{Field: "rest.min_daily_hours", Message: "must be within (0, 24]"}
	case c.FirstTierHours.IsNegative():
		return &generic.ValidationError{Field: "overtime.first_tier_hours", Message: "must not be negative"}
	case c.FirstTierRate.LessThan(one), c.AdditionalRate.LessThan(one), c.WeekendOrHolidayRate.LessThan(one):
		return &generic.ValidationError{Field: "overtime", Message: "rates must be at least 1.0"}
	case c.VacationDaysPerYear < 0:
		return &generic.ValidationError{Field: "vacation.days_per_year", Message: "must not be negative"}
	}
	return nil
}

// ToDoc renders a code and catalog back into a document.
func ToDoc(code labor.Code, catalog *labor.Catalog) ReferenceDoc {
	restHours := code.MinDailyRest.Hours()
	maxShift := code.MaxShiftLength.Hours()
	breakAfter := code.BreakRequiredAfter.Hours()
	breakMin := int(code.MinBreak / time.Minute)
	days := code.VacationDaysPerYear

	return ReferenceDoc{
		Name:         code.Name,
		WorkingHours: &WorkingHoursDoc{
			PerDay:        floatPtr(code.DailyRegularHours),
			PerWeek:       floatPtr(code.WeeklyRegularHours),
			MaxShiftHours: &maxShift,
		},
		Rest:         &RestDoc{MinDailyHours: &restHours},
		Overtime: &OvertimeDoc{
			FirstTierHours:     floatPtr(code.FirstTierHours),
			FirstTierRate:      floatPtr(code.FirstTierRate),
			AdditionalRate:     floatPtr(code.AdditionalRate),
			WeekendHolidayRate: floatPtr(code.WeekendOrHolidayRate),
		},
		Vacation:   &VacationDoc{DaysPerYear: &days},
		Breaks:     &BreaksDoc{RequiredAfterHours: &breakAfter, MinMinutes: &breakMin, Enforce: code.EnforceBreaks},
		LeaveTypes: catalog.Types(),
	}
}

func floatPtr(d decimal.Decimal) *float64 {
	v := d.InexactFloat64()
	return &v
}

func setDecimal(dst *decimal.Decimal, v *float64) {
	if v != nil {
		*dst = decimal.NewFromFloat(*v)
	}
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func decimalHours(d decimal.Decimal) time.Duration {
	return time.Duration(d.Mul(decimal.NewFromInt(int64(time.Hour))).IntPart())
}

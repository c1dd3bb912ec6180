package labor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// NATIONAL HOLIDAYS
// =============================================================================

type fixedHoliday struct {
	name  string
	month time.Month
	day   int
}

var fixedHolidays = []fixedHoliday{
	{"Ano Novo", time.January, 1},
	{"Dia da Liberdade", time.April, 25},
	{"Dia do Trabalhador", time.May, 1},
	{"Dia de Portugal", time.June, 10},
	{"Assunção de Nossa Senhora", time.August, 15},
	{"Implantação da República", time.October, 5},
	{"Dia de Todos os Santos", time.November, 1},
	{"Restauração da Independência", time.December, 1},
	{"Imaculada Conceição", time.December, 8},
	{"Natal", time.December, 25},
}

type movableHoliday struct {
	name   string
	offset int // days relative to Easter Sunday
}

var movableHolidays = []movableHoliday{
	{"Sexta-feira Santa", -2},
	{"Páscoa", 0},
	{"Corpo de Deus", 60},
}

// NationalHolidays computes the national holidays of year, ordered by date.
// The result is seed data; it is persisted by the caller and later read
// back through a HolidaySet.
func NationalHolidays(year int) []generic.Holiday {
	easter := EasterSunday(year)

	holidays := make([]generic.Holiday, 0, len(fixedHolidays)+len(movableHolidays))
	for _, f := range fixedHolidays {
		holidays = append(holidays, nationalHoliday(f.name, generic.NewTimePoint(year, f.month, f.day)))
	}
	for _, m := range movableHolidays {
		holidays = append(holidays, nationalHoliday(m.name, easter.AddDays(m.offset)))
	}

	sort.SliceStable(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

func nationalHoliday(name string, date generic.TimePoint) generic.Holiday {
	return generic.Holiday{
		ID:        fmt.Sprintf("national-%s", date),
		CompanyID: generic.GlobalTenant,
		Date:      date,
		Name:      name,
		National:  true,
	}
}

// EasterSunday returns Western Easter for year using the anonymous Gregorian
// algorithm (Meeus/Jones/Butcher).
func EasterSunday(year int) generic.TimePoint {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return generic.NewTimePoint(year, time.Month(month), day)
}

// SeedNationalHolidays persists the national list for year as global
// holidays. Saving is an upsert, so reseeding a year is harmless.
func SeedNationalHolidays(ctx context.Context, store HolidayStore, year int) ([]generic.Holiday, error) {
	holidays := NationalHolidays(year)
	for i := range holidays {
		if err := store.SaveHoliday(ctx, &holidays[i]); err != nil {
			return nil, fmt.Errorf("seed %s (%s): %w", holidays[i].Name, holidays[i].Date, err)
		}
	}
	return holidays, nil
}

// =============================================================================
// HOLIDAY SET - Immutable, injected calendar
// =============================================================================

// HolidaySet is an immutable lookup over persisted holidays. It implements
// generic.HolidayCalendar without touching the store.
type HolidaySet struct {
	dates     map[generic.TimePoint]generic.Holiday
	recurring []generic.Holiday
}

var _ generic.HolidayCalendar = (*HolidaySet)(nil)

// NewHolidaySet indexes the given holidays. Later duplicates of a date are
// ignored.
func NewHolidaySet(holidays ...generic.Holiday) *HolidaySet {
	s := &HolidaySet{dates: make(map[generic.TimePoint]generic.Holiday, len(holidays))}
	for _, h := range holidays {
		if h.Recurring {
			s.recurring = append(s.recurring, h)
			continue
		}
		key := generic.DateOf(h.Date.Time)
		if _, exists := s.dates[key]; !exists {
			s.dates[key] = h
		}
	}
	return s
}

// IsHoliday is a pure membership test.
func (s *HolidaySet) IsHoliday(date generic.TimePoint) bool {
	_, ok := s.Lookup(date)
	return ok
}

// Lookup returns the holiday falling on date, if any.
func (s *HolidaySet) Lookup(date generic.TimePoint) (generic.Holiday, bool) {
	if s == nil {
		return generic.Holiday{}, false
	}
	if h, ok := s.dates[generic.DateOf(date.Time)]; ok {
		return h, true
	}
	for _, h := range s.recurring {
		if h.Date.SameMonthDay(date) {
			return h, true
		}
	}
	return generic.Holiday{}, false
}

// Len returns the number of indexed holidays.
func (s *HolidaySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dates) + len(s.recurring)
}

// LoadHolidaySet reads the tenant's holidays (plus global ones) for every
// year the period touches and freezes them into a HolidaySet.
func LoadHolidaySet(ctx context.Context, store HolidayStore, tenant generic.TenantID, period generic.Period) (*HolidaySet, error) {
	var all []generic.Holiday
	for _, year := range period.Years() {
		hs, err := store.HolidaysInYear(ctx, tenant, year)
		if err != nil {
			return nil, fmt.Errorf("load holidays %d: %w", year, err)
		}
		all = append(all, hs...)
	}
	return NewHolidaySet(all...), nil
}

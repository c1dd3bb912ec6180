package labor

import "github.com/warp/labor-engine/generic"

// WorkingDayCounter counts weekdays that are not holidays.
type WorkingDayCounter struct {
	Calendar generic.HolidayCalendar
}

func NewWorkingDayCounter(calendar generic.HolidayCalendar) WorkingDayCounter {
	if calendar == nil {
		calendar = generic.NoHolidays{}
	}
	return WorkingDayCounter{Calendar: calendar}
}

// IsWorkingDay reports whether date is Mon-Fri and not a holiday.
func (w WorkingDayCounter) IsWorkingDay(date generic.TimePoint) bool {
	return date.IsWorkdayWithHolidays(w.Calendar)
}

// CountWorkingDays counts working days in [start, end], both inclusive.
// An end before start yields zero.
func (w WorkingDayCounter) CountWorkingDays(start, end generic.TimePoint) int {
	count := 0
	for day := start; day.BeforeOrEqual(end); day = day.AddDays(1) {
		if w.IsWorkingDay(day) {
			count++
		}
	}
	return count
}

// IsWeekendOrHoliday is the predicate that selects the flat overtime rate.
func (w WorkingDayCounter) IsWeekendOrHoliday(date generic.TimePoint) bool {
	return !w.IsWorkingDay(date)
}

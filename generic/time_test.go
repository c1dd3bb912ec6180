package generic_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/labor-engine/generic"
)

// =============================================================================
// TIME POINT
// =============================================================================

func TestDateOf_UsesOwnLocation(t *testing.T) {
	// 00:30 in Lisbon summer time is still 23:30 the day before in UTC.
	// The calendar date follows the local reading.
	loc := time.FixedZone("WEST", 3600)
	local := time.Date(2024, 7, 1, 0, 30, 0, 0, loc)

	assert.Equal(t, "2024-07-01", generic.DateOf(local).String())
	assert.Equal(t, "2024-06-30", generic.DateOf(local.UTC()).String())
}

func TestTimePoint_Comparison(t *testing.T) {
	a := generic.NewTimePoint(2024, 3, 1)
	b := generic.NewTimePoint(2024, 3, 2)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
	assert.True(t, a.AddDays(1).Equal(b))
	assert.Equal(t, "2024-02-29", a.AddDays(-1).String(), "leap day")
	assert.Equal(t, 1, generic.DaysBetween(a, b))
}

func TestTimePoint_Weekend(t *testing.T) {
	sat := generic.NewTimePoint(2024, 1, 6)
	mon := generic.NewTimePoint(2024, 1, 8)

	assert.True(t, sat.IsWeekend())
	assert.False(t, mon.IsWeekend())
	assert.False(t, sat.IsWorkdayWithHolidays(generic.NoHolidays{}))
	assert.True(t, mon.IsWorkdayWithHolidays(nil))
}

func TestTimePoint_JSON(t *testing.T) {
	type payload struct {
		Date generic.TimePoint `json:"date"`
	}

	b, err := json.Marshal(payload{Date: generic.NewTimePoint(2024, 3, 31)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-31"}`, string(b))

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2024-05-30"}`), &p))
	assert.Equal(t, time.Thursday, p.Date.Weekday())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"30/05/2024"}`), &p))
}

// =============================================================================
// PERIOD
// =============================================================================

func TestNewPeriod(t *testing.T) {
	_, err := generic.NewPeriod(generic.NewTimePoint(2024, 1, 7), generic.NewTimePoint(2024, 1, 1))
	assert.ErrorIs(t, err, generic.ErrInvalidPeriod)
	assert.True(t, generic.IsClientError(err))

	p, err := generic.NewPeriod(generic.NewTimePoint(2024, 12, 30), generic.NewTimePoint(2025, 1, 2))
	require.NoError(t, err)
	assert.Len(t, p.Days(), 4)
	assert.Equal(t, []int{2024, 2025}, p.Years())
	assert.True(t, p.Contains(generic.NewTimePoint(2025, 1, 1)))
	assert.False(t, p.Contains(generic.NewTimePoint(2025, 1, 3)))
}

func TestWeekFrom(t *testing.T) {
	w := generic.WeekFrom(generic.NewTimePoint(2024, 3, 4))
	assert.Equal(t, "[2024-03-04, 2024-03-10]", w.String())
	assert.Len(t, w.Days(), 7)
}

// =============================================================================
// ERRORS
// =============================================================================

func TestErrorClassification(t *testing.T) {
	nf := &generic.NotFoundError{Kind: "employee", Key: "device user 42"}
	assert.Equal(t, "employee not found: device user 42", nf.Error())
	assert.True(t, generic.IsNotFound(nf))
	assert.False(t, generic.IsClientError(nf))

	var ve error = &generic.ValidationError{Field: "hours", Message: "must be positive"}
	assert.True(t, errors.Is(ve, generic.ErrValidation))
	assert.Equal(t, "hours: must be positive", ve.Error())
}

package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2026-03-02 through Friday 2026-03-06 is a full working week.
func testCalendar() CalendarConfig {
	return DefaultCalendar()
}

func at(t *testing.T, cfg CalendarConfig, day int, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, time.March, day, hour, min, 0, 0, cfg.location())
}

func TestBusinessHoursWithinOneDayEqualsWallClock(t *testing.T) {
	cfg := testCalendar()

	hours, err := BusinessHours(at(t, cfg, 2, 9, 0), at(t, cfg, 2, 12, 30), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.5, hours)
}

func TestBusinessHoursZeroWhenStartNotBeforeEnd(t *testing.T) {
	cfg := testCalendar()
	start := at(t, cfg, 2, 9, 0)

	hours, err := BusinessHours(start, start, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hours)

	hours, err = BusinessHours(start, start.Add(-2*time.Hour), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hours)
}

func TestBusinessHoursFridayToMonday(t *testing.T) {
	cfg := testCalendar()

	// Friday 16:00 -> Monday 10:00 is 1h Friday + 2h Monday.
	hours, err := BusinessHours(at(t, cfg, 6, 16, 0), at(t, cfg, 9, 10, 0), cfg)
	require.NoError(t, err)
	assert.Equal(t, 3.0, hours)
}

func TestBusinessHoursWeekendIsZeroCost(t *testing.T) {
	cfg := testCalendar()

	hours, err := BusinessHours(at(t, cfg, 7, 9, 0), at(t, cfg, 8, 17, 0), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hours)
}

func TestBusinessHoursOutsideWindowIsZeroCost(t *testing.T) {
	cfg := testCalendar()

	hours, err := BusinessHours(at(t, cfg, 2, 18, 0), at(t, cfg, 2, 22, 0), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hours)

	// Early morning before the window also counts nothing.
	hours, err = BusinessHours(at(t, cfg, 2, 5, 0), at(t, cfg, 2, 8, 0), cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, hours)
}

func TestBusinessHoursSpansMultipleDays(t *testing.T) {
	cfg := testCalendar()

	// Monday 10:00 -> Wednesday 11:00: 7h Monday + 9h Tuesday + 3h Wednesday.
	hours, err := BusinessHours(at(t, cfg, 2, 10, 0), at(t, cfg, 4, 11, 0), cfg)
	require.NoError(t, err)
	assert.Equal(t, 19.0, hours)
}

func TestBusinessHoursInvalidConfig(t *testing.T) {
	base := testCalendar()

	tests := []struct {
		name   string
		mutate func(*CalendarConfig)
	}{
		{"start after end", func(c *CalendarConfig) { c.StartHour = 18; c.EndHour = 9 }},
		{"start equals end", func(c *CalendarConfig) { c.StartHour = 9; c.EndHour = 9 }},
		{"start hour out of range", func(c *CalendarConfig) { c.StartHour = -1 }},
		{"end hour out of range", func(c *CalendarConfig) { c.EndHour = 24 }},
		{"no working days", func(c *CalendarConfig) { c.WorkingDays = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			_, err := BusinessHours(at(t, base, 2, 9, 0), at(t, base, 2, 10, 0), cfg)
			require.ErrorIs(t, err, ErrInvalidCalendar)
		})
	}
}

func TestBusinessHoursRangeExceeded(t *testing.T) {
	cfg := testCalendar()

	start := at(t, cfg, 2, 9, 0)
	_, err := BusinessHours(start, start.AddDate(2, 0, 0), cfg)
	require.ErrorIs(t, err, ErrRangeExceeded)
}

func TestBusinessHoursNormalizesCallerTimezone(t *testing.T) {
	cfg := testCalendar()

	start := at(t, cfg, 2, 9, 0)
	end := at(t, cfg, 2, 15, 0)

	local, err := BusinessHours(start, end, cfg)
	require.NoError(t, err)
	utc, err := BusinessHours(start.UTC(), end.UTC(), cfg)
	require.NoError(t, err)
	assert.Equal(t, local, utc)
}

func TestBusinessHoursIdempotent(t *testing.T) {
	cfg := testCalendar()

	start := at(t, cfg, 2, 10, 0)
	end := at(t, cfg, 5, 14, 30)
	first, err := BusinessHours(start, end, cfg)
	require.NoError(t, err)
	second, err := BusinessHours(start, end, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestBusinessDaysBetween(t *testing.T) {
	cfg := testCalendar()

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"same day", at(t, cfg, 2, 9, 0), at(t, cfg, 2, 16, 0), 0},
		{"next day", at(t, cfg, 2, 16, 0), at(t, cfg, 3, 9, 0), 1},
		{"over a weekend", at(t, cfg, 6, 16, 0), at(t, cfg, 9, 9, 0), 1},
		{"full week", at(t, cfg, 2, 9, 0), at(t, cfg, 6, 17, 0), 4},
		{"start after end", at(t, cfg, 5, 9, 0), at(t, cfg, 2, 9, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := BusinessDaysBetween(tt.start, tt.end, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, days)
		})
	}
}

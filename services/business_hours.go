package services

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// Typed error kinds for the workflow core.
var (
	// ErrInvalidCalendar marks a malformed business-hours calendar.
	ErrInvalidCalendar = errors.New("invalid business calendar")
	// ErrRangeExceeded marks a date range beyond the iteration cap.
	ErrRangeExceeded = errors.New("date range exceeds business hours iteration cap")
)

// maxCalendarDays bounds the day-by-day walk so a pathological range cannot spin.
const maxCalendarDays = 365

// CalendarConfig describes the business calendar used for hour and day math.
// All instants are normalized into Location before any arithmetic so results do
// not depend on the caller's locale.
type CalendarConfig struct {
	StartHour   int
	EndHour     int
	WorkingDays map[time.Weekday]bool
	Location    *time.Location
}

// DefaultCalendar returns the standard Mon-Fri 8:00-17:00 calendar in the
// reference timezone.
func DefaultCalendar() CalendarConfig {
	return CalendarConfig{
		StartHour: 8,
		EndHour:   17,
		WorkingDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		Location: referenceLocation(),
	}
}

// CalendarFromEnv builds the calendar from BUSINESS_HOURS_START, BUSINESS_HOURS_END
// and BUSINESS_TZ, falling back to the defaults for anything unset or unparsable.
func CalendarFromEnv() CalendarConfig {
	cfg := DefaultCalendar()

	if v := os.Getenv("BUSINESS_HOURS_START"); v != "" {
		if hour, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.StartHour = hour
		}
	}
	if v := os.Getenv("BUSINESS_HOURS_END"); v != "" {
		if hour, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.EndHour = hour
		}
	}
	if v := os.Getenv("BUSINESS_TZ"); v != "" {
		if loc, err := time.LoadLocation(strings.TrimSpace(v)); err == nil {
			cfg.Location = loc
		}
	}

	return cfg
}

func referenceLocation() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate checks the calendar shape.
func (c CalendarConfig) Validate() error {
	if c.StartHour < 0 || c.StartHour > 23 {
		return fmt.Errorf("%w: start hour %d outside [0,23]", ErrInvalidCalendar, c.StartHour)
	}
	if c.EndHour < 0 || c.EndHour > 23 {
		return fmt.Errorf("%w: end hour %d outside [0,23]", ErrInvalidCalendar, c.EndHour)
	}
	if c.StartHour >= c.EndHour {
		return fmt.Errorf("%w: start hour %d must be before end hour %d", ErrInvalidCalendar, c.StartHour, c.EndHour)
	}
	if len(c.WorkingDays) == 0 {
		return fmt.Errorf("%w: no working days configured", ErrInvalidCalendar)
	}
	return nil
}

func (c CalendarConfig) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return referenceLocation()
}

func (c CalendarConfig) worksOn(day time.Weekday) bool {
	return c.WorkingDays[day]
}

// HoursPerDay returns the length of one working day in hours.
func (c CalendarConfig) HoursPerDay() float64 {
	return float64(c.EndHour - c.StartHour)
}

// BusinessHours returns the elapsed working hours in [start, end) under cfg,
// rounded to one decimal place. Weekends and hours outside the working window
// are zero-cost; start >= end yields 0, never a negative value.
func BusinessHours(start, end time.Time, cfg CalendarConfig) (float64, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	loc := cfg.location()
	start = start.In(loc)
	end = end.In(loc)

	if !end.After(start) {
		return 0, nil
	}

	total := 0.0
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	for i := 0; ; i++ {
		if i > maxCalendarDays {
			return 0, fmt.Errorf("%w: more than %d days between %s and %s",
				ErrRangeExceeded, maxCalendarDays, start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		if !day.Before(end) {
			break
		}

		if cfg.worksOn(day.Weekday()) {
			windowStart := time.Date(day.Year(), day.Month(), day.Day(), cfg.StartHour, 0, 0, 0, loc)
			windowEnd := time.Date(day.Year(), day.Month(), day.Day(), cfg.EndHour, 0, 0, 0, loc)
			overlapStart := maxTime(windowStart, start)
			overlapEnd := minTime(windowEnd, end)
			if overlapEnd.After(overlapStart) {
				total += overlapEnd.Sub(overlapStart).Hours()
			}
		}

		day = day.AddDate(0, 0, 1)
	}

	return roundHours(total), nil
}

// BusinessDaysBetween counts whole business days elapsed between two instants,
// normalizing both to midnight first. A span inside a single calendar day counts
// as zero; the result is never negative.
func BusinessDaysBetween(start, end time.Time, cfg CalendarConfig) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	loc := cfg.location()
	day := midnight(start.In(loc))
	last := midnight(end.In(loc))
	if !day.Before(last) {
		return 0, nil
	}

	days := 0
	for i := 0; day.Before(last); i++ {
		if i > maxCalendarDays {
			return 0, fmt.Errorf("%w: more than %d days between %s and %s",
				ErrRangeExceeded, maxCalendarDays, start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		if cfg.worksOn(day.Weekday()) {
			days++
		}
		day = day.AddDate(0, 0, 1)
	}

	return days, nil
}

func roundHours(hours float64) float64 {
	return math.Round(hours*10) / 10
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

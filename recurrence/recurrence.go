// Package recurrence implements the date rules behind repeating tasks:
// advancing a deadline by one period, projecting the occurrence dates of a
// series onto the calendar, and testing whether a given day belongs to a
// series. All functions are pure; dates are naive local time.
package recurrence

import (
	"time"

	"main/model"
)

// Months are treated as having 28 canonical days for recurrence purposes. A
// task anchored on the 29th, 30th or 31st recurs on the 28th every month
// thereafter, which keeps the rule valid for February without special cases.
const monthlyClampDay = 28

// HorizonYears bounds occurrence projection relative to the current year.
const HorizonYears = 5

// Horizon returns the projection boundary: December 31 of now's year plus
// HorizonYears, end of day. The boundary follows the clock, not the task
// anchor, so the visible tail of a series grows over real time.
func Horizon(now time.Time) time.Time {
	return time.Date(now.Year()+HorizonYears, time.December, 31, 23, 59, 59, 0, now.Location())
}

// Advance returns the next occurrence after date for a repeating series.
// Time of day is preserved. The caller must not invoke Advance for a
// non-repeating frequency; unknown frequencies fall through to daily-like
// behavior only after Normalize, so gate on Repeats first.
func Advance(date time.Time, freq model.RepeatFrequency) time.Time {
	switch freq {
	case model.RepeatDaily:
		return date.AddDate(0, 0, 1)
	case model.RepeatWeekly:
		return date.AddDate(0, 0, 7)
	case model.RepeatMonthly:
		day := date.Day()
		if day > monthlyClampDay {
			day = monthlyClampDay
		}
		// Jump to day 28 of the current month, add 4 days to land in the
		// next month regardless of month length, then restore the series day.
		next := time.Date(date.Year(), date.Month(), monthlyClampDay,
			date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location()).
			AddDate(0, 0, 4)
		return time.Date(next.Year(), next.Month(), day,
			date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
	case model.RepeatYearly:
		year := date.Year() + 1
		day := date.Day()
		// A Feb 29 anchor lands on Feb 28 from the next year onward.
		if date.Month() == time.February && day == 29 {
			day = 28
		}
		return time.Date(year, date.Month(), day,
			date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
	}
	return date
}

// Project returns the occurrence dates of a series starting at anchor
// (always included first) and repeatedly advancing until past horizon.
// A non-repeating frequency yields only the anchor.
func Project(anchor time.Time, freq model.RepeatFrequency, horizon time.Time) []time.Time {
	dates := []time.Time{anchor}
	if !freq.Repeats() {
		return dates
	}
	cur := anchor
	for {
		cur = Advance(cur, freq)
		if cur.After(horizon) {
			return dates
		}
		dates = append(dates, cur)
	}
}

// Matches reports whether candidate falls on an occurrence day of the series
// anchored at anchor. Comparison is at day granularity; the time of day of
// either argument is ignored. The predicate does not walk occurrences but is
// kept consistent with Advance: a monthly series anchored past day 28
// matches on the 28th, and a Feb 29 yearly anchor matches Feb 28 in later
// years.
func Matches(anchor time.Time, freq model.RepeatFrequency, candidate time.Time) bool {
	a := DateOf(anchor)
	c := DateOf(candidate)
	if c.Equal(a) {
		return true
	}
	if c.Before(a) {
		return false
	}
	switch freq {
	case model.RepeatDaily:
		return true
	case model.RepeatWeekly:
		return daysBetween(a, c)%7 == 0
	case model.RepeatMonthly:
		day := a.Day()
		if day > monthlyClampDay {
			day = monthlyClampDay
		}
		return c.Day() == day
	case model.RepeatYearly:
		day := a.Day()
		if a.Month() == time.February && day == 29 {
			day = 28
		}
		return c.Month() == a.Month() && c.Day() == day
	}
	return false
}

// DateOf truncates a timestamp to its calendar day in UTC, making day
// arithmetic immune to DST shifts in the local zone.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

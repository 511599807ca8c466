// Package dates does calendar arithmetic on YYYY-MM-DD strings.
//
// An ISODate is a local calendar day, not an instant. Converting one to a
// time.Time is only ever done to do arithmetic on the calendar fields; the
// result is formatted straight back, so no zone conversion can shift the day.
package dates

import (
	"slices"
	"strings"
	"time"
)

const Layout = "2006-01-02"

// ISODate is a calendar day formatted as YYYY-MM-DD. The zero value means
// "no date".
type ISODate string

// Of returns the calendar day of t in t's own location.
func Of(t time.Time) ISODate {
	return ISODate(t.Format(Layout))
}

// TodayLocal returns today's date in time.Local.
func TodayLocal() ISODate {
	return Of(time.Now().In(time.Local))
}

// Parse returns local midnight of d. The second result is false when d is not
// a valid YYYY-MM-DD date.
func Parse(d ISODate) (time.Time, bool) {
	c, ok := civil(d)
	if !ok {
		return time.Time{}, false
	}
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.Local), true
}

// civil maps d onto noon UTC so AddDate and Weekday operate purely on the
// calendar fields.
func civil(d ISODate) (time.Time, bool) {
	s := string(d)
	if len(s) != len(Layout) {
		return time.Time{}, false
	}
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.Add(12 * time.Hour), true
}

// Normalize accepts either a bare date or a timestamp whose first ten
// characters are a date ("2024-01-03T08:00:00.000Z") and returns the date.
// Anything else yields "".
func Normalize(s string) ISODate {
	s = strings.TrimSpace(s)
	if len(s) > len(Layout) {
		s = s[:len(Layout)]
	}
	d := ISODate(s)
	if !d.Valid() {
		return ""
	}
	return d
}

func (d ISODate) Valid() bool {
	_, ok := civil(d)
	return ok
}

func (d ISODate) String() string { return string(d) }

// DayOfWeek returns 0 (Sunday) through 6 (Saturday), or -1 for an invalid date.
func DayOfWeek(d ISODate) int {
	c, ok := civil(d)
	if !ok {
		return -1
	}
	return int(c.Weekday())
}

// AddDays returns d shifted by n calendar days, or "" for an invalid date.
func AddDays(d ISODate, n int) ISODate {
	c, ok := civil(d)
	if !ok {
		return ""
	}
	return ISODate(c.AddDate(0, 0, n).Format(Layout))
}

func Yesterday(d ISODate) ISODate {
	return AddDays(d, -1)
}

// StartOfWeek returns the Monday of d's week. Sunday belongs to the week that
// started six days earlier.
func StartOfWeek(d ISODate) ISODate {
	wd := DayOfWeek(d)
	if wd < 0 {
		return ""
	}
	diff := 1 - wd
	if wd == 0 {
		diff = -6
	}
	return AddDays(d, diff)
}

// SameWeek reports whether a and b fall in the same Monday-start week. Invalid
// or empty dates are never in the same week as anything.
func SameWeek(a, b ISODate) bool {
	sa := StartOfWeek(a)
	return sa != "" && sa == StartOfWeek(b)
}

// SameDay is false when either side is empty.
func SameDay(a, b ISODate) bool {
	return a != "" && b != "" && a == b
}

// Before compares two valid dates. ISO dates order lexicographically.
func Before(a, b ISODate) bool {
	return a < b
}

// DaysBetween returns b - a in calendar days.
func DaysBetween(a, b ISODate) int {
	ca, ok1 := civil(a)
	cb, ok2 := civil(b)
	if !ok1 || !ok2 {
		return 0
	}
	return int(cb.Sub(ca).Round(24*time.Hour) / (24 * time.Hour))
}

// WeeksBetween counts Monday-start week boundaries from a to b.
func WeeksBetween(a, b ISODate) int {
	return DaysBetween(StartOfWeek(a), StartOfWeek(b)) / 7
}

// MonthsBetween counts calendar month boundaries from a to b.
func MonthsBetween(a, b ISODate) int {
	ca, ok1 := civil(a)
	cb, ok2 := civil(b)
	if !ok1 || !ok2 {
		return 0
	}
	return (cb.Year()-ca.Year())*12 + int(cb.Month()) - int(ca.Month())
}

var weekdayShort = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// FormatDays renders weekday indices sorted ascending, e.g. "Mon, Wed, Fri".
func FormatDays(days []int) string {
	if len(days) == 0 {
		return ""
	}
	sorted := slices.Clone(days)
	slices.Sort(sorted)
	out := make([]string, 0, len(sorted))
	for _, d := range sorted {
		if d >= 0 && d < len(weekdayShort) {
			out = append(out, weekdayShort[d])
		}
	}
	return strings.Join(out, ", ")
}

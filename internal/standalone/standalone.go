// Package standalone decides when a task that belongs to no goal is due.
package standalone

import (
	"slices"

	"goaltrack/internal/dates"
	"goaltrack/internal/model"
)

// AppliesToday reports whether t is due on today. A one-off task is due
// until it is completed. Weekly and monthly tasks come due again once
// Interval weeks or months have passed since their latest completion, and
// are due when never completed. Daily and custom tasks are due every day, or
// only on DaysOfWeek when set. An unknown recurrence is never due.
func AppliesToday(t *model.StandaloneTask, today dates.ISODate) bool {
	wd := dates.DayOfWeek(today)
	if wd < 0 {
		return false
	}
	rec := t.Recurrence
	interval := max(rec.Interval, 1)

	switch rec.Type {
	case model.RecurOnce:
		return !t.Completed
	case model.RecurDaily, model.RecurCustom:
		return len(rec.DaysOfWeek) == 0 || slices.Contains(rec.DaysOfWeek, wd)
	case model.RecurWeekly:
		last := lastDone(t)
		if last == "" {
			return true
		}
		return dates.DaysBetween(last, today)/7 >= interval
	case model.RecurMonthly:
		last := lastDone(t)
		if last == "" {
			return true
		}
		return dates.MonthsBetween(last, today) >= interval
	default:
		return false
	}
}

// lastDone is the latest valid completion date, or "".
func lastDone(t *model.StandaloneTask) dates.ISODate {
	var last dates.ISODate
	for _, d := range t.CompletedDates {
		if d = dates.Normalize(string(d)); d != "" && dates.Before(last, d) {
			last = d
		}
	}
	return last
}

// DoneOn reports whether t was completed on d.
func DoneOn(t model.Task, d dates.ISODate) bool {
	return t.Base().DoneOn(d)
}

// Due filters tasks down to the standalone ones due today.
func Due(tasks []model.Task, today dates.ISODate) []*model.StandaloneTask {
	var out []*model.StandaloneTask
	for _, t := range tasks {
		if st, ok := t.(*model.StandaloneTask); ok && AppliesToday(st, today) {
			out = append(out, st)
		}
	}
	return out
}

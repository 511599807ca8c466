package habit

import (
	"goaltrack/internal/dates"
	"goaltrack/internal/model"
)

// Result is the goal after a recompute plus what changed on the way, so
// callers can log and record events without diffing goals.
type Result struct {
	Goal model.HabitGoal

	WeeklyReset bool
	// BrokenOn is the missed planned day on which the backfill ended a
	// running streak. A streak that was already broken is not reported again.
	BrokenOn  dates.ISODate
	Credited  bool
	Uncounted bool
}

func (r Result) Changed() bool {
	return r.WeeklyReset || r.BrokenOn != "" || r.Credited || r.Uncounted
}

// Recompute runs the toggle pipeline for one habit: weekly window, backfill,
// then credit or reversal for today. tasks must already contain the
// mutation that triggered the call.
func Recompute(g model.HabitGoal, tasks []model.Task, today dates.ISODate) Result {
	res := DayChange(g, tasks, today)
	before := res.Goal

	if IsDayComplete(g.ID, tasks, today) {
		res.Goal = RegisterDayIfNeeded(before, tasks, today)
		res.Credited = res.Goal.Streak != before.Streak || res.Goal.WeeklyProgress != before.WeeklyProgress
	} else {
		res.Goal = UncountIfBroken(before, tasks, today)
		res.Uncounted = res.Goal.Streak != before.Streak || res.Goal.WeeklyProgress != before.WeeklyProgress
	}
	return res
}

// DayChange is what runs when the local date moves on without a toggle:
// weekly window plus backfill.
func DayChange(g model.HabitGoal, tasks []model.Task, today dates.ISODate) Result {
	res := Result{}
	next := EnsureWeeklyWindow(g, today)
	res.WeeklyReset = next.WeeklyProgress != g.WeeklyProgress

	rolled, brokenOn := rollover(next, tasks, today)
	if rolled.Streak != next.Streak {
		res.BrokenOn = brokenOn
	}
	res.Goal = rolled
	return res
}

// Package habit advances habit goals: weekly windows, streak credit for
// completed days, reversal on undo, and backfill of days nobody looked at.
//
// Every function is a pure transform of a HabitGoal value; task lists are
// read, never written.
package habit

import (
	"goaltrack/internal/dates"
	"goaltrack/internal/model"
)

// PlannedSet returns goalID's habit tasks scheduled on the weekday of d.
func PlannedSet(goalID string, tasks []model.Task, d dates.ISODate) []*model.HabitTask {
	wd := dates.DayOfWeek(d)
	if wd < 0 {
		return nil
	}
	var out []*model.HabitTask
	for _, t := range tasks {
		ht, ok := t.(*model.HabitTask)
		if !ok || ht.GoalID != goalID || ht.DayOfWeek != wd {
			continue
		}
		out = append(out, ht)
	}
	return out
}

// IsDayComplete reports whether every task planned for d was done on d. A day
// with nothing planned is never complete.
func IsDayComplete(goalID string, tasks []model.Task, d dates.ISODate) bool {
	planned := PlannedSet(goalID, tasks, d)
	if len(planned) == 0 {
		return false
	}
	for _, t := range planned {
		if !t.DoneOn(d) {
			return false
		}
	}
	return true
}

// EnsureWeeklyWindow zeroes the weekly counter when today is in a different
// Monday-start week than the last update.
func EnsureWeeklyWindow(g model.HabitGoal, today dates.ISODate) model.HabitGoal {
	if dates.SameWeek(g.WeeklyProgress.UpdatedAt, today) {
		return g
	}
	g.WeeklyProgress = model.WeeklyProgress{Count: 0, UpdatedAt: today}
	return g
}

// ApplyRollover looks at the days strictly between lastCheck and today and
// breaks the streak at the first planned day that was not completed. It never
// moves lastCheck.
func ApplyRollover(g model.HabitGoal, tasks []model.Task, today dates.ISODate) model.HabitGoal {
	g, _ = rollover(g, tasks, today)
	return g
}

func rollover(g model.HabitGoal, tasks []model.Task, today dates.ISODate) (model.HabitGoal, dates.ISODate) {
	last := g.Streak.LastCheck
	if last == "" || !last.Valid() || !today.Valid() {
		return g, ""
	}
	for cursor := dates.AddDays(last, 1); dates.Before(cursor, today); cursor = dates.AddDays(cursor, 1) {
		if len(PlannedSet(g.ID, tasks, cursor)) == 0 {
			continue
		}
		if !IsDayComplete(g.ID, tasks, cursor) {
			g.Streak.Current = 0
			g.Streak.Active = false
			return g, cursor
		}
	}
	return g, ""
}

// RegisterDayIfNeeded credits today once. Call EnsureWeeklyWindow first.
func RegisterDayIfNeeded(g model.HabitGoal, tasks []model.Task, today dates.ISODate) model.HabitGoal {
	if !IsDayComplete(g.ID, tasks, today) {
		return g
	}
	if g.Streak.LastCheck == today {
		return g
	}

	g.Streak.Current++
	if g.Streak.Current > g.Streak.Highest {
		g.Streak.Highest = g.Streak.Current
		g.Streak.HighestAt = today
	}
	g.Streak.Active = true
	g.Streak.LastCheck = today
	g.WeeklyProgress.Count = min(g.WeeklyProgress.Count+1, max(g.WeeklyTarget, 0))
	return g
}

// UncountIfBroken reverses progress when today is no longer complete. The
// streak is only touched when today's credit is the thing being undone, and
// the high-water mark only rolls back when today produced it.
// Call EnsureWeeklyWindow first.
func UncountIfBroken(g model.HabitGoal, tasks []model.Task, today dates.ISODate) model.HabitGoal {
	if IsDayComplete(g.ID, tasks, today) {
		return g
	}

	g.WeeklyProgress.Count = max(0, g.WeeklyProgress.Count-1)
	g.WeeklyProgress.UpdatedAt = today

	if g.Streak.LastCheck != today {
		return g
	}

	prev := g.Streak.Current
	g.Streak.Current = max(0, prev-1)
	if g.Streak.HighestAt == today && g.Streak.Highest == prev {
		g.Streak.Highest = max(0, g.Streak.Highest-1)
		g.Streak.HighestAt = ""
	}
	g.Streak.LastCheck = dates.Yesterday(today)
	g.Streak.Active = g.Streak.Current > 0
	return g
}

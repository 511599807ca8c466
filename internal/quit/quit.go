// Package quit tracks streaks for goals about stopping a behaviour. Progress
// is driven by the relapse log rather than by tasks.
package quit

import (
	"math"

	"goaltrack/internal/dates"
	"goaltrack/internal/model"
)

// rollingWindowDays is the trailing window used for the relapse rate.
const rollingWindowDays = 28

// ApplyDailyRollover walks every day after lastCheck up to and including
// today. Clean days extend the streak; a relapse day resets it. When the goal
// has never been checked the walk starts after its start date.
func ApplyDailyRollover(g model.QuitGoal, today dates.ISODate) model.QuitGoal {
	last := g.Streak.LastCheck
	if last == "" {
		last = dates.Normalize(g.StartDate)
	}
	if !last.Valid() || !today.Valid() || last == today {
		return g
	}

	relapsed := relapseDays(g.Relapses)
	for cursor := dates.AddDays(last, 1); !dates.Before(today, cursor); cursor = dates.AddDays(cursor, 1) {
		if relapsed[cursor] {
			g.Streak.Current = 0
			g.Streak.Active = false
		} else {
			g.Streak.Current++
			g.Streak.Highest = max(g.Streak.Highest, g.Streak.Current)
			g.Streak.Active = true
		}
		g.Streak.LastCheck = cursor
	}
	return g
}

// RegisterRelapse logs a relapse on day and resets the streak immediately,
// whatever the rollover state.
func RegisterRelapse(g model.QuitGoal, reason string, day dates.ISODate) model.QuitGoal {
	relapses := make([]model.Relapse, 0, len(g.Relapses)+1)
	relapses = append(relapses, g.Relapses...)
	g.Relapses = append(relapses, model.Relapse{Date: string(day), Reason: reason})

	g.Streak.Current = 0
	g.Streak.Active = false
	g.Streak.LastCheck = day
	return g
}

// RollingPerWeek refreshes Stats with the relapse rate over the last four
// weeks ending today.
func RollingPerWeek(g model.QuitGoal, today dates.ISODate) model.QuitGoal {
	from := dates.AddDays(today, -(rollingWindowDays - 1))
	n := 0
	for _, r := range g.Relapses {
		d := dates.Normalize(r.Date)
		if d == "" || dates.Before(d, from) || dates.Before(today, d) {
			continue
		}
		n++
	}
	rate := float64(n) / (rollingWindowDays / 7)
	g.Stats = &model.QuitStats{
		RollingPerWeek: math.Round(rate*100) / 100,
		UpdatedAt:      string(today),
	}
	return g
}

func relapseDays(rs []model.Relapse) map[dates.ISODate]bool {
	out := make(map[dates.ISODate]bool, len(rs))
	for _, r := range rs {
		if d := dates.Normalize(r.Date); d != "" {
			out[d] = true
		}
	}
	return out
}

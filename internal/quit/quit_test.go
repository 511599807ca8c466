package quit

import (
	"testing"

	"goaltrack/internal/dates"
	"goaltrack/internal/model"

	"github.com/stretchr/testify/assert"
)

func quitGoal(lastCheck dates.ISODate, relapses ...string) model.QuitGoal {
	g := model.QuitGoal{
		GoalBase: model.GoalBase{ID: "q1", Type: model.GoalQuit, StartDate: "2023-12-30T10:00:00.000Z"},
		Streak:   model.QuitStreak{LastCheck: lastCheck},
	}
	for _, r := range relapses {
		g.Relapses = append(g.Relapses, model.Relapse{Date: r})
	}
	return g
}

func TestApplyDailyRollover_CountsCleanDaysAndResetsOnRelapse(t *testing.T) {
	g := quitGoal("2024-01-01", "2024-01-03")

	// Walk one day at a time to observe each step.
	steps := []struct {
		day     dates.ISODate
		current int
		active  bool
	}{
		{"2024-01-02", 1, true},
		{"2024-01-03", 0, false},
		{"2024-01-04", 1, true},
		{"2024-01-05", 2, true},
	}
	stepped := g
	for _, s := range steps {
		stepped = ApplyDailyRollover(stepped, s.day)
		assert.Equal(t, s.current, stepped.Streak.Current, "day %s", s.day)
		assert.Equal(t, s.active, stepped.Streak.Active, "day %s", s.day)
		assert.Equal(t, s.day, stepped.Streak.LastCheck)
	}

	// One call across the whole gap lands on the same state.
	jumped := ApplyDailyRollover(g, "2024-01-05")
	assert.Equal(t, stepped.Streak, jumped.Streak)
	assert.Equal(t, 2, jumped.Streak.Current)
	assert.Equal(t, 2, jumped.Streak.Highest)
}

func TestApplyDailyRollover_StartsFromStartDate(t *testing.T) {
	g := quitGoal("")

	got := ApplyDailyRollover(g, "2024-01-02")
	assert.Equal(t, 3, got.Streak.Current)
	assert.Equal(t, dates.ISODate("2024-01-02"), got.Streak.LastCheck)
}

func TestApplyDailyRollover_Noops(t *testing.T) {
	g := quitGoal("2024-01-05")
	g.Streak.Current = 4
	assert.Equal(t, g, ApplyDailyRollover(g, "2024-01-05"))
	assert.Equal(t, g, ApplyDailyRollover(g, "2024-01-03"), "today before lastCheck")

	broken := quitGoal("")
	broken.StartDate = ""
	assert.Equal(t, broken, ApplyDailyRollover(broken, "2024-01-05"))
}

func TestApplyDailyRollover_TimestampRelapse(t *testing.T) {
	g := quitGoal("2024-01-01", "2024-01-02T23:30:00.000Z")
	got := ApplyDailyRollover(g, "2024-01-03")
	assert.Equal(t, 1, got.Streak.Current)
}

func TestRegisterRelapse_TakesPrecedence(t *testing.T) {
	g := quitGoal("2024-01-04")
	g.Streak = model.QuitStreak{Current: 9, Highest: 12, Active: true, LastCheck: "2024-01-04"}

	got := RegisterRelapse(g, "stress", "2024-01-05")

	assert.Equal(t, model.QuitStreak{Current: 0, Highest: 12, Active: false, LastCheck: "2024-01-05"}, got.Streak)
	assert.Equal(t, []model.Relapse{{Date: "2024-01-05", Reason: "stress"}}, got.Relapses)
	assert.Empty(t, g.Relapses, "input goal untouched")

	// The relapse day is already processed; the next day starts a new streak.
	next := ApplyDailyRollover(got, "2024-01-06")
	assert.Equal(t, 1, next.Streak.Current)
}

func TestRollingPerWeek(t *testing.T) {
	g := quitGoal("", "2024-01-29", "2024-02-10", "2024-02-20", "2024-02-26")
	got := RollingPerWeek(g, "2024-02-26")

	// 2024-01-29 is outside the 28 days ending 2024-02-26.
	assert.Equal(t, 0.75, got.Stats.RollingPerWeek)
	assert.Equal(t, "2024-02-26", got.Stats.UpdatedAt)
	assert.Nil(t, g.Stats)
}

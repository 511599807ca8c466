package model

import (
	"testing"
	"time"

	"goaltrack/internal/dates"

	"github.com/stretchr/testify/assert"
)

func TestHabitGoal_SetDaysKeepsTargetInSync(t *testing.T) {
	g := NewHabitGoal("Run", "health", []int{5, 1, 3, 3, 9}, time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local))

	assert.Equal(t, []int{1, 3, 5}, g.DaysOfWeek)
	assert.Equal(t, 3, g.WeeklyTarget)
	assert.Equal(t, dates.ISODate("2024-01-01"), g.WeeklyProgress.UpdatedAt)

	g.WeeklyProgress.Count = 3
	g.SetDays([]int{1})
	assert.Equal(t, 1, g.WeeklyTarget)
	assert.Equal(t, 1, g.WeeklyProgress.Count)
}

func TestNewHabitTasks_OnePerDay(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	g := NewHabitGoal("Run", "health", []int{1, 3, 5}, now)

	tasks := NewHabitTasks(g, "Run 5k", now)
	assert.Len(t, tasks, 3)
	for i, tk := range tasks {
		ht := tk.(*HabitTask)
		assert.Equal(t, g.ID, ht.GoalID)
		assert.Equal(t, g.DaysOfWeek[i], ht.DayOfWeek)
		assert.NotEmpty(t, ht.ID)
	}
}

func TestSetDoneOn_DoesNotAliasSnapshots(t *testing.T) {
	ht := &HabitTask{TaskBase: TaskBase{CompletedDates: []dates.ISODate{"2024-01-01"}}}
	snapshot := ht.CloneTask().(*HabitTask)

	ht.SetDoneOn("2024-01-08", true)
	ht.SetDoneOn("2024-01-01", false)

	assert.Equal(t, []dates.ISODate{"2024-01-08"}, ht.CompletedDates)
	assert.Equal(t, []dates.ISODate{"2024-01-01"}, snapshot.CompletedDates)
	assert.True(t, ht.DoneOn("2024-01-08"))
	assert.False(t, ht.DoneOn("2024-01-01"))
}

func TestStamp(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 30, 0, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-01-01T08:30:00.000Z", Stamp(now))
}

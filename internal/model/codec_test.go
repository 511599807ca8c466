package model

import (
	"encoding/json"
	"testing"

	"goaltrack/internal/dates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storedGoals = `[
  {"id":"g1","type":"habit","title":"Run","category":"health","startDate":"2024-01-01T08:00:00.000Z",
   "messages":{"fromPast":{"type":"text","content":"go"},"fromFuture":{"type":"text","content":"thanks"}},
   "remindersEnabled":true,"createdAt":"2024-01-01T08:00:00.000Z","updatedAt":"2024-01-01T08:00:00.000Z",
   "progressType":"days","daysOfWeek":[1,3,5],"weeklyTarget":3,
   "streak":{"current":2,"highest":4,"active":true,"lastCheck":"2024-01-03","highestAt":"2023-12-20"},
   "weeklyProgress":{"count":2,"updatedAt":"2024-01-03"}},
  {"id":"g2","type":"project","title":"Ship","category":"work","startDate":"","messages":{"fromPast":{"type":"text","content":""},"fromFuture":{"type":"text","content":""}},
   "remindersEnabled":false,"createdAt":"","updatedAt":"","progressType":"tasks","taskOrdering":"manual"},
  {"id":"g3","type":"quit","title":"Smoking","category":"health","startDate":"2024-01-01","messages":{"fromPast":{"type":"text","content":""},"fromFuture":{"type":"text","content":""}},
   "remindersEnabled":false,"createdAt":"","updatedAt":"","progressType":"streak",
   "streak":{"current":0,"highest":3,"active":false,"lastCheck":"2024-01-03"},
   "relapses":[{"date":"2024-01-03T21:00:00.000Z","reason":"party"}]},
  {"id":"g4","type":"savings","title":"Future kind","target":1000}
]`

func TestDecodeGoals_Variants(t *testing.T) {
	goals, warns, err := DecodeGoals([]byte(storedGoals))
	require.NoError(t, err)
	require.Len(t, goals, 4)
	require.Len(t, warns, 1)
	assert.Equal(t, "g4", warns[0].ID)

	h, ok := goals[0].(*HabitGoal)
	require.True(t, ok)
	assert.Equal(t, []int{1, 3, 5}, h.DaysOfWeek)
	assert.Equal(t, 3, h.WeeklyTarget)
	assert.Equal(t, dates.ISODate("2024-01-03"), h.Streak.LastCheck)
	assert.Equal(t, dates.ISODate("2023-12-20"), h.Streak.HighestAt)
	assert.Equal(t, "thanks", h.Messages.FromFuture.Content)

	p, ok := goals[1].(*ProjectGoal)
	require.True(t, ok)
	assert.Equal(t, OrderManual, p.TaskOrdering)

	q, ok := goals[2].(*QuitGoal)
	require.True(t, ok)
	require.Len(t, q.Relapses, 1)
	assert.Equal(t, "party", q.Relapses[0].Reason)

	u, ok := goals[3].(*UnknownGoal)
	require.True(t, ok)
	assert.Equal(t, GoalType("savings"), u.Kind())
}

func TestEncodeGoals_UnknownWrittenBackVerbatim(t *testing.T) {
	goals, _, err := DecodeGoals([]byte(storedGoals))
	require.NoError(t, err)

	b, err := EncodeGoals(goals)
	require.NoError(t, err)

	var arr []map[string]any
	require.NoError(t, json.Unmarshal(b, &arr))
	require.Len(t, arr, 4)
	assert.Equal(t, "savings", arr[3]["type"])
	assert.Equal(t, float64(1000), arr[3]["target"])
	assert.Equal(t, "habit", arr[0]["type"])
	streak := arr[0]["streak"].(map[string]any)
	assert.Equal(t, "2024-01-03", streak["lastCheck"])
}

func TestDecodeGoals_NotAnArray(t *testing.T) {
	_, _, err := DecodeGoals([]byte(`{"id":"x"}`))
	assert.Error(t, err)

	goals, warns, err := DecodeGoals(nil)
	assert.NoError(t, err)
	assert.Empty(t, goals)
	assert.Empty(t, warns)
}

func TestDecodeTasks_UnknownRecurrenceIsKept(t *testing.T) {
	blob := `[
	  {"id":"t1","type":"habit","title":"Run","goalId":"g1","dayOfWeek":1,"completed":false,"completedDates":["2024-01-01"],"createdAt":"","updatedAt":""},
	  {"id":"t2","type":"standalone","title":"Pay rent","completed":false,"completedDates":[],"createdAt":"","updatedAt":"",
	   "recurrence":{"type":"yearly","interval":1}},
	  {"id":"t3","type":"project","title":"Draft","goalId":"g2","priority":"high","order":2,"completed":true,"createdAt":"","updatedAt":"",
	   "subtasks":[{"id":"s1","title":"Outline","completed":true}]},
	  {"id":"t4","type":"chore","title":"?"}
	]`
	tasks, warns, err := DecodeTasks([]byte(blob))
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	require.Len(t, warns, 2)

	st, ok := tasks[1].(*StandaloneTask)
	require.True(t, ok)
	assert.Equal(t, RecurrenceType("yearly"), st.Recurrence.Type)

	pt := tasks[2].(*ProjectTask)
	require.NotNil(t, pt.Order)
	assert.Equal(t, 2, *pt.Order)
	assert.Equal(t, []dates.ISODate{}, pt.CompletedDates)
	assert.Equal(t, "g2", pt.GoalRef())

	_, ok = tasks[3].(*UnknownTask)
	assert.True(t, ok)
}

func TestEncodeTasks_CompletedDatesNeverNull(t *testing.T) {
	ht := &HabitTask{TaskBase: TaskBase{ID: "t1", Title: "Run"}, GoalID: "g1", DayOfWeek: 2}
	b, err := EncodeTasks([]Task{ht})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"completedDates":[]`)
	assert.Contains(t, string(b), `"type":"habit"`)
}

func TestDecodeSingleRecords(t *testing.T) {
	g, err := DecodeGoal([]byte(`{"id":"p1","type":"project","title":"Ship","taskOrdering":"manual"}`))
	require.NoError(t, err)
	assert.Equal(t, OrderManual, g.(*ProjectGoal).TaskOrdering)

	_, err = DecodeGoal([]byte(`{"id":"x","type":"dream"}`))
	assert.Error(t, err)

	task, err := DecodeTask([]byte(`{"id":"s1","type":"standalone","title":"Mop","recurrence":{"type":"daily"}}`))
	require.NoError(t, err)
	assert.Equal(t, []dates.ISODate{}, task.Base().CompletedDates)

	_, err = DecodeTask([]byte(`{"id":"s1","type":"standalone","recurrence":{"type":"hourly"}}`))
	assert.Error(t, err)
}

package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_FiltersAndStats(t *testing.T) {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	now := base
	r := NewMemoryRepository().WithClock(func() time.Time { return now })

	require.NoError(t, r.RecordEvent(EventDayChange, EventMetadata{"day": "2024-01-01"}))
	require.NoError(t, r.RecordEvent(EventDayCredited, EventMetadata{"goal_id": "h1"}))
	now = base.Add(24 * time.Hour)
	require.NoError(t, r.RecordEvent(EventDayChange, EventMetadata{"day": "2024-01-02"}))
	require.NoError(t, r.RecordEvent(EventDayCredited, EventMetadata{"goal_id": "h1"}))
	require.NoError(t, r.RecordEvent(EventRelapse, EventMetadata{"goal_id": "q1"}))

	all, err := r.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	recent, err := r.GetEvents(now, []EventType{EventDayCredited})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, 4, recent[0].ID)

	stats, err := CalculateStats(all, base)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", stats.Period)
	assert.Equal(t, 2, stats.DaysCredited)
	assert.Equal(t, 2, stats.DayChanges)
	assert.Equal(t, 1.0, stats.CreditsPerDay)
	assert.Equal(t, map[string]int{"h1": 2}, stats.CreditsByGoal)
	assert.Equal(t, map[string]int{"q1": 1}, stats.RelapsesByGoal)

	require.NoError(t, r.Clear())
	all, _ = r.GetEvents(time.Time{}, nil)
	assert.Empty(t, all)
}

func TestMemoryRepository_Limit(t *testing.T) {
	r := NewMemoryRepository()
	r.limit = 2
	for i := 0; i < 3; i++ {
		require.NoError(t, r.RecordEvent(EventDayChange, nil))
	}
	all, _ := r.GetEvents(time.Time{}, nil)
	require.Len(t, all, 2)
	assert.Equal(t, 2, all[0].ID)
}

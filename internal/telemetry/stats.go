package telemetry

import (
	"encoding/json"
	"time"
)

type Stats struct {
	Period         string            `json:"period"`
	EventCounts    map[EventType]int `json:"event_counts"`
	DaysCredited   int               `json:"days_credited"`
	DaysUncounted  int               `json:"days_uncounted"`
	StreaksBroken  int               `json:"streaks_broken"`
	WeeklyResets   int               `json:"weekly_resets"`
	Relapses       int               `json:"relapses"`
	DayChanges     int               `json:"day_changes"`
	CreditsPerDay  float64           `json:"credits_per_day"`
	CreditsByGoal  map[string]int    `json:"credits_by_goal"`
	RelapsesByGoal map[string]int    `json:"relapses_by_goal"`
}

// CalculateStats summarises streak activity from events
func CalculateStats(events []Event, since time.Time) (Stats, error) {
	stats := Stats{
		Period:         since.Format("2006-01-02"),
		EventCounts:    make(map[EventType]int),
		CreditsByGoal:  make(map[string]int),
		RelapsesByGoal: make(map[string]int),
	}

	for _, event := range events {
		stats.EventCounts[event.Type]++

		var metadata EventMetadata
		if err := json.Unmarshal([]byte(event.Metadata), &metadata); err != nil {
			continue
		}
		goalID, _ := metadata["goal_id"].(string)

		switch event.Type {
		case EventDayCredited:
			stats.DaysCredited++
			if goalID != "" {
				stats.CreditsByGoal[goalID]++
			}
		case EventDayUncounted:
			stats.DaysUncounted++
		case EventStreakBroken:
			stats.StreaksBroken++
		case EventWeeklyReset:
			stats.WeeklyResets++
		case EventRelapse:
			stats.Relapses++
			if goalID != "" {
				stats.RelapsesByGoal[goalID]++
			}
		case EventDayChange:
			stats.DayChanges++
		}
	}

	if stats.DayChanges > 0 {
		stats.CreditsPerDay = float64(stats.DaysCredited) / float64(stats.DayChanges)
	}

	return stats, nil
}

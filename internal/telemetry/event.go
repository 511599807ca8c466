package telemetry

import "time"

type EventType string

const (
	EventDayCredited   EventType = "day_credited"
	EventDayUncounted  EventType = "day_uncounted"
	EventStreakBroken  EventType = "streak_broken"
	EventWeeklyReset   EventType = "weekly_reset"
	EventRelapse       EventType = "relapse"
	EventDayChange     EventType = "day_change"
	EventPersistFailed EventType = "persist_failed"
)

type Event struct {
	ID        int       `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Metadata  string    `json:"metadata"`
}

type EventMetadata map[string]interface{}

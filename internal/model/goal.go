package model

import (
	"encoding/json"
	"slices"
	"time"

	"goaltrack/internal/dates"

	"github.com/google/uuid"
)

type GoalType string

const (
	GoalHabit   GoalType = "habit"
	GoalProject GoalType = "project"
	GoalQuit    GoalType = "quit"
)

type ProjectOrdering string

const (
	OrderByPriority ProjectOrdering = "priority"
	OrderByOrder    ProjectOrdering = "order"
	OrderManual     ProjectOrdering = "manual"
)

// Goal is one of *HabitGoal, *ProjectGoal, *QuitGoal or *UnknownGoal.
type Goal interface {
	Base() *GoalBase
	Kind() GoalType
	CloneGoal() Goal
	isGoal()
}

type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type Messages struct {
	FromPast   Message `json:"fromPast"`
	FromFuture Message `json:"fromFuture"`
}

type GoalBase struct {
	ID               string   `json:"id"`
	Type             GoalType `json:"type"`
	Emoji            string   `json:"emoji,omitempty"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate,omitempty"`
	Messages         Messages `json:"messages"`
	RemindersEnabled bool     `json:"remindersEnabled"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

func (b *GoalBase) Base() *GoalBase { return b }

// Touch stamps UpdatedAt.
func (b *GoalBase) Touch(now time.Time) {
	b.UpdatedAt = Stamp(now)
}

type HabitStreak struct {
	Current   int           `json:"current"`
	Highest   int           `json:"highest"`
	Active    bool          `json:"active"`
	LastCheck dates.ISODate `json:"lastCheck"`
	HighestAt dates.ISODate `json:"highestAt,omitempty"`
}

type WeeklyProgress struct {
	Count     int           `json:"count"`
	UpdatedAt dates.ISODate `json:"updatedAt"`
}

type HabitGoal struct {
	GoalBase
	ProgressType string `json:"progressType"`
	// DaysOfWeek uses 0=Sunday..6=Saturday.
	DaysOfWeek []int `json:"daysOfWeek"`
	// WeeklyTarget mirrors len(DaysOfWeek).
	WeeklyTarget   int            `json:"weeklyTarget"`
	Streak         HabitStreak    `json:"streak"`
	WeeklyProgress WeeklyProgress `json:"weeklyProgress"`
}

func (*HabitGoal) Kind() GoalType { return GoalHabit }
func (*HabitGoal) isGoal()        {}

func (g *HabitGoal) CloneGoal() Goal {
	c := *g
	c.DaysOfWeek = slices.Clone(g.DaysOfWeek)
	return &c
}

// SetDays replaces the planned weekdays, dropping duplicates and out-of-range
// values, and keeps WeeklyTarget in sync.
func (g *HabitGoal) SetDays(days []int) {
	out := make([]int, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 || slices.Contains(out, d) {
			continue
		}
		out = append(out, d)
	}
	slices.Sort(out)
	g.DaysOfWeek = out
	g.WeeklyTarget = len(out)
	if g.WeeklyProgress.Count > g.WeeklyTarget {
		g.WeeklyProgress.Count = g.WeeklyTarget
	}
}

type ProjectGoal struct {
	GoalBase
	ProgressType string          `json:"progressType"`
	TaskOrdering ProjectOrdering `json:"taskOrdering"`
}

func (*ProjectGoal) Kind() GoalType { return GoalProject }
func (*ProjectGoal) isGoal()        {}

func (g *ProjectGoal) CloneGoal() Goal {
	c := *g
	return &c
}

type QuitStreak struct {
	Current   int           `json:"current"`
	Highest   int           `json:"highest"`
	Active    bool          `json:"active"`
	LastCheck dates.ISODate `json:"lastCheck"`
}

// Relapse.Date may be a bare date or a full timestamp; only its day matters.
type Relapse struct {
	Date   string `json:"date"`
	Reason string `json:"reason,omitempty"`
}

type QuitStats struct {
	RollingPerWeek float64 `json:"rollingPerWeek"`
	UpdatedAt      string  `json:"updatedAt"`
}

type QuitGoal struct {
	GoalBase
	ProgressType    string     `json:"progressType"`
	Streak          QuitStreak `json:"streak"`
	Relapses        []Relapse  `json:"relapses"`
	BaselinePerWeek *float64   `json:"baselinePerWeek,omitempty"`
	Stats           *QuitStats `json:"stats,omitempty"`
}

func (*QuitGoal) Kind() GoalType { return GoalQuit }
func (*QuitGoal) isGoal()        {}

func (g *QuitGoal) CloneGoal() Goal {
	c := *g
	c.Relapses = slices.Clone(g.Relapses)
	if g.Stats != nil {
		s := *g.Stats
		c.Stats = &s
	}
	if g.BaselinePerWeek != nil {
		b := *g.BaselinePerWeek
		c.BaselinePerWeek = &b
	}
	return &c
}

// UnknownGoal carries a record whose type tag this version does not know.
// It is inert and written back exactly as it was read.
type UnknownGoal struct {
	GoalBase
	Raw json.RawMessage `json:"-"`
}

func (g *UnknownGoal) Kind() GoalType { return g.Type }
func (*UnknownGoal) isGoal()          {}

func (g *UnknownGoal) CloneGoal() Goal {
	c := *g
	c.Raw = slices.Clone(g.Raw)
	return &c
}

func (g *UnknownGoal) MarshalJSON() ([]byte, error) {
	if len(g.Raw) == 0 {
		return []byte("null"), nil
	}
	return g.Raw, nil
}

func newGoalBase(kind GoalType, title, category string, now time.Time) GoalBase {
	ts := Stamp(now)
	return GoalBase{
		ID:        NewID(),
		Type:      kind,
		Title:     title,
		Category:  category,
		StartDate: ts,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func NewHabitGoal(title, category string, days []int, now time.Time) *HabitGoal {
	g := &HabitGoal{
		GoalBase:     newGoalBase(GoalHabit, title, category, now),
		ProgressType: "days",
		WeeklyProgress: WeeklyProgress{
			UpdatedAt: dates.Of(now),
		},
	}
	g.SetDays(days)
	return g
}

func NewProjectGoal(title, category string, ordering ProjectOrdering, now time.Time) *ProjectGoal {
	if ordering == "" {
		ordering = OrderByPriority
	}
	return &ProjectGoal{
		GoalBase:     newGoalBase(GoalProject, title, category, now),
		ProgressType: "tasks",
		TaskOrdering: ordering,
	}
}

func NewQuitGoal(title, category string, now time.Time) *QuitGoal {
	return &QuitGoal{
		GoalBase:     newGoalBase(GoalQuit, title, category, now),
		ProgressType: "streak",
		Relapses:     []Relapse{},
	}
}

// NewID returns a random identifier for goals, tasks and subtasks.
func NewID() string {
	return uuid.NewString()
}

// Stamp formats now the way the stored records expect timestamps.
func Stamp(now time.Time) string {
	return now.UTC().Format("2006-01-02T15:04:05.000Z")
}

// FindGoal returns the goal with id and its index, or (nil, -1).
func FindGoal(goals []Goal, id string) (Goal, int) {
	for i, g := range goals {
		if g != nil && g.Base().ID == id {
			return g, i
		}
	}
	return nil, -1
}

func CloneGoals(goals []Goal) []Goal {
	out := make([]Goal, len(goals))
	for i, g := range goals {
		out[i] = g.CloneGoal()
	}
	return out
}

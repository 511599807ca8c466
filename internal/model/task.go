package model

import (
	"encoding/json"
	"slices"
	"time"

	"goaltrack/internal/dates"
)

type TaskType string

const (
	TaskHabit      TaskType = "habit"
	TaskProject    TaskType = "project"
	TaskStandalone TaskType = "standalone"
)

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type RecurrenceType string

const (
	RecurOnce    RecurrenceType = "once"
	RecurDaily   RecurrenceType = "daily"
	RecurWeekly  RecurrenceType = "weekly"
	RecurMonthly RecurrenceType = "monthly"
	RecurCustom  RecurrenceType = "custom"
)

func (r RecurrenceType) Known() bool {
	switch r {
	case RecurOnce, RecurDaily, RecurWeekly, RecurMonthly, RecurCustom:
		return true
	default:
		return false
	}
}

// Task is one of *HabitTask, *ProjectTask, *StandaloneTask or *UnknownTask.
type Task interface {
	Base() *TaskBase
	Kind() TaskType
	// GoalRef is the owning goal id, empty for standalone tasks.
	GoalRef() string
	CloneTask() Task
	isTask()
}

type Subtask struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Reminder struct {
	Enabled bool   `json:"enabled"`
	Time    string `json:"time,omitempty"`
}

type TaskBase struct {
	ID             string          `json:"id"`
	Type           TaskType        `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Reminder       *Reminder       `json:"reminder,omitempty"`
	Subtasks       []Subtask       `json:"subtasks,omitempty"`
	Completed      bool            `json:"completed"`
	CompletedDates []dates.ISODate `json:"completedDates"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
}

func (b *TaskBase) Base() *TaskBase { return b }

func (b *TaskBase) Touch(now time.Time) {
	b.UpdatedAt = Stamp(now)
}

// DoneOn reports whether d is in CompletedDates.
func (b *TaskBase) DoneOn(d dates.ISODate) bool {
	return slices.Contains(b.CompletedDates, d)
}

// SetDoneOn adds or removes d from CompletedDates. It always allocates a new
// slice so earlier snapshots of the task are left alone.
func (b *TaskBase) SetDoneOn(d dates.ISODate, done bool) {
	next := make([]dates.ISODate, 0, len(b.CompletedDates)+1)
	for _, c := range b.CompletedDates {
		if c != d {
			next = append(next, c)
		}
	}
	if done {
		next = append(next, d)
	}
	b.CompletedDates = next
}

func (b TaskBase) clone() TaskBase {
	b.Subtasks = slices.Clone(b.Subtasks)
	b.CompletedDates = slices.Clone(b.CompletedDates)
	if b.Reminder != nil {
		r := *b.Reminder
		b.Reminder = &r
	}
	return b
}

// HabitTask is one planned weekday of a habit goal. A habit active on N
// weekdays owns N of these.
type HabitTask struct {
	TaskBase
	GoalID    string `json:"goalId"`
	DayOfWeek int    `json:"dayOfWeek"`
}

func (*HabitTask) Kind() TaskType    { return TaskHabit }
func (t *HabitTask) GoalRef() string { return t.GoalID }
func (*HabitTask) isTask()           {}

func (t *HabitTask) CloneTask() Task {
	c := *t
	c.TaskBase = t.TaskBase.clone()
	return &c
}

type ProjectTask struct {
	TaskBase
	GoalID      string   `json:"goalId"`
	Priority    Priority `json:"priority,omitempty"`
	Order       *int     `json:"order,omitempty"`
	ManualIndex *int     `json:"manualIndex,omitempty"`
}

func (*ProjectTask) Kind() TaskType    { return TaskProject }
func (t *ProjectTask) GoalRef() string { return t.GoalID }
func (*ProjectTask) isTask()           {}

func (t *ProjectTask) CloneTask() Task {
	c := *t
	c.TaskBase = t.TaskBase.clone()
	if t.Order != nil {
		o := *t.Order
		c.Order = &o
	}
	if t.ManualIndex != nil {
		m := *t.ManualIndex
		c.ManualIndex = &m
	}
	return &c
}

type Recurrence struct {
	Type RecurrenceType `json:"type"`
	// Interval counts weeks or months between occurrences; 0 means 1.
	Interval   int   `json:"interval,omitempty"`
	DaysOfWeek []int `json:"daysOfWeek,omitempty"`
}

type StandaloneTask struct {
	TaskBase
	Recurrence Recurrence `json:"recurrence"`
}

func (*StandaloneTask) Kind() TaskType { return TaskStandalone }
func (*StandaloneTask) GoalRef() string {
	return ""
}
func (*StandaloneTask) isTask() {}

func (t *StandaloneTask) CloneTask() Task {
	c := *t
	c.TaskBase = t.TaskBase.clone()
	c.Recurrence.DaysOfWeek = slices.Clone(t.Recurrence.DaysOfWeek)
	return &c
}

// UnknownTask preserves a record with an unrecognised type tag.
type UnknownTask struct {
	TaskBase
	Raw json.RawMessage `json:"-"`
}

func (t *UnknownTask) Kind() TaskType { return t.Type }
func (*UnknownTask) GoalRef() string  { return "" }
func (*UnknownTask) isTask()          {}

func (t *UnknownTask) CloneTask() Task {
	c := *t
	c.TaskBase = t.TaskBase.clone()
	c.Raw = slices.Clone(t.Raw)
	return &c
}

func (t *UnknownTask) MarshalJSON() ([]byte, error) {
	if len(t.Raw) == 0 {
		return []byte("null"), nil
	}
	return t.Raw, nil
}

func newTaskBase(kind TaskType, title string, now time.Time) TaskBase {
	ts := Stamp(now)
	return TaskBase{
		ID:             NewID(),
		Type:           kind,
		Title:          title,
		CompletedDates: []dates.ISODate{},
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
}

// NewHabitTasks creates one task per planned weekday of g.
func NewHabitTasks(g *HabitGoal, title string, now time.Time) []Task {
	out := make([]Task, 0, len(g.DaysOfWeek))
	for _, d := range g.DaysOfWeek {
		out = append(out, &HabitTask{
			TaskBase:  newTaskBase(TaskHabit, title, now),
			GoalID:    g.ID,
			DayOfWeek: d,
		})
	}
	return out
}

func NewProjectTask(goalID, title string, priority Priority, now time.Time) *ProjectTask {
	return &ProjectTask{
		TaskBase: newTaskBase(TaskProject, title, now),
		GoalID:   goalID,
		Priority: priority,
	}
}

func NewStandaloneTask(title string, rec Recurrence, now time.Time) *StandaloneTask {
	return &StandaloneTask{
		TaskBase:   newTaskBase(TaskStandalone, title, now),
		Recurrence: rec,
	}
}

func NewSubtask(title string) Subtask {
	return Subtask{ID: NewID(), Title: title}
}

// FindTask returns the task with id and its index, or (nil, -1).
func FindTask(tasks []Task, id string) (Task, int) {
	for i, t := range tasks {
		if t != nil && t.Base().ID == id {
			return t, i
		}
	}
	return nil, -1
}

// TasksOfGoal returns the tasks owned by goalID, in input order.
func TasksOfGoal(tasks []Task, goalID string) []Task {
	out := make([]Task, 0)
	for _, t := range tasks {
		if t != nil && goalID != "" && t.GoalRef() == goalID {
			out = append(out, t)
		}
	}
	return out
}

func CloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.CloneTask()
	}
	return out
}

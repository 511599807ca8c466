package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"goaltrack/internal/dates"
)

// Warning describes a record that was read but could not be fully understood.
// Such records load as inert Unknown* values instead of failing the load.
type Warning struct {
	Index  int
	ID     string
	Reason string
}

func (w Warning) String() string {
	if w.ID != "" {
		return fmt.Sprintf("record %d (%s): %s", w.Index, w.ID, w.Reason)
	}
	return fmt.Sprintf("record %d: %s", w.Index, w.Reason)
}

type typeProbe struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

func splitArray(b []byte) ([]json.RawMessage, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	return raws, nil
}

// DecodeGoals parses a JSON array of goals. Only a blob that is not a JSON
// array is an error; bad elements become *UnknownGoal with a warning.
func DecodeGoals(b []byte) ([]Goal, []Warning, error) {
	raws, err := splitArray(b)
	if err != nil {
		return nil, nil, err
	}
	goals := make([]Goal, 0, len(raws))
	var warns []Warning
	for i, raw := range raws {
		g, w := decodeGoal(raw)
		if w != "" {
			warns = append(warns, Warning{Index: i, ID: g.Base().ID, Reason: w})
		}
		goals = append(goals, g)
	}
	return goals, warns, nil
}

func decodeGoal(raw json.RawMessage) (Goal, string) {
	unknown := func(reason string) (Goal, string) {
		u := &UnknownGoal{Raw: append(json.RawMessage(nil), raw...)}
		_ = json.Unmarshal(raw, &u.GoalBase)
		return u, reason
	}

	var p typeProbe
	if err := json.Unmarshal(raw, &p); err != nil {
		return unknown("not an object: " + err.Error())
	}

	var g Goal
	switch GoalType(p.Type) {
	case GoalHabit:
		g = &HabitGoal{}
	case GoalProject:
		g = &ProjectGoal{}
	case GoalQuit:
		g = &QuitGoal{}
	default:
		return unknown(fmt.Sprintf("unknown goal type %q", p.Type))
	}
	if err := json.Unmarshal(raw, g); err != nil {
		return unknown(err.Error())
	}
	normalizeGoal(g)
	return g, ""
}

func normalizeGoal(g Goal) {
	switch v := g.(type) {
	case *HabitGoal:
		if v.DaysOfWeek == nil {
			v.DaysOfWeek = []int{}
		}
	case *QuitGoal:
		if v.Relapses == nil {
			v.Relapses = []Relapse{}
		}
	}
}

// EncodeGoals writes goals as a JSON array. The type tag always matches the
// variant.
func EncodeGoals(goals []Goal) ([]byte, error) {
	out := make([]any, 0, len(goals))
	for _, g := range goals {
		if g == nil {
			continue
		}
		if _, ok := g.(*UnknownGoal); !ok {
			g = g.CloneGoal()
			g.Base().Type = g.Kind()
			normalizeGoal(g)
		}
		out = append(out, g)
	}
	return json.Marshal(out)
}

// DecodeTasks parses a JSON array of tasks with the same tolerance as
// DecodeGoals. Standalone tasks with an unknown recurrence tag are kept as
// standalone tasks and reported.
func DecodeTasks(b []byte) ([]Task, []Warning, error) {
	raws, err := splitArray(b)
	if err != nil {
		return nil, nil, err
	}
	tasks := make([]Task, 0, len(raws))
	var warns []Warning
	for i, raw := range raws {
		t, w := decodeTask(raw)
		if w != "" {
			warns = append(warns, Warning{Index: i, ID: t.Base().ID, Reason: w})
		}
		tasks = append(tasks, t)
	}
	return tasks, warns, nil
}

func decodeTask(raw json.RawMessage) (Task, string) {
	unknown := func(reason string) (Task, string) {
		u := &UnknownTask{Raw: append(json.RawMessage(nil), raw...)}
		_ = json.Unmarshal(raw, &u.TaskBase)
		return u, reason
	}

	var p typeProbe
	if err := json.Unmarshal(raw, &p); err != nil {
		return unknown("not an object: " + err.Error())
	}

	var t Task
	switch TaskType(p.Type) {
	case TaskHabit:
		t = &HabitTask{}
	case TaskProject:
		t = &ProjectTask{}
	case TaskStandalone:
		t = &StandaloneTask{}
	default:
		return unknown(fmt.Sprintf("unknown task type %q", p.Type))
	}
	if err := json.Unmarshal(raw, t); err != nil {
		return unknown(err.Error())
	}
	normalizeTask(t)

	if st, ok := t.(*StandaloneTask); ok && !st.Recurrence.Type.Known() {
		return t, fmt.Sprintf("unknown recurrence type %q", st.Recurrence.Type)
	}
	return t, ""
}

func normalizeTask(t Task) {
	b := t.Base()
	if b.CompletedDates == nil {
		b.CompletedDates = []dates.ISODate{}
	}
}

func EncodeTasks(tasks []Task) ([]byte, error) {
	out := make([]any, 0, len(tasks))
	for _, t := range tasks {
		if t == nil {
			continue
		}
		if _, ok := t.(*UnknownTask); !ok {
			t = t.CloneTask()
			t.Base().Type = t.Kind()
			normalizeTask(t)
		}
		out = append(out, t)
	}
	return json.Marshal(out)
}

// DecodeGoal parses a single goal record. Unlike DecodeGoals, a record that
// is not understood is an error.
func DecodeGoal(b []byte) (Goal, error) {
	g, reason := decodeGoal(json.RawMessage(b))
	if reason != "" {
		return nil, errors.New(reason)
	}
	return g, nil
}

// DecodeTask parses a single task record. Unknown task types and unknown
// recurrence types are errors.
func DecodeTask(b []byte) (Task, error) {
	t, reason := decodeTask(json.RawMessage(b))
	if reason != "" {
		return nil, errors.New(reason)
	}
	return t, nil
}

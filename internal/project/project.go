// Package project computes progress and display order for project goals.
package project

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"time"

	"goaltrack/internal/model"
)

// Tasks returns goalID's project tasks.
func Tasks(tasks []model.Task, goalID string) []*model.ProjectTask {
	var out []*model.ProjectTask
	for _, t := range tasks {
		if pt, ok := t.(*model.ProjectTask); ok && pt.GoalID == goalID {
			out = append(out, pt)
		}
	}
	return out
}

// Percent is the rounded share of goalID's project tasks that are completed,
// 0 when the goal has none.
func Percent(tasks []model.Task, goalID string) int {
	pts := Tasks(tasks, goalID)
	if len(pts) == 0 {
		return 0
	}
	done := 0
	for _, t := range pts {
		if t.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(pts))))
}

// Counts returns (completed, total) for goalID.
func Counts(tasks []model.Task, goalID string) (int, int) {
	pts := Tasks(tasks, goalID)
	done := 0
	for _, t := range pts {
		if t.Completed {
			done++
		}
	}
	return done, len(pts)
}

func priorityRank(p model.Priority) int {
	switch p {
	case model.PriorityHigh:
		return 0
	case model.PriorityLow:
		return 2
	default:
		return 1
	}
}

func orderOf(p *int) int {
	if p == nil {
		return math.MaxInt
	}
	return *p
}

func byPriority(a, b *model.ProjectTask) int {
	return cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority))
}

func byOrder(a, b *model.ProjectTask) int {
	return cmp.Compare(orderOf(a.Order), orderOf(b.Order))
}

func byManual(a, b *model.ProjectTask) int {
	return cmp.Compare(orderOf(a.ManualIndex), orderOf(b.ManualIndex))
}

// open tasks sort before completed ones, then by title.
func tail(a, b *model.ProjectTask) int {
	if a.Completed != b.Completed {
		if a.Completed {
			return 1
		}
		return -1
	}
	return strings.Compare(a.Title, b.Title)
}

func chain(fns ...func(a, b *model.ProjectTask) int) func(a, b *model.ProjectTask) int {
	return func(a, b *model.ProjectTask) int {
		for _, fn := range fns {
			if c := fn(a, b); c != 0 {
				return c
			}
		}
		return 0
	}
}

// Sort returns a sorted copy of tasks for the given ordering mode. An unknown
// mode falls back to priority ordering.
func Sort(tasks []*model.ProjectTask, ordering model.ProjectOrdering) []*model.ProjectTask {
	out := slices.Clone(tasks)
	var less func(a, b *model.ProjectTask) int
	switch ordering {
	case model.OrderByOrder:
		less = chain(byOrder, byPriority, tail)
	case model.OrderManual:
		less = chain(byManual, byPriority, byOrder, tail)
	default:
		less = chain(byPriority, byOrder, tail)
	}
	slices.SortStableFunc(out, less)
	return out
}

// ToggleCompleted flips the task and sets every subtask to match.
func ToggleCompleted(t *model.ProjectTask, now time.Time) *model.ProjectTask {
	next := t.CloneTask().(*model.ProjectTask)
	next.Completed = !t.Completed
	for i := range next.Subtasks {
		next.Subtasks[i].Completed = next.Completed
	}
	next.Touch(now)
	return next
}

// ToggleSubtask flips one subtask. When the task has subtasks its completion
// follows "all subtasks done". The second result is false when subID is not
// found.
func ToggleSubtask(t model.Task, subID string, now time.Time) (model.Task, bool) {
	next := t.CloneTask()
	b := next.Base()
	found := false
	for i := range b.Subtasks {
		if b.Subtasks[i].ID == subID {
			b.Subtasks[i].Completed = !b.Subtasks[i].Completed
			found = true
		}
	}
	if !found {
		return t, false
	}
	all := true
	for _, s := range b.Subtasks {
		all = all && s.Completed
	}
	b.Completed = all
	b.Touch(now)
	return next, true
}

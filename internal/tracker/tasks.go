package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"goaltrack/internal/dates"
	"goaltrack/internal/model"
	"goaltrack/internal/project"
	"goaltrack/internal/standalone"
)

func (s *Service) GetTasksByGoal(goalID string) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTasks(model.TasksOfGoal(s.tasks, goalID))
}

func (s *Service) Task(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, _ := model.FindTask(s.tasks, id)
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	return t.CloneTask(), nil
}

func (s *Service) AddTask(ctx context.Context, t model.Task) (model.Task, error) {
	out, err := s.BulkAdd(ctx, []model.Task{t})
	if len(out) == 0 {
		return nil, err
	}
	return out[0], err
}

// BulkAdd stores all tasks or none. Goal-owned tasks must reference a goal of
// the matching kind.
func (s *Service) BulkAdd(ctx context.Context, tasks []model.Task) ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	added := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if err := s.validateTaskLocked(t); err != nil {
			return nil, err
		}
		t = t.CloneTask()
		b := t.Base()
		if b.ID == "" {
			b.ID = model.NewID()
		}
		if existing, _ := model.FindTask(s.tasks, b.ID); existing != nil {
			return nil, fmt.Errorf("%w: task %s already exists", ErrInvalid, b.ID)
		}
		if existing, _ := model.FindTask(added, b.ID); existing != nil {
			return nil, fmt.Errorf("%w: task %s listed twice", ErrInvalid, b.ID)
		}
		b.Type = t.Kind()
		if b.CreatedAt == "" {
			b.CreatedAt = model.Stamp(now)
		}
		if b.CompletedDates == nil {
			b.CompletedDates = []dates.ISODate{}
		}
		b.Touch(now)
		added = append(added, t)
	}

	s.tasks = append(slices.Clip(s.tasks), added...)
	s.dirtyTasks = true
	s.log.Debug("tasks added", zap.Int("count", len(added)))
	return model.CloneTasks(added), s.persistLocked(ctx)
}

func (s *Service) validateTaskLocked(t model.Task) error {
	if t == nil {
		return fmt.Errorf("%w: task is required", ErrInvalid)
	}
	if strings.TrimSpace(t.Base().Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	switch v := t.(type) {
	case *model.HabitTask:
		g, _ := model.FindGoal(s.goals, v.GoalID)
		if g == nil {
			return fmt.Errorf("goal %s: %w", v.GoalID, ErrNotFound)
		}
		if g.Kind() != model.GoalHabit {
			return fmt.Errorf("%w: habit task on %s goal", ErrWrongType, g.Kind())
		}
		if v.DayOfWeek < 0 || v.DayOfWeek > 6 {
			return fmt.Errorf("%w: dayOfWeek %d", ErrInvalid, v.DayOfWeek)
		}
	case *model.ProjectTask:
		g, _ := model.FindGoal(s.goals, v.GoalID)
		if g == nil {
			return fmt.Errorf("goal %s: %w", v.GoalID, ErrNotFound)
		}
		if g.Kind() != model.GoalProject {
			return fmt.Errorf("%w: project task on %s goal", ErrWrongType, g.Kind())
		}
	case *model.StandaloneTask:
		if !v.Recurrence.Type.Known() {
			return fmt.Errorf("%w: recurrence %q", ErrInvalid, v.Recurrence.Type)
		}
	default:
		return fmt.Errorf("%w: unknown task type %q", ErrWrongType, t.Kind())
	}
	return nil
}

// UpdateTask replaces the task with the same id. It does not touch any goal;
// callers that change a habit task's completion follow up with
// RecomputeAfterTaskToggle.
func (s *Service) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTaskLocked(t); err != nil {
		return nil, err
	}
	id := t.Base().ID
	old, i := model.FindTask(s.tasks, id)
	if old == nil {
		return nil, fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	if old.Kind() != t.Kind() {
		return nil, fmt.Errorf("%w: task %s is %s, not %s", ErrWrongType, id, old.Kind(), t.Kind())
	}
	t = t.CloneTask()
	b := t.Base()
	b.Type = t.Kind()
	b.CreatedAt = old.Base().CreatedAt
	if b.CompletedDates == nil {
		b.CompletedDates = []dates.ISODate{}
	}
	b.Touch(s.clock.Now())
	s.setTaskLocked(i, t)
	return t.CloneTask(), s.persistLocked(ctx)
}

func (s *Service) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _ := model.FindTask(s.tasks, id)
	if t == nil {
		return fmt.Errorf("task %s: %w", id, ErrNotFound)
	}
	s.tasks = slices.DeleteFunc(slices.Clone(s.tasks), func(t model.Task) bool { return t.Base().ID == id })
	s.dirtyTasks = true
	return s.persistLocked(ctx)
}

// TasksForToday lists the habit tasks planned for today's weekday and the
// standalone tasks due today.
func (s *Service) TasksForToday(today dates.ISODate) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	wd := dates.DayOfWeek(today)
	out := make([]model.Task, 0)
	for _, t := range s.tasks {
		switch v := t.(type) {
		case *model.HabitTask:
			if g, _ := model.FindGoal(s.goals, v.GoalID); g != nil && v.DayOfWeek == wd {
				out = append(out, v.CloneTask())
			}
		case *model.StandaloneTask:
			if standalone.AppliesToday(v, today) {
				out = append(out, v.CloneTask())
			}
		}
	}
	return out
}

// ToggleResult is a toggled task and, for habit tasks toggled today, the
// goal after its streak was recomputed.
type ToggleResult struct {
	Task model.Task `json:"task"`
	Goal model.Goal `json:"goal,omitempty"`
}

// ToggleHabitToday flips today's completion of a habit task and recomputes
// its goal.
func (s *Service) ToggleHabitToday(ctx context.Context, taskID string) (ToggleResult, error) {
	return s.ToggleTaskDate(ctx, taskID, s.Today())
}

// ToggleTaskDate flips completion of a habit or standalone task on day. Only
// a toggle on today drives the habit streak; other days just edit history.
func (s *Service) ToggleTaskDate(ctx context.Context, taskID string, day dates.ISODate) (ToggleResult, error) {
	if !day.Valid() {
		return ToggleResult{}, fmt.Errorf("%w: date %q", ErrInvalid, day)
	}
	today := s.Today()

	s.mu.Lock()
	defer s.mu.Unlock()

	t, i := model.FindTask(s.tasks, taskID)
	if t == nil {
		return ToggleResult{}, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	switch t.(type) {
	case *model.HabitTask, *model.StandaloneTask:
	default:
		return ToggleResult{}, fmt.Errorf("%w: %s tasks are not toggled by date", ErrWrongType, t.Kind())
	}

	next := t.CloneTask()
	b := next.Base()
	b.SetDoneOn(day, !b.DoneOn(day))
	b.Touch(s.clock.Now())
	s.setTaskLocked(i, next)

	res := ToggleResult{Task: next.CloneTask()}
	if ht, ok := next.(*model.HabitTask); ok && day == today {
		res.Goal = s.recomputeLocked(ht.GoalID, s.tasks, today)
	}
	s.log.Debug("task toggled", zap.String("task_id", taskID), zap.String("day", day.String()), zap.Bool("done", b.DoneOn(day)))
	return res, s.persistLocked(ctx)
}

// Toggle dispatches on the task kind: project tasks flip their completed
// flag, habit and standalone tasks flip completion on day.
func (s *Service) Toggle(ctx context.Context, taskID string, day dates.ISODate) (ToggleResult, error) {
	t, err := s.Task(taskID)
	if err != nil {
		return ToggleResult{}, err
	}
	if _, ok := t.(*model.ProjectTask); ok {
		pt, err := s.ToggleProjectTask(ctx, taskID)
		return ToggleResult{Task: pt}, err
	}
	if day == "" {
		day = s.Today()
	}
	return s.ToggleTaskDate(ctx, taskID, day)
}

// ToggleProjectTask flips a project task and all of its subtasks.
func (s *Service) ToggleProjectTask(ctx context.Context, taskID string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, i := model.FindTask(s.tasks, taskID)
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	pt, ok := t.(*model.ProjectTask)
	if !ok {
		return nil, fmt.Errorf("%w: task %s is %s", ErrWrongType, taskID, t.Kind())
	}
	next := project.ToggleCompleted(pt, s.clock.Now())
	s.setTaskLocked(i, next)
	return next.CloneTask(), s.persistLocked(ctx)
}

// ToggleSubtask flips one subtask. A task whose subtasks are all done is
// marked completed, and unmarked as soon as one is reopened.
func (s *Service) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, i := model.FindTask(s.tasks, taskID)
	if t == nil {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	next, ok := project.ToggleSubtask(t, subtaskID, s.clock.Now())
	if !ok {
		return nil, fmt.Errorf("subtask %s: %w", subtaskID, ErrNotFound)
	}
	s.setTaskLocked(i, next)
	return next.CloneTask(), s.persistLocked(ctx)
}

type Progress struct {
	GoalID    string `json:"goalId"`
	Percent   int    `json:"percent"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

func (s *Service) ProjectProgress(goalID string) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.projectLocked(goalID); err != nil {
		return Progress{}, err
	}
	done, total := project.Counts(s.tasks, goalID)
	return Progress{
		GoalID:    goalID,
		Percent:   project.Percent(s.tasks, goalID),
		Completed: done,
		Total:     total,
	}, nil
}

// OrderedProjectTasks returns the goal's tasks in its configured ordering.
func (s *Service) OrderedProjectTasks(goalID string) ([]*model.ProjectTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pg, err := s.projectLocked(goalID)
	if err != nil {
		return nil, err
	}
	sorted := project.Sort(project.Tasks(s.tasks, goalID), pg.TaskOrdering)
	out := make([]*model.ProjectTask, len(sorted))
	for i, t := range sorted {
		out[i] = t.CloneTask().(*model.ProjectTask)
	}
	return out, nil
}

func (s *Service) projectLocked(goalID string) (*model.ProjectGoal, error) {
	g, _ := model.FindGoal(s.goals, goalID)
	if g == nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	}
	pg, ok := g.(*model.ProjectGoal)
	if !ok {
		return nil, fmt.Errorf("%w: goal %s is %s", ErrWrongType, goalID, g.Kind())
	}
	return pg, nil
}

package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"goaltrack/internal/model"
)

// AddGoal stores g. Missing ids and timestamps are filled in. A new habit
// goal gets one task per planned weekday unless tasks for it already exist.
func (s *Service) AddGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	if err := validateGoal(g); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	g = g.CloneGoal()
	b := g.Base()
	if b.ID == "" {
		b.ID = model.NewID()
	}
	if existing, _ := model.FindGoal(s.goals, b.ID); existing != nil {
		return nil, fmt.Errorf("%w: goal %s already exists", ErrInvalid, b.ID)
	}
	b.Type = g.Kind()
	if b.CreatedAt == "" {
		b.CreatedAt = model.Stamp(now)
	}
	if b.StartDate == "" {
		b.StartDate = b.CreatedAt
	}
	b.Touch(now)

	if hg, ok := g.(*model.HabitGoal); ok {
		hg.SetDays(hg.DaysOfWeek)
		if len(model.TasksOfGoal(s.tasks, hg.ID)) == 0 {
			s.tasks = append(slices.Clip(s.tasks), model.NewHabitTasks(hg, hg.Title, now)...)
			s.dirtyTasks = true
		}
	}

	s.goals = append(slices.Clip(s.goals), g)
	s.dirtyGoals = true
	s.log.Info("goal added", zap.String("goal_id", b.ID), zap.String("type", string(b.Type)))
	return g.CloneGoal(), s.persistLocked(ctx)
}

// UpdateGoal replaces the goal with the same id. CreatedAt is preserved.
// Changing a habit's weekdays adds or removes its per-day tasks to match.
func (s *Service) UpdateGoal(ctx context.Context, g model.Goal) (model.Goal, error) {
	if err := validateGoal(g); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := g.Base().ID
	old, i := model.FindGoal(s.goals, id)
	if old == nil {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	if old.Kind() != g.Kind() {
		return nil, fmt.Errorf("%w: goal %s is %s, not %s", ErrWrongType, id, old.Kind(), g.Kind())
	}

	now := s.clock.Now()
	g = g.CloneGoal()
	b := g.Base()
	b.Type = g.Kind()
	b.CreatedAt = old.Base().CreatedAt
	b.Touch(now)

	if hg, ok := g.(*model.HabitGoal); ok {
		hg.SetDays(hg.DaysOfWeek)
		s.syncHabitTasksLocked(hg)
	}

	s.setGoalLocked(i, g)
	s.log.Info("goal updated", zap.String("goal_id", id))
	return g.CloneGoal(), s.persistLocked(ctx)
}

// syncHabitTasksLocked makes the goal own exactly one task per planned day.
func (s *Service) syncHabitTasksLocked(g *model.HabitGoal) {
	have := map[int]bool{}
	next := make([]model.Task, 0, len(s.tasks))
	changed := false
	for _, t := range s.tasks {
		ht, ok := t.(*model.HabitTask)
		if ok && ht.GoalID == g.ID {
			if !slices.Contains(g.DaysOfWeek, ht.DayOfWeek) {
				changed = true
				continue
			}
			have[ht.DayOfWeek] = true
		}
		next = append(next, t)
	}
	var missing []int
	for _, d := range g.DaysOfWeek {
		if !have[d] {
			missing = append(missing, d)
		}
	}
	if len(missing) > 0 {
		stub := *g
		stub.DaysOfWeek = missing
		next = append(next, model.NewHabitTasks(&stub, g.Title, s.clock.Now())...)
		changed = true
	}
	if changed {
		s.tasks = next
		s.dirtyTasks = true
	}
}

// DeleteGoal removes the goal and every task it owns.
func (s *Service) DeleteGoal(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, _ := model.FindGoal(s.goals, id)
	if g == nil {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	s.goals = slices.DeleteFunc(slices.Clone(s.goals), func(g model.Goal) bool { return g.Base().ID == id })
	s.dirtyGoals = true

	before := len(s.tasks)
	s.tasks = slices.DeleteFunc(slices.Clone(s.tasks), func(t model.Task) bool { return t.GoalRef() == id })
	if len(s.tasks) != before {
		s.dirtyTasks = true
	}
	s.log.Info("goal deleted", zap.String("goal_id", id), zap.Int("tasks_removed", before-len(s.tasks)))
	return s.persistLocked(ctx)
}

func validateGoal(g model.Goal) error {
	if g == nil {
		return fmt.Errorf("%w: goal is required", ErrInvalid)
	}
	if _, ok := g.(*model.UnknownGoal); ok {
		return fmt.Errorf("%w: unknown goal type %q", ErrWrongType, g.Kind())
	}
	if strings.TrimSpace(g.Base().Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	return nil
}

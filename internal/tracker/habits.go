package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goaltrack/internal/dates"
	"goaltrack/internal/habit"
	"goaltrack/internal/model"
	"goaltrack/internal/quit"
	"goaltrack/internal/telemetry"
)

// RecomputeAfterTaskToggle re-derives a habit goal's streak and weekly count
// from tasks, which must already contain the mutation that triggered the
// call. An unknown goal id or a goal that is not a habit is a no-op and
// returns (nil, nil).
func (s *Service) RecomputeAfterTaskToggle(ctx context.Context, goalID string, tasks []model.Task, today dates.ISODate) (model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g := s.recomputeLocked(goalID, tasks, today)
	if g == nil {
		return nil, nil
	}
	return g, s.persistLocked(ctx)
}

func (s *Service) recomputeLocked(goalID string, tasks []model.Task, today dates.ISODate) model.Goal {
	g, i := model.FindGoal(s.goals, goalID)
	hg, ok := g.(*model.HabitGoal)
	if !ok {
		return nil
	}

	res := habit.Recompute(*hg, tasks, today)
	next := res.Goal.CloneGoal().(*model.HabitGoal)
	next.Touch(s.clock.Now())
	s.setGoalLocked(i, next)
	s.reportHabit(goalID, today, res)
	return next.CloneGoal()
}

func (s *Service) reportHabit(goalID string, today dates.ISODate, res habit.Result) {
	log := s.log.With(zap.String("goal_id", goalID), zap.String("day", today.String()))
	if res.WeeklyReset {
		log.Debug("weekly window reset")
		s.record(telemetry.EventWeeklyReset, telemetry.EventMetadata{"goal_id": goalID, "day": today.String()})
	}
	if res.BrokenOn != "" {
		log.Info("streak broken", zap.String("missed", res.BrokenOn.String()))
		s.record(telemetry.EventStreakBroken, telemetry.EventMetadata{"goal_id": goalID, "missed": res.BrokenOn.String()})
	}
	if res.Credited {
		log.Info("day credited",
			zap.Int("current", res.Goal.Streak.Current),
			zap.Int("week_count", res.Goal.WeeklyProgress.Count))
		s.record(telemetry.EventDayCredited, telemetry.EventMetadata{"goal_id": goalID, "day": today.String(), "current": res.Goal.Streak.Current})
	}
	if res.Uncounted {
		log.Info("day uncounted",
			zap.Int("current", res.Goal.Streak.Current),
			zap.Int("week_count", res.Goal.WeeklyProgress.Count))
		s.record(telemetry.EventDayUncounted, telemetry.EventMetadata{"goal_id": goalID, "day": today.String()})
	}
}

// DayChangeReport lists what a day-change pass touched.
type DayChangeReport struct {
	Day          dates.ISODate `json:"day"`
	StreaksBroke []string      `json:"streaksBroken"`
	WeeklyResets []string      `json:"weeklyResets"`
	QuitAdvanced []string      `json:"quitAdvanced"`
}

// RunDayChange brings every goal up to today without any toggle: habits get
// their weekly window and backfill, quit goals walk their clean days. Only
// goals that changed are stamped and the collection is saved once. A day
// earlier than the clock's today is rejected with ErrInvalid.
func (s *Service) RunDayChange(ctx context.Context, today dates.ISODate) (DayChangeReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rep := DayChangeReport{Day: today, StreaksBroke: []string{}, WeeklyResets: []string{}, QuitAdvanced: []string{}}
	if !today.Valid() {
		return rep, fmt.Errorf("%w: day %q", ErrInvalid, today)
	}
	// Weekly windows and streaks only move forward.
	if now := s.Today(); dates.Before(today, now) {
		return rep, fmt.Errorf("%w: day %s is before %s", ErrInvalid, today, now)
	}
	now := s.clock.Now()
	for i, g := range s.goals {
		switch v := g.(type) {
		case *model.HabitGoal:
			res := habit.DayChange(*v, s.tasks, today)
			if !res.Changed() {
				continue
			}
			next := res.Goal.CloneGoal().(*model.HabitGoal)
			next.Touch(now)
			s.setGoalLocked(i, next)
			s.reportHabit(v.ID, today, res)
			if res.BrokenOn != "" {
				rep.StreaksBroke = append(rep.StreaksBroke, v.ID)
			}
			if res.WeeklyReset {
				rep.WeeklyResets = append(rep.WeeklyResets, v.ID)
			}
		case *model.QuitGoal:
			next := quit.ApplyDailyRollover(*v, today)
			if next.Streak == v.Streak {
				continue
			}
			next = quit.RollingPerWeek(next, today)
			nq := next.CloneGoal().(*model.QuitGoal)
			nq.Touch(now)
			s.setGoalLocked(i, nq)
			rep.QuitAdvanced = append(rep.QuitAdvanced, v.ID)
		}
	}

	s.log.Info("day change",
		zap.String("day", today.String()),
		zap.Int("broken", len(rep.StreaksBroke)),
		zap.Int("weekly_resets", len(rep.WeeklyResets)),
		zap.Int("quit_advanced", len(rep.QuitAdvanced)))
	s.record(telemetry.EventDayChange, telemetry.EventMetadata{"day": today.String()})
	return rep, s.persistLocked(ctx)
}

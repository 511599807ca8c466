package tracker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"goaltrack/internal/dates"
	"goaltrack/internal/model"
	"goaltrack/internal/quit"
	"goaltrack/internal/telemetry"
)

// RegisterRelapse logs a relapse on day for a quit goal. Clean days before
// day are counted first so the streak that ends is the real one; days after
// a backdated relapse are walked again up to today.
func (s *Service) RegisterRelapse(ctx context.Context, goalID, reason string, day dates.ISODate) (model.Goal, error) {
	today := s.Today()
	if day == "" {
		day = today
	}
	if !day.Valid() || dates.Before(today, day) {
		return nil, fmt.Errorf("%w: relapse date %q", ErrInvalid, day)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	g, i := model.FindGoal(s.goals, goalID)
	if g == nil {
		return nil, fmt.Errorf("goal %s: %w", goalID, ErrNotFound)
	}
	qg, ok := g.(*model.QuitGoal)
	if !ok {
		return nil, fmt.Errorf("%w: goal %s is %s", ErrWrongType, goalID, g.Kind())
	}

	next := *qg
	if last := next.Streak.LastCheck; last == "" || dates.Before(last, dates.Yesterday(day)) {
		next = quit.ApplyDailyRollover(next, dates.Yesterday(day))
	}
	ended := next.Streak.Current
	next = quit.RegisterRelapse(next, reason, day)
	if dates.Before(day, today) {
		next = quit.ApplyDailyRollover(next, today)
	}
	next = quit.RollingPerWeek(next, today)

	nq := next.CloneGoal().(*model.QuitGoal)
	nq.Touch(s.clock.Now())
	s.setGoalLocked(i, nq)

	s.log.Info("relapse",
		zap.String("goal_id", goalID),
		zap.String("day", day.String()),
		zap.Int("streak_ended", ended))
	s.record(telemetry.EventRelapse, telemetry.EventMetadata{"goal_id": goalID, "day": day.String(), "streak_ended": ended})
	return nq.CloneGoal(), s.persistLocked(ctx)
}

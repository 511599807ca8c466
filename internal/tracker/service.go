// Package tracker owns the in-memory goals and tasks, applies user actions
// to them through the pure streak packages and writes the result to a store.
//
// Every mutation updates memory first and then persists. When the write
// keeps failing the new state stays in memory, the error wraps ErrPersist
// and the returned values still describe the new state; Flush retries later.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"goaltrack/internal/clock"
	"goaltrack/internal/dates"
	"goaltrack/internal/model"
	"goaltrack/internal/store"
	"goaltrack/internal/telemetry"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrPersist   = errors.New("persist failed")
	ErrWrongType = errors.New("wrong type")
	ErrInvalid   = errors.New("invalid input")
)

type Options struct {
	Store  store.Store
	Clock  clock.Clock
	Log    *zap.Logger
	Events telemetry.Repository
	// WriteRetries is the number of attempts per save, at least 1.
	WriteRetries int
	// RetryBackoff is multiplied by the attempt number between attempts.
	RetryBackoff time.Duration
}

type Service struct {
	mu    sync.Mutex
	goals []model.Goal
	tasks []model.Task

	dirtyGoals bool
	dirtyTasks bool

	store   store.Store
	clock   clock.Clock
	log     *zap.Logger
	events  telemetry.Repository
	retries int
	backoff time.Duration
}

// New loads both collections from the store.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalid)
	}
	s := &Service{
		store:   opts.Store,
		clock:   opts.Clock,
		log:     opts.Log,
		events:  opts.Events,
		retries: max(opts.WriteRetries, 1),
		backoff: opts.RetryBackoff,
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.events == nil {
		s.events = telemetry.Nop{}
	}

	goals, err := s.store.LoadGoals(ctx)
	if err != nil {
		return nil, err
	}
	tasks, err := s.store.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}
	s.goals = goals
	s.tasks = tasks
	s.log.Info("tracker loaded", zap.Int("goals", len(goals)), zap.Int("tasks", len(tasks)))
	return s, nil
}

// Today is the current calendar day of the service clock.
func (s *Service) Today() dates.ISODate {
	return clock.Today(s.clock)
}

func (s *Service) Goals() []model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneGoals(s.goals)
}

func (s *Service) Goal(id string) (model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, _ := model.FindGoal(s.goals, id)
	if g == nil {
		return nil, fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return g.CloneGoal(), nil
}

func (s *Service) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTasks(s.tasks)
}

// Pending reports whether some state has not reached the store yet.
func (s *Service) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirtyGoals || s.dirtyTasks
}

// Flush writes any state a previous failed save left behind.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx)
}

func (s *Service) setGoalLocked(i int, g model.Goal) {
	next := make([]model.Goal, len(s.goals))
	copy(next, s.goals)
	next[i] = g
	s.goals = next
	s.dirtyGoals = true
}

func (s *Service) setTaskLocked(i int, t model.Task) {
	next := make([]model.Task, len(s.tasks))
	copy(next, s.tasks)
	next[i] = t
	s.tasks = next
	s.dirtyTasks = true
}

func (s *Service) persistLocked(ctx context.Context) error {
	var errs []error
	if s.dirtyGoals {
		goals := s.goals
		if err := s.withRetry(ctx, "goals", func() error { return s.store.SaveGoals(ctx, goals) }); err != nil {
			errs = append(errs, err)
		} else {
			s.dirtyGoals = false
		}
	}
	if s.dirtyTasks {
		tasks := s.tasks
		if err := s.withRetry(ctx, "tasks", func() error { return s.store.SaveTasks(ctx, tasks) }); err != nil {
			errs = append(errs, err)
		} else {
			s.dirtyTasks = false
		}
	}
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	s.record(telemetry.EventPersistFailed, telemetry.EventMetadata{"error": err.Error()})
	return fmt.Errorf("%w: %w", ErrPersist, err)
}

func (s *Service) withRetry(ctx context.Context, what string, save func() error) error {
	var err error
	for attempt := 1; attempt <= s.retries; attempt++ {
		if err = save(); err == nil {
			return nil
		}
		s.log.Warn("save failed",
			zap.String("collection", what),
			zap.Int("attempt", attempt),
			zap.Int("of", s.retries),
			zap.Error(err))
		if attempt == s.retries {
			break
		}
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(s.backoff * time.Duration(attempt)):
		}
	}
	s.log.Error("giving up on save; state kept in memory", zap.String("collection", what), zap.Error(err))
	return err
}

func (s *Service) record(t telemetry.EventType, md telemetry.EventMetadata) {
	if err := s.events.RecordEvent(t, md); err != nil {
		s.log.Debug("telemetry event dropped", zap.String("type", string(t)), zap.Error(err))
	}
}

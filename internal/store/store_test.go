package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"goaltrack/internal/config"
	"goaltrack/internal/model"
)

func backends(t *testing.T) map[string]BlobStore {
	t.Helper()
	dir := t.TempDir()
	fb, err := NewFileBlobs(filepath.Join(dir, "files"))
	require.NoError(t, err)
	sb, err := OpenSQLite(filepath.Join(dir, "db", "goaltrack.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sb.Close() })
	return map[string]BlobStore{
		"memory": NewMemoryBlobs(),
		"file":   fb,
		"sqlite": sb,
	}
}

func TestBlobStores(t *testing.T) {
	ctx := context.Background()
	for name, bs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := bs.Get(ctx, GoalsKey)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, bs.Put(ctx, GoalsKey, []byte(`[1]`)))
			require.NoError(t, bs.Put(ctx, GoalsKey, []byte(`[2]`)))
			b, ok, err := bs.Get(ctx, GoalsKey)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[2]`, string(b))
		})
	}
}

func TestCollections_RoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 3, 8, 0, 0, 0, time.UTC)

	for name, bs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := New(bs, nil)

			goals, err := s.LoadGoals(ctx)
			require.NoError(t, err)
			assert.Empty(t, goals)

			h := model.NewHabitGoal("Run", "health", []int{1, 3, 5}, now)
			p := model.NewProjectGoal("Ship", "work", model.OrderByPriority, now)
			require.NoError(t, s.SaveGoals(ctx, []model.Goal{h, p}))

			tasks := model.NewHabitTasks(h, "Run", now)
			tasks = append(tasks, model.NewProjectTask(p.ID, "Write docs", model.PriorityHigh, now))
			require.NoError(t, s.SaveTasks(ctx, tasks))

			gotGoals, err := s.LoadGoals(ctx)
			require.NoError(t, err)
			require.Len(t, gotGoals, 2)
			assert.Equal(t, h, gotGoals[0])
			assert.Equal(t, p, gotGoals[1])

			gotTasks, err := s.LoadTasks(ctx)
			require.NoError(t, err)
			assert.Equal(t, tasks, gotTasks)
		})
	}
}

func TestCollections_MalformedBlobLoadsEmpty(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.WarnLevel)
	bs := NewMemoryBlobs()
	require.NoError(t, bs.Put(ctx, GoalsKey, []byte(`{"not":"an array"}`)))
	require.NoError(t, bs.Put(ctx, TasksKey, []byte(`[{"id":"x","type":"chore"}]`)))

	s := New(bs, zap.New(core))

	goals, err := s.LoadGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)

	tasks, err := s.LoadTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.IsType(t, &model.UnknownTask{}, tasks[0])

	assert.Equal(t, 1, logs.FilterMessage("blob is malformed; starting empty").Len())
	assert.Equal(t, 1, logs.FilterMessage("task record not understood").Len())
}

func TestCollections_MalformedBlobIsKeptAside(t *testing.T) {
	const broken = `{"not":"an array"}`
	for name, bs := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, bs.Put(ctx, GoalsKey, []byte(broken)))
			s := New(bs, nil)

			_, err := s.LoadGoals(ctx)
			require.NoError(t, err)
			require.NoError(t, s.SaveGoals(ctx, []model.Goal{model.NewQuitGoal("Soda", "", time.Now())}))

			kept, ok, err := bs.Get(ctx, GoalsKey+CorruptSuffix)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, broken, string(kept))

			goals, err := s.LoadGoals(ctx)
			require.NoError(t, err)
			assert.Len(t, goals, 1)
		})
	}
}

func TestCollections_HoldsWritesUntilMalformedBlobIsKept(t *testing.T) {
	ctx := context.Background()
	const broken = `[{"id":`
	boom := errors.New("disk full")
	bs := NewMemoryBlobs()
	require.NoError(t, bs.Put(ctx, TasksKey, []byte(broken)))
	s := New(bs, nil)

	bs.FailPuts(1, boom)
	tasks, err := s.LoadTasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	// The aside copy failed, so the save must not replace the original.
	bs.FailPuts(1, boom)
	err = s.SaveTasks(ctx, nil)
	require.ErrorIs(t, err, boom)
	got, _, _ := bs.Get(ctx, TasksKey)
	assert.Equal(t, broken, string(got))

	require.NoError(t, s.SaveTasks(ctx, nil))
	got, _, _ = bs.Get(ctx, TasksKey+CorruptSuffix)
	assert.Equal(t, broken, string(got))
	got, _, _ = bs.Get(ctx, TasksKey)
	assert.Equal(t, "[]", string(got))
}

func TestCollections_SaveErrorIsWrapped(t *testing.T) {
	boom := errors.New("disk full")
	bs := NewMemoryBlobs()
	bs.FailPuts(1, boom)
	s := New(bs, nil)

	err := s.SaveGoals(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, s.SaveGoals(context.Background(), nil))
	assert.Equal(t, []string{GoalsKey}, bs.Keys())
}

func TestFileBlobs_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	fb, err := NewFileBlobs(dir)
	require.NoError(t, err)
	require.NoError(t, fb.Put(context.Background(), TasksKey, []byte(`[]`)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, TasksKey+".json", entries[0].Name())

	assert.Error(t, fb.Put(context.Background(), "../escape", nil))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverSQLite} {
		cfg := config.Store{Driver: driver, DataDir: dir, SQLitePath: filepath.Join(dir, "x.db")}
		s, err := Open(cfg, zap.NewNop())
		require.NoError(t, err, driver)
		require.NoError(t, s.Close())
	}

	_, err := Open(config.Store{Driver: "redis"}, nil)
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

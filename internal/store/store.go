// Package store persists goals and tasks as two JSON blobs under fixed keys.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"goaltrack/internal/config"
	"goaltrack/internal/model"
)

// Keys under which the two collections are stored. They match the keys
// written by earlier versions of the app so existing data keeps loading.
const (
	GoalsKey = "goals"
	TasksKey = "REMEMBER_TASKS"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// Store loads and saves whole collections.
type Store interface {
	LoadGoals(ctx context.Context) ([]model.Goal, error)
	SaveGoals(ctx context.Context, goals []model.Goal) error
	LoadTasks(ctx context.Context) ([]model.Task, error)
	SaveTasks(ctx context.Context, tasks []model.Task) error
	Close() error
}

// BlobStore is a key/value store of raw bytes.
type BlobStore interface {
	// Get returns (nil, false, nil) when key has never been written.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, blob []byte) error
	Close() error
}

// CorruptSuffix is appended to a collection key to name the copy of a blob
// that could not be read.
const CorruptSuffix = ".corrupt"

// Collections adapts a BlobStore to Store. Malformed blobs are logged, copied
// to key+CorruptSuffix and read as empty; individual records that cannot be
// understood are kept as unknown values and logged. A collection whose
// malformed blob could not be copied aside is not overwritten until the copy
// succeeds.
type Collections struct {
	blobs BlobStore
	log   *zap.Logger

	mu      sync.Mutex
	corrupt map[string][]byte
}

func New(blobs BlobStore, log *zap.Logger) *Collections {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collections{blobs: blobs, log: log, corrupt: map[string][]byte{}}
}

func (c *Collections) Blobs() BlobStore { return c.blobs }

// read returns the blob under key, or nil when it was never written.
func (c *Collections) read(ctx context.Context, key, what string) ([]byte, error) {
	b, ok, err := c.blobs.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", what, err)
	}
	if !ok {
		return nil, nil
	}
	return b, nil
}

// quarantine keeps an unreadable blob under key+CorruptSuffix. On failure the
// blob is remembered and write retries the copy before overwriting key.
func (c *Collections) quarantine(ctx context.Context, key string, blob []byte, cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := c.log.With(zap.String("key", key), zap.String("copy", key+CorruptSuffix))
	log.Error("blob is malformed; starting empty", zap.Error(cause), zap.Int("bytes", len(blob)))
	if err := c.blobs.Put(ctx, key+CorruptSuffix, blob); err != nil {
		log.Error("could not copy malformed blob aside; holding writes", zap.Error(err))
		c.corrupt[key] = blob
		return
	}
	delete(c.corrupt, key)
}

func (c *Collections) write(ctx context.Context, key, what string, b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if held, ok := c.corrupt[key]; ok {
		if err := c.blobs.Put(ctx, key+CorruptSuffix, held); err != nil {
			return fmt.Errorf("save %s: keep malformed blob: %w", what, err)
		}
		delete(c.corrupt, key)
	}
	if err := c.blobs.Put(ctx, key, b); err != nil {
		return fmt.Errorf("save %s: %w", what, err)
	}
	return nil
}

func (c *Collections) LoadGoals(ctx context.Context) ([]model.Goal, error) {
	b, err := c.read(ctx, GoalsKey, "goals")
	if err != nil || b == nil {
		return []model.Goal{}, err
	}
	goals, warns, err := model.DecodeGoals(b)
	if err != nil {
		c.quarantine(ctx, GoalsKey, b, err)
		return []model.Goal{}, nil
	}
	for _, w := range warns {
		c.log.Warn("goal record not understood", zap.String("key", GoalsKey), zap.Stringer("record", w))
	}
	return goals, nil
}

func (c *Collections) SaveGoals(ctx context.Context, goals []model.Goal) error {
	b, err := model.EncodeGoals(goals)
	if err != nil {
		return fmt.Errorf("encode goals: %w", err)
	}
	return c.write(ctx, GoalsKey, "goals", b)
}

func (c *Collections) LoadTasks(ctx context.Context) ([]model.Task, error) {
	b, err := c.read(ctx, TasksKey, "tasks")
	if err != nil || b == nil {
		return []model.Task{}, err
	}
	tasks, warns, err := model.DecodeTasks(b)
	if err != nil {
		c.quarantine(ctx, TasksKey, b, err)
		return []model.Task{}, nil
	}
	for _, w := range warns {
		c.log.Warn("task record not understood", zap.String("key", TasksKey), zap.Stringer("record", w))
	}
	return tasks, nil
}

func (c *Collections) SaveTasks(ctx context.Context, tasks []model.Task) error {
	b, err := model.EncodeTasks(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	return c.write(ctx, TasksKey, "tasks", b)
}

func (c *Collections) Close() error {
	return c.blobs.Close()
}

// OpenBlobs opens the blob backend named by cfg.Driver.
func OpenBlobs(cfg config.Store) (BlobStore, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryBlobs(), nil
	case config.DriverFile, "":
		return NewFileBlobs(cfg.DataDir)
	case config.DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// Open returns a Store on the configured backend.
func Open(cfg config.Store, log *zap.Logger) (*Collections, error) {
	blobs, err := OpenBlobs(cfg)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("store opened", zap.String("driver", cfg.Driver))
	}
	return New(blobs, log), nil
}

package clock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"goaltrack/internal/dates"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFakeClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	c := NewFakeClock(start)
	assert.Equal(t, dates.ISODate("2024-01-01"), Today(c))

	c.Advance(2 * time.Hour)
	assert.Equal(t, dates.ISODate("2024-01-02"), Today(c))

	c.Set(start)
	assert.Equal(t, start, c.Now())
}

func TestInLocation(t *testing.T) {
	c := NewFakeClock(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC))
	tokyo := time.FixedZone("JST", 9*3600)

	assert.Equal(t, dates.ISODate("2024-01-02"), Today(InLocation(c, tokyo)))
	assert.Same(t, c, InLocation(c, nil))
}

type recorder struct {
	mu   sync.Mutex
	days []dates.ISODate
}

func (r *recorder) add(_ context.Context, d dates.ISODate) {
	r.mu.Lock()
	r.days = append(r.days, d)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []dates.ISODate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]dates.ISODate(nil), r.days...)
}

func TestDayWatcher(t *testing.T) {
	c := NewFakeClock(time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC))
	rec := &recorder{}
	w := &DayWatcher{Clock: c, Interval: time.Millisecond, OnChange: rec.add}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, time.Millisecond)

	c.Advance(time.Minute)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, time.Millisecond)

	// Ticks within the same day do not fire again.
	time.Sleep(10 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []dates.ISODate{"2024-01-01", "2024-01-02"}, rec.snapshot())
}

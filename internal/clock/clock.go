// Package clock supplies the current time and notices when the calendar day
// rolls over.
package clock

import (
	"sync"
	"time"

	"goaltrack/internal/dates"
)

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// FakeClock is deterministic and test-friendly.
type FakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type located struct {
	c   Clock
	loc *time.Location
}

func (l located) Now() time.Time { return l.c.Now().In(l.loc) }

// InLocation reports c's time in loc, so the calendar day is loc's day.
// A nil loc returns c unchanged.
func InLocation(c Clock, loc *time.Location) Clock {
	if loc == nil {
		return c
	}
	return located{c: c, loc: loc}
}

// Today is the calendar day of c.Now() in the clock's location.
func Today(c Clock) dates.ISODate {
	return dates.Of(c.Now())
}

package clock

import (
	"context"
	"time"

	"go.uber.org/zap"

	"goaltrack/internal/dates"
)

// DayWatcher calls OnChange once when Run starts and again every time the
// clock's calendar day differs from the last one observed.
type DayWatcher struct {
	Clock    Clock
	Interval time.Duration
	OnChange func(ctx context.Context, day dates.ISODate)
	Log      *zap.Logger
}

// Run blocks until ctx is cancelled.
func (w *DayWatcher) Run(ctx context.Context) error {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	interval := w.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	last := Today(w.Clock)
	log.Info("day watcher started", zap.String("day", last.String()), zap.Duration("interval", interval))
	w.OnChange(ctx, last)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info("day watcher stopped")
			return nil
		case <-ticker.C:
			today := Today(w.Clock)
			if today == last {
				continue
			}
			log.Info("calendar day changed", zap.String("from", last.String()), zap.String("to", today.String()))
			last = today
			w.OnChange(ctx, today)
		}
	}
}

package serverapp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"goaltrack/internal/clock"
	"goaltrack/internal/config"
	"goaltrack/internal/dates"
	"goaltrack/internal/store"
	"goaltrack/internal/telemetry"
	"goaltrack/internal/tracker"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired process: store, tracker, HTTP server and day
// watcher.
type App struct {
	Config  *config.Config
	Tracker *tracker.Service
	Events  *telemetry.MemoryRepository
	Clock   clock.Clock

	log   *zap.Logger
	store store.Store
	srv   *http.Server
}

// Build opens the configured store and loads the tracker. A nil clk uses the
// real clock in the configured timezone.
func Build(ctx context.Context, cfg *config.Config, clk clock.Clock, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		loc, err := cfg.Clock.Location()
		if err != nil {
			return nil, err
		}
		clk = clock.InLocation(clock.RealClock{}, loc)
	}

	st, err := store.Open(cfg.Store, log.Named("store"))
	if err != nil {
		return nil, err
	}
	events := telemetry.NewMemoryRepository().WithClock(clk.Now)
	svc, err := tracker.New(ctx, tracker.Options{
		Store:        st,
		Clock:        clk,
		Log:          log.Named("tracker"),
		Events:       events,
		WriteRetries: cfg.Store.WriteRetries,
		RetryBackoff: cfg.Store.RetryBackoff,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	handler, err := NewHandler(Options{Config: cfg, Tracker: svc, Events: events, Logger: log})
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{
		Config:  cfg,
		Tracker: svc,
		Events:  events,
		Clock:   clk,
		log:     log,
		store:   st,
		srv: &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func (a *App) Handler() http.Handler { return a.srv.Handler }

// Run serves HTTP on ln (or the configured address when ln is nil) and runs
// the day watcher until ctx is cancelled or either fails. Pending state is
// flushed and the store closed before returning.
func (a *App) Run(ctx context.Context, ln net.Listener) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", a.srv.Addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", a.srv.Addr, err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.srv.Shutdown(sctx)
	})
	g.Go(func() error {
		w := &clock.DayWatcher{
			Clock:    a.Clock,
			Interval: a.Config.Clock.PollInterval,
			OnChange: a.onDayChange,
			Log:      a.log.Named("clock"),
		}
		return w.Run(gctx)
	})

	err := g.Wait()
	if ferr := a.Tracker.Flush(context.Background()); ferr != nil {
		a.log.Error("final flush failed", zap.Error(ferr))
		err = errors.Join(err, ferr)
	}
	if cerr := a.store.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

func (a *App) onDayChange(ctx context.Context, day dates.ISODate) {
	if _, err := a.Tracker.RunDayChange(ctx, day); err != nil {
		a.log.Warn("day change not saved", zap.String("day", day.String()), zap.Error(err))
	}
}

// Close releases the store without running the server.
func (a *App) Close() error {
	return a.store.Close()
}

package serverapp

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"goaltrack/internal/api"
	"goaltrack/internal/config"
	"goaltrack/internal/httpmw"
	"goaltrack/internal/telemetry"
	"goaltrack/internal/tracker"
)

type Options struct {
	Config  *config.Config
	Tracker *tracker.Service
	Events  telemetry.Repository
	Logger  *zap.Logger
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("tracker is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	api.NewHandler(opts.Tracker, opts.Events, opts.Logger.Named("api")).Register(mux)

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(opts.Config); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})

	accessLog := opts.Logger.Named("http")
	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(accessLog),
		httpmw.WithRequestID,
		httpmw.WithRecover(accessLog),
	), nil
}

// Package api exposes the tracker over a small JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"goaltrack/internal/dates"
	"goaltrack/internal/telemetry"
	"goaltrack/internal/tracker"
)

const maxBody = 1 << 20

type Handler struct {
	svc    *tracker.Service
	events telemetry.Repository
	log    *zap.Logger
}

func NewHandler(svc *tracker.Service, events telemetry.Repository, log *zap.Logger) *Handler {
	if events == nil {
		events = telemetry.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{svc: svc, events: events, log: log}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", h.Healthz)
	mux.HandleFunc("/readyz", h.Readyz)
	mux.HandleFunc("/api/goals", h.GoalsRoot)
	mux.HandleFunc("/api/goals/", h.GoalsSub)
	mux.HandleFunc("/api/tasks", h.TasksRoot)
	mux.HandleFunc("/api/tasks/", h.TasksSub)
	mux.HandleFunc("/api/today", h.Today)
	mux.HandleFunc("/api/rollover", h.Rollover)
	mux.HandleFunc("/api/stats", h.Stats)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	return dec.Decode(out)
}

func readBody(r *http.Request) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r.Body, maxBody))
}

// writeResult answers a mutation. When only the save failed the new state is
// still returned, marked as not persisted.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, code int, v any, err error) {
	if err == nil {
		writeJSON(w, code, v)
		return
	}
	if errors.Is(err, tracker.ErrPersist) {
		h.log.Warn("responding with unsaved state", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"result":    v,
			"persisted": false,
			"error":     err.Error(),
		})
		return
	}
	h.writeError(w, err)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrInvalid):
		writeErr(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrWrongType):
		writeErr(w, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrPersist):
		writeErr(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.log.Error("request failed", zap.Error(err))
		writeErr(w, http.StatusInternalServerError, "internal error")
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
}

func splitTail(path, prefix string) []string {
	tail := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if tail == "" {
		return nil
	}
	return strings.Split(tail, "/")
}

// dateParam reads an optional YYYY-MM-DD value, defaulting to today.
func (h *Handler) dateParam(raw string) (dates.ISODate, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return h.svc.Today(), true
	}
	d := dates.ISODate(raw)
	return d, d.Valid()
}

// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"service": "goaltrack",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// GET /readyz is not ready while unsaved state is pending.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if h.svc.Pending() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "pending": true})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// GET /api/today?date=YYYY-MM-DD
func (h *Handler) Today(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	day, ok := h.dateParam(r.URL.Query().Get("date"))
	if !ok {
		writeErr(w, http.StatusBadRequest, "bad date")
		return
	}
	tasks := h.svc.TasksForToday(day)
	done := 0
	for _, t := range tasks {
		if t.Base().DoneOn(day) {
			done++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"day":       day,
		"weekday":   dates.DayOfWeek(day),
		"tasks":     tasks,
		"completed": done,
	})
}

type rolloverRequest struct {
	Date string `json:"date"`
}

// POST /api/rollover {"date":"YYYY-MM-DD"} runs the day-change pass.
func (h *Handler) Rollover(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req rolloverRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	day, ok := h.dateParam(req.Date)
	if !ok {
		writeErr(w, http.StatusBadRequest, "bad date")
		return
	}
	rep, err := h.svc.RunDayChange(r.Context(), day)
	h.writeResult(w, r, http.StatusOK, rep, err)
}

// GET /api/stats?since=YYYY-MM-DD
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, ok := dates.Parse(dates.ISODate(raw))
		if !ok {
			writeErr(w, http.StatusBadRequest, "bad since")
			return
		}
		since = t
	}
	events, err := h.events.GetEvents(since, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	stats, err := telemetry.CalculateStats(events, since)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"goaltrack/internal/model"
)

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if goalID := strings.TrimSpace(r.URL.Query().Get("goalId")); goalID != "" {
			writeJSON(w, http.StatusOK, h.svc.GetTasksByGoal(goalID))
			return
		}
		writeJSON(w, http.StatusOK, h.svc.Tasks())

	case http.MethodPost:
		b, err := readBody(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "bad body")
			return
		}
		// An array is a bulk add.
		if trimmed := bytes.TrimSpace(b); len(trimmed) > 0 && trimmed[0] == '[' {
			var raws []json.RawMessage
			if err := json.Unmarshal(trimmed, &raws); err != nil {
				writeErr(w, http.StatusBadRequest, "bad json")
				return
			}
			tasks := make([]model.Task, 0, len(raws))
			for _, raw := range raws {
				t, err := model.DecodeTask(raw)
				if err != nil {
					writeErr(w, http.StatusBadRequest, err.Error())
					return
				}
				tasks = append(tasks, t)
			}
			added, err := h.svc.BulkAdd(r.Context(), tasks)
			h.writeResult(w, r, http.StatusCreated, added, err)
			return
		}
		t, err := model.DecodeTask(b)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		added, err := h.svc.AddTask(r.Context(), t)
		h.writeResult(w, r, http.StatusCreated, added, err)

	default:
		methodNotAllowed(w)
	}
}

type toggleRequest struct {
	Date string `json:"date"`
}

// /api/tasks/{id}[/toggle|/subtasks/{sid}/toggle]
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	parts := splitTail(r.URL.Path, "/api/tasks/")
	if len(parts) == 0 {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		h.task(w, r, id)

	case len(parts) == 2 && parts[1] == "toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req toggleRequest
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		day, ok := h.dateParam(req.Date)
		if !ok {
			writeErr(w, http.StatusBadRequest, "bad date")
			return
		}
		res, err := h.svc.Toggle(r.Context(), id, day)
		h.writeResult(w, r, http.StatusOK, res, err)

	case len(parts) == 4 && parts[1] == "subtasks" && parts[3] == "toggle":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		t, err := h.svc.ToggleSubtask(r.Context(), id, parts[2])
		h.writeResult(w, r, http.StatusOK, t, err)

	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

func (h *Handler) task(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		t, err := h.svc.Task(id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)

	case http.MethodPut:
		b, err := readBody(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "bad body")
			return
		}
		t, err := model.DecodeTask(b)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		if t.Base().ID != "" && t.Base().ID != id {
			writeErr(w, http.StatusBadRequest, "id mismatch")
			return
		}
		t.Base().ID = id
		updated, err := h.svc.UpdateTask(r.Context(), t)
		if err != nil {
			h.writeResult(w, r, http.StatusOK, updated, err)
			return
		}
		// A habit task edit may change today's completion.
		if ht, ok := updated.(*model.HabitTask); ok {
			g, err := h.svc.RecomputeAfterTaskToggle(r.Context(), ht.GoalID, h.svc.Tasks(), h.svc.Today())
			h.writeResult(w, r, http.StatusOK, map[string]any{"task": updated, "goal": g}, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"task": updated})

	case http.MethodDelete:
		err := h.svc.DeleteTask(r.Context(), id)
		h.writeResult(w, r, http.StatusOK, map[string]any{"deleted": id}, err)

	default:
		methodNotAllowed(w)
	}
}

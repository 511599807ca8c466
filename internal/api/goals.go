package api

import (
	"net/http"
	"strings"

	"goaltrack/internal/dates"
	"goaltrack/internal/model"
)

// /api/goals  (collection)
func (h *Handler) GoalsRoot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals := h.svc.Goals()
		if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
			filtered := make([]model.Goal, 0, len(goals))
			for _, g := range goals {
				if string(g.Kind()) == typ {
					filtered = append(filtered, g)
				}
			}
			goals = filtered
		}
		writeJSON(w, http.StatusOK, goals)

	case http.MethodPost:
		b, err := readBody(r)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "bad body")
			return
		}
		g, err := model.DecodeGoal(b)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		created, err := h.svc.AddGoal(r.Context(), g)
		h.writeResult(w, r, http.StatusCreated, created, err)

	default:
		methodNotAllowed(w)
	}
}

type relapseRequest struct {
	Reason string `json:"reason"`
	Date   string `json:"date"`
}

// /api/goals/{id}[/progress|/relapses|/tasks]
func (h *Handler) GoalsSub(w http.ResponseWriter, r *http.Request) {
	parts := splitTail(r.URL.Path, "/api/goals/")
	if len(parts) == 0 || len(parts) > 2 {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	id := parts[0]

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			g, err := h.svc.Goal(id)
			if err != nil {
				h.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, g)

		case http.MethodPut:
			b, err := readBody(r)
			if err != nil {
				writeErr(w, http.StatusBadRequest, "bad body")
				return
			}
			g, err := model.DecodeGoal(b)
			if err != nil {
				writeErr(w, http.StatusBadRequest, err.Error())
				return
			}
			if g.Base().ID != "" && g.Base().ID != id {
				writeErr(w, http.StatusBadRequest, "id mismatch")
				return
			}
			g.Base().ID = id
			updated, err := h.svc.UpdateGoal(r.Context(), g)
			h.writeResult(w, r, http.StatusOK, updated, err)

		case http.MethodDelete:
			err := h.svc.DeleteGoal(r.Context(), id)
			h.writeResult(w, r, http.StatusOK, map[string]any{"deleted": id}, err)

		default:
			methodNotAllowed(w)
		}
		return
	}

	switch parts[1] {
	case "progress":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		p, err := h.svc.ProjectProgress(id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)

	case "tasks":
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		g, err := h.svc.Goal(id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if g.Kind() == model.GoalProject {
			ordered, err := h.svc.OrderedProjectTasks(id)
			if err != nil {
				h.writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, ordered)
			return
		}
		writeJSON(w, http.StatusOK, h.svc.GetTasksByGoal(id))

	case "relapses":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req relapseRequest
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		g, err := h.svc.RegisterRelapse(r.Context(), id, strings.TrimSpace(req.Reason), dates.ISODate(strings.TrimSpace(req.Date)))
		h.writeResult(w, r, http.StatusOK, g, err)

	default:
		writeErr(w, http.StatusNotFound, "not found")
	}
}

package httpmw

import (
	"strings"

	"go.uber.org/zap"
)

// resourceFields names the goal, task and subtask a request path addresses
// and its route with ids replaced, so log lines for one goal can be grouped.
//
//	/api/goals/g1/progress           route=/api/goals/{id}/progress goal_id=g1
//	/api/tasks/t1/subtasks/s1/toggle route=/api/tasks/{id}/subtasks/{sid}/toggle task_id=t1 subtask_id=s1
func resourceFields(path string) []zap.Field {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 3 || parts[0] != "api" || parts[2] == "" {
		return []zap.Field{zap.String("route", path)}
	}

	var idKey string
	switch parts[1] {
	case "goals":
		idKey = "goal_id"
	case "tasks":
		idKey = "task_id"
	default:
		return []zap.Field{zap.String("route", path)}
	}

	fields := []zap.Field{zap.String(idKey, parts[2])}
	route := append([]string{"", "api", parts[1], "{id}"}, parts[3:]...)
	if idKey == "task_id" && len(parts) >= 5 && parts[3] == "subtasks" {
		fields = append(fields, zap.String("subtask_id", parts[4]))
		route[5] = "{sid}"
	}
	return append(fields, zap.String("route", strings.Join(route, "/")))
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cashbux/internal/storage"
)

// ListDailyTasks returns the daily task catalog with the user's
// claimed/completed flags folded in.
func (h *Handler) ListDailyTasks(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	tasks, err := storage.ListDailyTasksForUser(u.ID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*storage.DailyTaskWithProgress{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   tasks,
	})
}

// ClaimDailyTask credits a task's coin reward once per (user, task).
func (h *Handler) ClaimDailyTask(w http.ResponseWriter, r *http.Request) {
	u := h.currentUser(w, r)
	if u == nil {
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	updated, err := h.engine.ClaimDailyTask(r.Context(), u.ID, taskID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user": map[string]interface{}{
			"id":                         updated.ID,
			"coins":                      updated.Coins,
			"spins":                      updated.Spins,
			"tasksCompletedTodayForSpin": updated.TasksDoneToday,
		},
	})
}

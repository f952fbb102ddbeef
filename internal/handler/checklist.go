package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rumzy/unisettle/internal/store"
)

// ChecklistHandler serves the settlement checklist: a seeded task list
// with per-user completion state.
type ChecklistHandler struct {
	checklist *store.ChecklistStore
	logger    *slog.Logger
}

func NewChecklistHandler(checklist *store.ChecklistStore, logger *slog.Logger) *ChecklistHandler {
	return &ChecklistHandler{checklist: checklist, logger: logger}
}

func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.checklist.ListForUser(UserIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list checklist", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (h *ChecklistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid task id"})
		return
	}

	exists, err := h.checklist.TaskExists(taskID)
	if err != nil {
		h.logger.Error("check task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "task not found"})
		return
	}

	completed, err := h.checklist.Toggle(UserIDFromContext(r.Context()), taskID)
	if err != nil {
		h.logger.Error("toggle task", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"taskId": taskID, "completed": completed})
}

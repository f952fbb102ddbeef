package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rumzy/unisettle/internal/store"
)

type FeedbackHandler struct {
	feedback *store.FeedbackStore
	logger   *slog.Logger
}

func NewFeedbackHandler(feedback *store.FeedbackStore, logger *slog.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback, logger: logger}
}

// Create accepts feedback from signed-in and anonymous users alike.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	var userID *int64
	if id := UserIDFromContext(r.Context()); id != 0 {
		userID = &id
	}

	fb, err := h.feedback.Create(userID, req.Message)
	if err != nil {
		h.logger.Error("create feedback", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

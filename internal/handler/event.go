package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rumzy/unisettle/internal/store"
)

var allowedEventKinds = map[string]bool{
	"view":      true,
	"call":      true,
	"instagram": true,
}

// EventHandler logs listing interactions. The route runs behind
// optional auth so anonymous views still count; the user is attached
// when known.
type EventHandler struct {
	events     *store.BusinessEventStore
	businesses *store.BusinessStore
	logger     *slog.Logger
}

func NewEventHandler(events *store.BusinessEventStore, businesses *store.BusinessStore, logger *slog.Logger) *EventHandler {
	return &EventHandler{events: events, businesses: businesses, logger: logger}
}

func (h *EventHandler) Log(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business id"})
		return
	}

	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !allowedEventKinds[req.Type] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be view, call or instagram"})
		return
	}

	biz, err := h.businesses.GetByID(businessID)
	if err != nil {
		h.logger.Error("get business", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if biz == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
		return
	}

	var userID *int64
	if id := UserIDFromContext(r.Context()); id != 0 {
		userID = &id
	}

	month := time.Now().UTC().Format("2006-01")
	if err := h.events.Create(businessID, userID, req.Type, month); err != nil {
		h.logger.Error("log event", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

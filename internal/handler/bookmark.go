package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rumzy/unisettle/internal/store"
)

type BookmarkHandler struct {
	bookmarks  *store.BookmarkStore
	businesses *store.BusinessStore
	logger     *slog.Logger
}

func NewBookmarkHandler(bookmarks *store.BookmarkStore, businesses *store.BusinessStore, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, businesses: businesses, logger: logger}
}

// Create saves a business for the user. Saving twice is a no-op and
// returns the existing bookmark.
func (h *BookmarkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusinessID int64 `json:"businessId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	biz, err := h.businesses.GetByID(req.BusinessID)
	if err != nil {
		h.logger.Error("get business", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if biz == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
		return
	}

	bookmark, err := h.bookmarks.Create(UserIDFromContext(r.Context()), req.BusinessID)
	if err != nil {
		h.logger.Error("create bookmark", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, bookmark)
}

func (h *BookmarkHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := h.bookmarks.ListByUser(UserIDFromContext(r.Context()))
	if err != nil {
		h.logger.Error("list bookmarks", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookmarks": bookmarks})
}

func (h *BookmarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid bookmark id"})
		return
	}
	bookmark, err := h.bookmarks.GetByID(id)
	if err != nil {
		h.logger.Error("get bookmark", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if bookmark == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "bookmark not found"})
		return
	}
	if bookmark.UserID != UserIDFromContext(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your bookmark"})
		return
	}
	if err := h.bookmarks.Delete(id); err != nil {
		h.logger.Error("delete bookmark", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

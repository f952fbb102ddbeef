package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rumzy/unisettle/internal/store"
)

type ReviewHandler struct {
	reviews    *store.ReviewStore
	businesses *store.BusinessStore
	logger     *slog.Logger
}

func NewReviewHandler(reviews *store.ReviewStore, businesses *store.BusinessStore, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, businesses: businesses, logger: logger}
}

func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business id"})
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "rating must be between 1 and 5"})
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

	review, err := h.reviews.Create(businessID, UserIDFromContext(r.Context()), req.Rating, req.Comment)
	if err != nil {
		h.logger.Error("create review", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListByBusiness(w http.ResponseWriter, r *http.Request) {
	businessID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business id"})
		return
	}
	reviews, err := h.reviews.ListByBusiness(businessID)
	if err != nil {
		h.logger.Error("list reviews", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid review id"})
		return
	}
	review, err := h.reviews.GetByID(id)
	if err != nil {
		h.logger.Error("get review", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if review == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "review not found"})
		return
	}
	if review.UserID != UserIDFromContext(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not the author of this review"})
		return
	}
	if err := h.reviews.Delete(id); err != nil {
		h.logger.Error("delete review", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

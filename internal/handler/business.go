package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rumzy/unisettle/internal/images"
	"github.com/rumzy/unisettle/internal/model"
	"github.com/rumzy/unisettle/internal/store"
)

const (
	maxBusinessImages = 3
	maxImageSize      = 5 << 20 // 5 MiB
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// BusinessHandler serves the public directory and the owner-side CRUD.
// Creating a listing is gated on the owner's subscription entitlement.
type BusinessHandler struct {
	businesses    *store.BusinessStore
	reviews       *store.ReviewStore
	bookmarks     *store.BookmarkStore
	events        *store.BusinessEventStore
	subscriptions *store.SubscriptionStore
	images        *images.Store
	logger        *slog.Logger
}

func NewBusinessHandler(
	businesses *store.BusinessStore,
	reviews *store.ReviewStore,
	bookmarks *store.BookmarkStore,
	events *store.BusinessEventStore,
	subscriptions *store.SubscriptionStore,
	imageStore *images.Store,
	logger *slog.Logger,
) *BusinessHandler {
	return &BusinessHandler{
		businesses:    businesses,
		reviews:       reviews,
		bookmarks:     bookmarks,
		events:        events,
		subscriptions: subscriptions,
		images:        imageStore,
		logger:        logger,
	}
}

type businessRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`
	City        string `json:"city"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Instagram   string `json:"instagram"`
}

func (req businessRequest) fields() store.BusinessFields {
	return store.BusinessFields{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		City:        req.City,
		Address:     req.Address,
		Phone:       req.Phone,
		Instagram:   req.Instagram,
	}
}

func (h *BusinessHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.businesses.List(q.Get("category"), q.Get("city"))
	if err != nil {
		h.logger.Error("list businesses", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"businesses": list})
}

func (h *BusinessHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business id"})
		return
	}
	biz, err := h.businesses.GetByID(id)
	if err != nil {
		h.logger.Error("get business", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if biz == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
		return
	}
	writeJSON(w, http.StatusOK, biz)
}

func (h *BusinessHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	list, err := h.businesses.ListByOwner(userID)
	if err != nil {
		h.logger.Error("list owned businesses", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"businesses": list})
}

func (h *BusinessHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	rec, err := h.subscriptions.FindByUser(strconv.FormatInt(userID, 10))
	if err != nil {
		h.logger.Error("find subscription by user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if !rec.Entitled(time.Now().UTC()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "an active subscription is required to add a business"})
		return
	}

	var req businessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Category == "" || req.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, category and city are required"})
		return
	}

	biz, err := h.businesses.Create(userID, req.fields())
	if err != nil {
		h.logger.Error("create business", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, biz)
}

func (h *BusinessHandler) Update(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.ownedBusiness(w, r)
	if !ok {
		return
	}

	var req businessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Name == "" || req.Category == "" || req.City == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name, category and city are required"})
		return
	}

	updated, err := h.businesses.Update(biz.ID, req.fields())
	if err != nil {
		h.logger.Error("update business", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete removes a listing and best-effort cascades its reviews,
// bookmarks, logged events and bucket images. Individual failures are
// logged and reported as partial success rather than aborting the
// whole delete.
func (h *BusinessHandler) Delete(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.ownedBusiness(w, r)
	if !ok {
		return
	}

	partial := false

	if reviews, err := h.reviews.ListByBusiness(biz.ID); err != nil {
		h.logger.Warn("list reviews for cascade", "business", biz.ID, "error", err)
		partial = true
	} else {
		for _, rev := range reviews {
			if err := h.reviews.Delete(rev.ID); err != nil {
				h.logger.Warn("delete review", "id", rev.ID, "error", err)
				partial = true
			}
		}
	}

	if bookmarks, err := h.bookmarks.ListByBusiness(biz.ID); err != nil {
		h.logger.Warn("list bookmarks for cascade", "business", biz.ID, "error", err)
		partial = true
	} else {
		for _, bm := range bookmarks {
			if err := h.bookmarks.Delete(bm.ID); err != nil {
				h.logger.Warn("delete bookmark", "id", bm.ID, "error", err)
				partial = true
			}
		}
	}

	if events, err := h.events.ListByBusiness(biz.ID); err != nil {
		h.logger.Warn("list events for cascade", "business", biz.ID, "error", err)
		partial = true
	} else {
		for _, ev := range events {
			if err := h.events.Delete(ev.ID); err != nil {
				h.logger.Warn("delete event", "id", ev.ID, "error", err)
				partial = true
			}
		}
	}

	if h.images.Configured() {
		for _, key := range biz.ImageKeys {
			if err := h.images.Delete(r.Context(), key); err != nil {
				h.logger.Warn("delete image", "key", key, "error", err)
				partial = true
			}
		}
	}

	if err := h.businesses.Delete(biz.ID); err != nil {
		h.logger.Error("delete business", "id", biz.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "partial": partial})
}

func (h *BusinessHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if !h.images.Configured() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "image storage is not configured"})
		return
	}

	biz, ok := h.ownedBusiness(w, r)
	if !ok {
		return
	}
	if len(biz.ImageKeys) >= maxBusinessImages {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "a listing can have at most 3 images"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxImageSize)
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image file is required"})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported image type"})
		return
	}

	key := fmt.Sprintf("businesses/%d/%d", biz.ID, time.Now().UnixNano())
	if err := h.images.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		h.logger.Error("upload image", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	keys := append(biz.ImageKeys, key)
	if err := h.businesses.SetImageKeys(biz.ID, keys); err != nil {
		h.logger.Error("save image keys", "business", biz.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	urls := make([]string, len(keys))
	for i, k := range keys {
		urls[i] = h.images.URL(k)
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys, "urls": urls})
}

func (h *BusinessHandler) Stats(w http.ResponseWriter, r *http.Request) {
	biz, ok := h.ownedBusiness(w, r)
	if !ok {
		return
	}
	stats, err := h.events.StatsByBusiness(biz.ID)
	if err != nil {
		h.logger.Error("business stats", "business", biz.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": stats})
}

// ownedBusiness loads the business from the path and verifies the
// requester owns it, writing the error response itself when not.
func (h *BusinessHandler) ownedBusiness(w http.ResponseWriter, r *http.Request) (biz *model.Business, ok bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid business id"})
		return nil, false
	}
	biz, err = h.businesses.GetByID(id)
	if err != nil {
		h.logger.Error("get business", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return nil, false
	}
	if biz == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "business not found"})
		return nil, false
	}
	if biz.OwnerID != UserIDFromContext(r.Context()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not the owner of this business"})
		return nil, false
	}
	return biz, true
}

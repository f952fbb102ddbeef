package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/rumzy/unisettle/internal/store"
)

// SubscriptionHandler serves the client's view of its billing state.
// The client re-polls this on screen focus; entitlement is derived
// fresh on every request, never cached server side.
type SubscriptionHandler struct {
	subscriptions *store.SubscriptionStore
	logger        *slog.Logger
}

func NewSubscriptionHandler(ss *store.SubscriptionStore, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptions: ss, logger: logger}
}

func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	rec, err := h.subscriptions.FindByUser(strconv.FormatInt(userID, 10))
	if err != nil {
		h.logger.Error("find subscription by user", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscription": rec,
		"entitled":     rec.Entitled(time.Now().UTC()),
	})
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rumzy/unisettle/internal/store"
	unistripe "github.com/rumzy/unisettle/internal/stripe"
)

// PaymentsHandler exposes the subscription lifecycle endpoints consumed
// by the mobile client. Responses keep the exact JSON shapes the client
// expects; gateway failures surface a displayable message plus machine
// codes, never raw internals.
type PaymentsHandler struct {
	gateway       Gateway
	subscriptions *store.SubscriptionStore
	logger        *slog.Logger
}

func NewPaymentsHandler(gw Gateway, ss *store.SubscriptionStore, logger *slog.Logger) *PaymentsHandler {
	return &PaymentsHandler{
		gateway:       gw,
		subscriptions: ss,
		logger:        logger,
	}
}

// Dispatch routes POST /api/payments/{endpoint}. The webhook endpoint is
// registered separately so it bypasses session auth.
func (h *PaymentsHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	switch r.PathValue("endpoint") {
	case "createSetupIntent":
		h.createSetupIntent(w, r)
	case "createSubscription":
		h.createSubscription(w, r)
	case "cancelSubscription":
		h.cancelSubscription(w, r)
	case "getDefaultPayment":
		h.getDefaultPayment(w, r)
	case "updateSubscription":
		h.updateSubscription(w, r)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"message": "Invalid endpoint", "status": 404})
	}
}

func (h *PaymentsHandler) createSetupIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		UserID string `json:"userId"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cust, err := h.gateway.FindOrCreateCustomer(req.Email, req.Name, req.UserID)
	if err != nil {
		h.logger.Error("find or create customer", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}

	clientSecret, err := h.gateway.CreateSetupIntent(cust.ID, req.UserID)
	if err != nil {
		h.logger.Error("create setup intent", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"clientSecret": clientSecret,
		"customerId":   cust.ID,
	})
}

func (h *PaymentsHandler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PaymentMethodID string `json:"paymentMethodId"`
		CustomerID      string `json:"customerId"`
		Trial           int64  `json:"trial"`
		Use             string `json:"use"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Use == "updatePaymentMethod" && req.PaymentMethodID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Payment method ID is required"})
		return
	}

	if req.PaymentMethodID != "" {
		if err := h.gateway.AttachDefaultPaymentMethod(req.CustomerID, req.PaymentMethodID); err != nil {
			h.gatewayError(w, "attach payment method", err)
			return
		}
	}

	// The client routes its update-payment-method flow through this
	// endpoint with a use discriminator. That flow ends at attaching
	// the new default; it must never create a second subscription.
	if req.Use == "updatePaymentMethod" {
		writeJSON(w, http.StatusOK, map[string]string{
			"customerId": req.CustomerID,
			"message":    "Payment method updated",
		})
		return
	}

	result, err := h.gateway.CreateSubscription(req.CustomerID, req.Trial)
	if err != nil {
		h.gatewayError(w, "create subscription", err)
		return
	}

	// No client secret means the trial fully covers the first period
	// and no immediate payment is required.
	if result.ClientSecret == "" {
		writeJSON(w, http.StatusOK, map[string]string{
			"subscriptionId": result.SubscriptionID,
			"customerId":     req.CustomerID,
			"message":        "Trial started – no immediate payment required",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"clientSecret":   result.ClientSecret,
		"subscriptionId": result.SubscriptionID,
		"customerId":     req.CustomerID,
	})
}

func (h *PaymentsHandler) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SubscriptionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Subscription ID is required"})
		return
	}

	// The record comes from the session user, never from a
	// client-supplied id.
	userID := UserIDFromContext(r.Context())
	rec, err := h.subscriptions.FindByUser(strconv.FormatInt(userID, 10))
	if err != nil {
		h.logger.Error("find subscription record", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to cancel subscription"})
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No subscription found for this account"})
		return
	}
	if rec.SubscriptionID != "" && rec.SubscriptionID != req.SubscriptionID {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Subscription does not belong to this account"})
		return
	}

	// Gateway call first. The local flag is only set once the gateway
	// has accepted the cancellation, so a failed call leaves the record
	// untouched.
	sum, err := h.gateway.CancelAtPeriodEnd(req.SubscriptionID)
	if err != nil {
		h.logger.Error("cancel subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to cancel subscription"})
		return
	}

	if err := h.subscriptions.SetCancellationRequested(rec.ID, true); err != nil {
		// The gateway cancellation went through; the next webhook
		// snapshot reconciles the flag.
		h.logger.Error("set cancellation requested", "id", rec.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]any{"subscription": sum})
}

func (h *PaymentsHandler) getDefaultPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	cust, err := h.gateway.FindCustomerByEmail(req.Email)
	if err != nil {
		h.logger.Error("find customer by email", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	if cust == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Customer not found"})
		return
	}

	pm, err := h.gateway.DefaultPaymentMethod(cust.ID)
	if err != nil {
		h.logger.Error("retrieve default payment method", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"customerId":           cust.ID,
		"defaultPaymentMethod": pm,
	})
}

// updateSubscription reactivates a subscription that was set to cancel
// at period end.
func (h *PaymentsHandler) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sum, err := h.gateway.Reactivate(req.CustomerID)
	if err != nil {
		h.logger.Error("reactivate subscription", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
		return
	}
	if sum == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "No active subscriptions found for this customer."})
		return
	}

	if rec, err := h.subscriptions.FindByCustomer(req.CustomerID); err != nil {
		h.logger.Error("find subscription record", "error", err)
	} else if rec != nil {
		if err := h.subscriptions.SetCancellationRequested(rec.ID, false); err != nil {
			h.logger.Error("clear cancellation requested", "id", rec.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusOK, sum)
}

// gatewayError writes the tagged gateway error shape when the failure
// came from the gateway, and a generic message otherwise.
func (h *PaymentsHandler) gatewayError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	var gwErr *unistripe.Error
	if errors.As(err, &gwErr) {
		writeJSON(w, http.StatusBadRequest, gwErr)
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}

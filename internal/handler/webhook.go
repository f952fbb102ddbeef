package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"

	"github.com/rumzy/unisettle/internal/model"
	"github.com/rumzy/unisettle/internal/store"
	unistripe "github.com/rumzy/unisettle/internal/stripe"
)

// allowedEvents maps recognized gateway event types to the status they
// imply. An empty status means the event refreshes the full subscription
// snapshot instead of forcing a fixed value.
var allowedEvents = map[stripe.EventType]string{
	"invoice.paid":                  model.StatusActive,
	"invoice.payment_failed":        model.StatusPastDue,
	"customer.subscription.created": "",
	"customer.subscription.updated": "",
	"customer.subscription.deleted": model.StatusCanceled,
	"customer.deleted":              model.StatusDeleted,
}

// WebhookHandler keeps the persisted subscription record in sync with
// the payment gateway. The gateway is the source of truth: every
// mutation here is derived from a signed event, applied idempotently,
// and events older than the record's last applied event are dropped.
type WebhookHandler struct {
	gateway       Gateway
	subscriptions *store.SubscriptionStore
	logger        *slog.Logger
}

func NewWebhookHandler(gw Gateway, ss *store.SubscriptionStore, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		gateway:       gw,
		subscriptions: ss,
		logger:        logger,
	}
}

func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 65536))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	event, err := h.gateway.ConstructWebhookEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Error("webhook signature verification failed", "error", err)
		http.Error(w, "Webhook Error: "+err.Error(), http.StatusBadRequest)
		return
	}

	targetStatus, ok := allowedEvents[event.Type]
	if !ok {
		h.logger.Warn("unhandled event type", "type", event.Type)
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "message": "Event not handled"})
		return
	}

	h.logger.Info("received event", "type", event.Type, "id", event.ID)

	switch {
	case strings.HasPrefix(string(event.Type), "invoice."):
		h.handleInvoice(w, event, targetStatus)
	case event.Type == "customer.deleted":
		h.handleCustomerDeleted(w, event)
	case event.Type == "customer.subscription.deleted":
		h.handleSubscriptionDeleted(w, event)
	default:
		h.handleSubscriptionSnapshot(w, event)
	}
}

func (h *WebhookHandler) internalError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func userNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "User not found"})
}

func staleEvent(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "message": "Stale event ignored"})
}

// invoiceSubscriptionID extracts the subscription ID from an invoice's parent.
func invoiceSubscriptionID(invoice stripe.Invoice) string {
	if invoice.Parent != nil &&
		invoice.Parent.SubscriptionDetails != nil &&
		invoice.Parent.SubscriptionDetails.Subscription != nil {
		return invoice.Parent.SubscriptionDetails.Subscription.ID
	}
	return ""
}

// handleInvoice updates only the mirrored status; the record must
// already exist. The billing period end is refreshed best-effort from
// the subscription the invoice belongs to.
func (h *WebhookHandler) handleInvoice(w http.ResponseWriter, event stripe.Event, status string) {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.internalError(w, "unmarshal invoice", err)
		return
	}
	if invoice.Customer == nil {
		h.logger.Warn("invoice event missing customer", "id", event.ID)
		userNotFound(w)
		return
	}

	rec, err := h.subscriptions.FindByCustomer(invoice.Customer.ID)
	if err != nil {
		h.internalError(w, "find subscription record", err)
		return
	}
	if rec == nil {
		userNotFound(w)
		return
	}
	if event.Created < rec.GatewayEventAt {
		staleEvent(w)
		return
	}

	if err := h.subscriptions.UpdateStatus(rec.ID, status, event.Created); err != nil {
		h.internalError(w, "update subscription status", err)
		return
	}

	if subID := invoiceSubscriptionID(invoice); subID != "" {
		if sub, err := h.gateway.GetSubscription(subID); err != nil {
			h.logger.Warn("refresh subscription after invoice", "error", err)
		} else if sub != nil && sub.CurrentPeriodEnd > 0 {
			next := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
			if err := h.subscriptions.UpdateNextBillingDate(rec.ID, &next); err != nil {
				h.logger.Warn("update next billing date", "error", err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// handleSubscriptionSnapshot refreshes the full denormalized snapshot
// for subscription.created and subscription.updated. The status string
// is taken from the gateway object, never hardcoded. A first-seen
// created event creates the record.
func (h *WebhookHandler) handleSubscriptionSnapshot(w http.ResponseWriter, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.internalError(w, "unmarshal subscription", err)
		return
	}
	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "id", event.ID)
		userNotFound(w)
		return
	}
	customerID := sub.Customer.ID

	rec, err := h.subscriptions.FindByCustomer(customerID)
	if err != nil {
		h.internalError(w, "find subscription record", err)
		return
	}
	if rec == nil && event.Type != "customer.subscription.created" {
		userNotFound(w)
		return
	}
	if rec != nil && event.Created < rec.GatewayEventAt {
		staleEvent(w)
		return
	}

	cust, err := h.gateway.GetCustomer(customerID)
	if err != nil {
		h.internalError(w, "retrieve customer", err)
		return
	}

	fields := store.SubscriptionFields{
		SubscriptionID:        sub.ID,
		Status:                string(sub.Status),
		CancellationRequested: sub.CancelAtPeriodEnd,
		Name:                  cust.Name,
		Email:                 cust.Email,
		UserID:                cust.UserID,
		GatewayEventAt:        event.Created,
	}
	if sub.TrialEnd > 0 {
		t := time.Unix(sub.TrialEnd, 0).UTC()
		fields.FreeTrialEnd = &t
	}
	if pe := unistripe.CurrentPeriodEnd(&sub); pe > 0 {
		t := time.Unix(pe, 0).UTC()
		fields.NextBillingDate = &t
	} else {
		now := time.Now().UTC()
		fields.NextBillingDate = &now
	}

	if _, err := h.subscriptions.Upsert(customerID, fields); err != nil {
		h.internalError(w, "upsert subscription record", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *WebhookHandler) handleSubscriptionDeleted(w http.ResponseWriter, event stripe.Event) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.internalError(w, "unmarshal subscription", err)
		return
	}
	if sub.Customer == nil {
		userNotFound(w)
		return
	}

	rec, err := h.subscriptions.FindByCustomer(sub.Customer.ID)
	if err != nil {
		h.internalError(w, "find subscription record", err)
		return
	}
	if rec == nil {
		userNotFound(w)
		return
	}
	if event.Created < rec.GatewayEventAt {
		staleEvent(w)
		return
	}

	if err := h.subscriptions.UpdateStatus(rec.ID, model.StatusCanceled, event.Created); err != nil {
		h.internalError(w, "update subscription status", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *WebhookHandler) handleCustomerDeleted(w http.ResponseWriter, event stripe.Event) {
	var cust stripe.Customer
	if err := json.Unmarshal(event.Data.Raw, &cust); err != nil {
		h.internalError(w, "unmarshal customer", err)
		return
	}

	rec, err := h.subscriptions.FindByCustomer(cust.ID)
	if err != nil {
		h.internalError(w, "find subscription record", err)
		return
	}
	if rec == nil {
		userNotFound(w)
		return
	}

	if err := h.subscriptions.Delete(rec.ID); err != nil {
		h.internalError(w, "delete subscription record", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Customer deleted"})
}

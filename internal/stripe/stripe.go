package stripe

import (
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/paymentmethod"
	"github.com/stripe/stripe-go/v82/setupintent"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
}

type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	stripe.Key = cfg.SecretKey
	return &Client{cfg: cfg}
}

// Error is a gateway failure with the user-displayable message and
// machine codes surfaced to the client, never the raw error internals.
type Error struct {
	Message string `json:"error"`
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// AsError converts stripe-go errors into tagged gateway errors and
// passes everything else through.
func AsError(err error) error {
	if err == nil {
		return nil
	}
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return &Error{
			Message: stripeErr.Msg,
			Type:    string(stripeErr.Type),
			Code:    string(stripeErr.Code),
		}
	}
	return err
}

// Customer is the slice of the gateway customer the app cares about.
type Customer struct {
	ID     string
	Email  string
	Name   string
	UserID string
}

// SubscriptionSummary is the gateway-truth view of a subscription used
// for snapshot updates and API responses. Timestamps are unix seconds;
// zero means unset.
type SubscriptionSummary struct {
	ID                string `json:"id"`
	CustomerID        string `json:"customer_id"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	TrialEnd          int64  `json:"trial_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
}

// SubscriptionResult is the outcome of creating a subscription. An empty
// ClientSecret means the first period is fully covered by the trial and
// no immediate payment is required; that is a success state.
type SubscriptionResult struct {
	SubscriptionID string
	ClientSecret   string
}

type PaymentMethodSummary struct {
	ID       string `json:"id"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

func toCustomer(c *stripe.Customer) *Customer {
	out := &Customer{ID: c.ID, Email: c.Email, Name: c.Name}
	if c.Metadata != nil {
		out.UserID = c.Metadata["userId"]
	}
	return out
}

// CurrentPeriodEnd extracts the billing period end from a subscription.
// The field lives on the first subscription item.
func CurrentPeriodEnd(sub *stripe.Subscription) int64 {
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		return sub.Items.Data[0].CurrentPeriodEnd
	}
	return 0
}

func toSummary(sub *stripe.Subscription) *SubscriptionSummary {
	out := &SubscriptionSummary{
		ID:                sub.ID,
		Status:            string(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
		TrialEnd:          sub.TrialEnd,
		CurrentPeriodEnd:  CurrentPeriodEnd(sub),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out
}

// FindOrCreateCustomer looks up a customer by email (limit 1) and
// creates one tagged with the app user id if none exists. Two
// near-simultaneous calls with the same email can still create two
// customers; the gateway offers no compare-and-swap here.
func (c *Client) FindOrCreateCustomer(email, name, userID string) (*Customer, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	iter := customer.List(listParams)
	if iter.Next() {
		return toCustomer(iter.Customer()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, AsError(fmt.Errorf("list customers: %w", err))
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.AddMetadata("userId", userID)
	cust, err := customer.New(params)
	if err != nil {
		return nil, AsError(err)
	}
	return toCustomer(cust), nil
}

func (c *Client) GetCustomer(customerID string) (*Customer, error) {
	cust, err := customer.Get(customerID, nil)
	if err != nil {
		return nil, AsError(err)
	}
	return toCustomer(cust), nil
}

// FindCustomerByEmail returns nil when no customer matches.
func (c *Client) FindCustomerByEmail(email string) (*Customer, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	iter := customer.List(listParams)
	if iter.Next() {
		return toCustomer(iter.Customer()), nil
	}
	if err := iter.Err(); err != nil {
		return nil, AsError(fmt.Errorf("list customers: %w", err))
	}
	return nil, nil
}

// CreateSetupIntent starts collecting a payment method without charging.
func (c *Client) CreateSetupIntent(customerID, userID string) (string, error) {
	params := &stripe.SetupIntentParams{
		Customer: stripe.String(customerID),
	}
	params.AddMetadata("userId", userID)
	si, err := setupintent.New(params)
	if err != nil {
		return "", AsError(err)
	}
	return si.ClientSecret, nil
}

// AttachDefaultPaymentMethod attaches the payment method and makes it
// the customer's invoice default. Re-attaching a method already on the
// customer is a no-op at the gateway.
func (c *Client) AttachDefaultPaymentMethod(customerID, paymentMethodID string) error {
	_, err := paymentmethod.Attach(paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		return AsError(err)
	}
	_, err = customer.Update(customerID, &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	})
	if err != nil {
		return AsError(err)
	}
	return nil
}

// CreateSubscription creates a subscription on the configured price with
// the given trial. The confirmation secret is expanded off the first
// invoice; it is absent when the trial covers the whole first period.
func (c *Client) CreateSubscription(customerID string, trialDays int64) (*SubscriptionResult, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(c.cfg.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	if trialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(trialDays)
	}
	params.AddExpand("latest_invoice.confirmation_secret")

	sub, err := subscription.New(params)
	if err != nil {
		return nil, AsError(err)
	}

	result := &SubscriptionResult{SubscriptionID: sub.ID}
	if sub.LatestInvoice != nil && sub.LatestInvoice.ConfirmationSecret != nil {
		result.ClientSecret = sub.LatestInvoice.ConfirmationSecret.ClientSecret
	}
	return result, nil
}

// CancelAtPeriodEnd flags the subscription for non-destructive
// cancellation; it stays usable until the period ends.
func (c *Client) CancelAtPeriodEnd(subscriptionID string) (*SubscriptionSummary, error) {
	sub, err := subscription.Update(subscriptionID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	})
	if err != nil {
		return nil, AsError(err)
	}
	return toSummary(sub), nil
}

// Reactivate clears the cancellation flag on the customer's newest
// subscription. Returns nil when the customer has none.
func (c *Client) Reactivate(customerID string) (*SubscriptionSummary, error) {
	listParams := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	listParams.Limit = stripe.Int64(1)
	iter := subscription.List(listParams)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return nil, AsError(fmt.Errorf("list subscriptions: %w", err))
		}
		return nil, nil
	}

	sub, err := subscription.Update(iter.Subscription().ID, &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	})
	if err != nil {
		return nil, AsError(err)
	}
	return toSummary(sub), nil
}

func (c *Client) GetSubscription(subscriptionID string) (*SubscriptionSummary, error) {
	sub, err := subscription.Get(subscriptionID, nil)
	if err != nil {
		return nil, AsError(err)
	}
	return toSummary(sub), nil
}

// DefaultPaymentMethod returns the customer's invoice default payment
// method, or nil when none is set.
func (c *Client) DefaultPaymentMethod(customerID string) (*PaymentMethodSummary, error) {
	cust, err := customer.Get(customerID, nil)
	if err != nil {
		return nil, AsError(err)
	}
	if cust.InvoiceSettings == nil || cust.InvoiceSettings.DefaultPaymentMethod == nil {
		return nil, nil
	}
	pm, err := paymentmethod.Get(cust.InvoiceSettings.DefaultPaymentMethod.ID, nil)
	if err != nil {
		return nil, AsError(err)
	}
	out := &PaymentMethodSummary{ID: pm.ID}
	if pm.Card != nil {
		out.Brand = string(pm.Card.Brand)
		out.Last4 = pm.Card.Last4
		out.ExpMonth = pm.Card.ExpMonth
		out.ExpYear = pm.Card.ExpYear
	}
	return out, nil
}

// ConstructWebhookEvent verifies the signature and returns the parsed event.
func (c *Client) ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, sigHeader, c.cfg.WebhookSecret)
}

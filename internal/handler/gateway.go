package handler

import (
	stripe "github.com/stripe/stripe-go/v82"

	unistripe "github.com/rumzy/unisettle/internal/stripe"
)

// Gateway is the slice of the payment gateway the handlers use. The
// production implementation is *unistripe.Client; tests substitute a
// fake that still runs real signature verification.
type Gateway interface {
	FindOrCreateCustomer(email, name, userID string) (*unistripe.Customer, error)
	FindCustomerByEmail(email string) (*unistripe.Customer, error)
	GetCustomer(customerID string) (*unistripe.Customer, error)
	CreateSetupIntent(customerID, userID string) (string, error)
	AttachDefaultPaymentMethod(customerID, paymentMethodID string) error
	CreateSubscription(customerID string, trialDays int64) (*unistripe.SubscriptionResult, error)
	CancelAtPeriodEnd(subscriptionID string) (*unistripe.SubscriptionSummary, error)
	Reactivate(customerID string) (*unistripe.SubscriptionSummary, error)
	GetSubscription(subscriptionID string) (*unistripe.SubscriptionSummary, error)
	DefaultPaymentMethod(customerID string) (*unistripe.PaymentMethodSummary, error)
	ConstructWebhookEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

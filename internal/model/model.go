package model

import "time"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Session struct {
	ID        int64     `json:"id"`
	Token     string    `json:"token"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription statuses mirrored from the payment gateway. The webhook
// processor writes whatever status string the gateway reports; these
// constants cover the values the rest of the app branches on.
const (
	StatusActive   = "active"
	StatusTrialing = "trialing"
	StatusPastDue  = "past_due"
	StatusCanceled = "canceled"
	StatusDeleted  = "deleted"
)

// Subscription is the persisted, denormalized cache of a user's billing
// state. Status and billing fields are owned by the webhook processor;
// CancellationRequested is the only field the lifecycle API writes, and
// it is replaced by the gateway's cancel_at_period_end flag on the next
// subscription snapshot.
type Subscription struct {
	ID                    int64      `json:"id"`
	CustomerID            string     `json:"customer_id"`
	SubscriptionID        string     `json:"subscription_id"`
	Status                string     `json:"status"`
	CancellationRequested bool       `json:"cancellation_requested"`
	FreeTrialEnd          *time.Time `json:"free_trial_end"`
	NextBillingDate       *time.Time `json:"next_billing_date"`
	Name                  string     `json:"name"`
	Email                 string     `json:"email"`
	UserID                string     `json:"user_id"`
	GatewayEventAt        int64      `json:"-"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

// Entitled reports whether the subscription grants access to paid
// features at the given instant: active or trialing, and not past the
// free trial window when one is set.
func (s *Subscription) Entitled(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.Status != StatusActive && s.Status != StatusTrialing {
		return false
	}
	if s.FreeTrialEnd != nil && !s.FreeTrialEnd.After(now) {
		return false
	}
	return true
}

type Business struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	City        string    `json:"city"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Instagram   string    `json:"instagram"`
	ImageKeys   []string  `json:"image_keys"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Review struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	UserID     int64     `json:"user_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

type Bookmark struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	BusinessID int64     `json:"business_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// BusinessEvent is a logged interaction with a listing (view, call, or
// instagram tap). Month is a YYYY-MM bucket used for owner stats.
type BusinessEvent struct {
	ID         int64     `json:"id"`
	BusinessID int64     `json:"business_id"`
	UserID     *int64    `json:"user_id"`
	Type       string    `json:"type"`
	Month      string    `json:"month"`
	CreatedAt  time.Time `json:"created_at"`
}

type ChecklistTask struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Recommended string `json:"recommended"`
	Description string `json:"description"`
	GuideSlug   string `json:"guide_slug"`
	Position    int    `json:"position"`
	Completed   bool   `json:"completed"`
}

type Feedback struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

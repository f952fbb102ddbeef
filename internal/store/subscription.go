package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rumzy/unisettle/internal/model"
)

// SubscriptionStore persists the denormalized billing cache. The
// customer id is unique, so concurrent writes for the same customer
// collapse into one row instead of racing a read-then-create.
type SubscriptionStore struct {
	db *sql.DB
}

func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// SubscriptionFields carries the gateway-derived snapshot written by
// the webhook processor.
type SubscriptionFields struct {
	SubscriptionID        string
	Status                string
	CancellationRequested bool
	FreeTrialEnd          *time.Time
	NextBillingDate       *time.Time
	Name                  string
	Email                 string
	UserID                string
	GatewayEventAt        int64
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.Subscription, error) {
	var sub model.Subscription
	var cancellationRequested int
	var freeTrialEnd, nextBillingDate sql.NullTime
	err := scanner.Scan(
		&sub.ID, &sub.CustomerID, &sub.SubscriptionID, &sub.Status,
		&cancellationRequested, &freeTrialEnd, &nextBillingDate,
		&sub.Name, &sub.Email, &sub.UserID, &sub.GatewayEventAt,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.CancellationRequested = cancellationRequested != 0
	if freeTrialEnd.Valid {
		sub.FreeTrialEnd = &freeTrialEnd.Time
	}
	if nextBillingDate.Valid {
		sub.NextBillingDate = &nextBillingDate.Time
	}
	return &sub, nil
}

const subscriptionCols = `id, customer_id, subscription_id, status, cancellation_requested, free_trial_end, next_billing_date, name, email, user_id, gateway_event_at, created_at, updated_at`

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// Upsert writes the full snapshot for a customer in one statement. The
// UNIQUE constraint on customer_id makes the insert-or-update atomic;
// two concurrent snapshots for the same customer cannot produce two
// rows.
func (s *SubscriptionStore) Upsert(customerID string, f SubscriptionFields) (*model.Subscription, error) {
	_, err := s.db.Exec(
		`INSERT INTO subscriptions (customer_id, subscription_id, status, cancellation_requested, free_trial_end, next_billing_date, name, email, user_id, gateway_event_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(customer_id) DO UPDATE SET
		   subscription_id = excluded.subscription_id,
		   status = excluded.status,
		   cancellation_requested = excluded.cancellation_requested,
		   free_trial_end = excluded.free_trial_end,
		   next_billing_date = excluded.next_billing_date,
		   name = excluded.name,
		   email = excluded.email,
		   user_id = excluded.user_id,
		   gateway_event_at = excluded.gateway_event_at,
		   updated_at = CURRENT_TIMESTAMP`,
		customerID, f.SubscriptionID, f.Status, f.CancellationRequested,
		nullTime(f.FreeTrialEnd), nullTime(f.NextBillingDate),
		f.Name, f.Email, f.UserID, f.GatewayEventAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	return s.FindByCustomer(customerID)
}

func (s *SubscriptionStore) FindByCustomer(customerID string) (*model.Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE customer_id = ?`, customerID)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription by customer: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) FindByUser(userID string) (*model.Subscription, error) {
	row := s.db.QueryRow(
		`SELECT `+subscriptionCols+` FROM subscriptions WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`,
		userID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find subscription by user: %w", err)
	}
	return sub, nil
}

func (s *SubscriptionStore) GetByID(id int64) (*model.Subscription, error) {
	row := s.db.QueryRow(`SELECT `+subscriptionCols+` FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// UpdateStatus mirrors a gateway status change and records the event
// timestamp it came from.
func (s *SubscriptionStore) UpdateStatus(id int64, status string, eventAt int64) error {
	_, err := s.db.Exec(
		`UPDATE subscriptions SET status = ?, gateway_event_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, eventAt, id,
	)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) UpdateNextBillingDate(id int64, t *time.Time) error {
	_, err := s.db.Exec(
		`UPDATE subscriptions SET next_billing_date = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		nullTime(t), id,
	)
	if err != nil {
		return fmt.Errorf("update next billing date: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) SetCancellationRequested(id int64, requested bool) error {
	_, err := s.db.Exec(
		`UPDATE subscriptions SET cancellation_requested = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		requested, id,
	)
	if err != nil {
		return fmt.Errorf("set cancellation requested: %w", err)
	}
	return nil
}

func (s *SubscriptionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

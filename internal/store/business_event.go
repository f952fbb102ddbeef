package store

import (
	"database/sql"
	"fmt"

	"github.com/rumzy/unisettle/internal/model"
)

type BusinessEventStore struct {
	db *sql.DB
}

func NewBusinessEventStore(db *sql.DB) *BusinessEventStore {
	return &BusinessEventStore{db: db}
}

// EventStat is an aggregated count per month and event type.
type EventStat struct {
	Month string `json:"month"`
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

func (s *BusinessEventStore) Create(businessID int64, userID *int64, eventType, month string) error {
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}
	_, err := s.db.Exec(
		`INSERT INTO business_events (business_id, user_id, type, month) VALUES (?, ?, ?, ?)`,
		businessID, uid, eventType, month,
	)
	if err != nil {
		return fmt.Errorf("insert business event: %w", err)
	}
	return nil
}

func (s *BusinessEventStore) ListByBusiness(businessID int64) ([]*model.BusinessEvent, error) {
	rows, err := s.db.Query(
		`SELECT id, business_id, user_id, type, month, created_at FROM business_events WHERE business_id = ?`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("list business events: %w", err)
	}
	defer rows.Close()

	var events []*model.BusinessEvent
	for rows.Next() {
		var e model.BusinessEvent
		var uid sql.NullInt64
		if err := rows.Scan(&e.ID, &e.BusinessID, &uid, &e.Type, &e.Month, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan business event: %w", err)
		}
		if uid.Valid {
			e.UserID = &uid.Int64
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// StatsByBusiness aggregates event counts per month and type, newest
// month first.
func (s *BusinessEventStore) StatsByBusiness(businessID int64) ([]EventStat, error) {
	rows, err := s.db.Query(
		`SELECT month, type, COUNT(*) FROM business_events WHERE business_id = ?
		 GROUP BY month, type ORDER BY month DESC, type`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("business event stats: %w", err)
	}
	defer rows.Close()

	var stats []EventStat
	for rows.Next() {
		var st EventStat
		if err := rows.Scan(&st.Month, &st.Type, &st.Count); err != nil {
			return nil, fmt.Errorf("scan event stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (s *BusinessEventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM business_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete business event: %w", err)
	}
	return nil
}

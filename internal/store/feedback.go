package store

import (
	"database/sql"
	"fmt"

	"github.com/rumzy/unisettle/internal/model"
)

type FeedbackStore struct {
	db *sql.DB
}

func NewFeedbackStore(db *sql.DB) *FeedbackStore {
	return &FeedbackStore{db: db}
}

func (s *FeedbackStore) Create(userID *int64, message string) (*model.Feedback, error) {
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}
	result, err := s.db.Exec(
		`INSERT INTO feedback (user_id, message) VALUES (?, ?)`,
		uid, message,
	)
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var f model.Feedback
	var scannedUID sql.NullInt64
	row := s.db.QueryRow(`SELECT id, user_id, message, created_at FROM feedback WHERE id = ?`, id)
	if err := row.Scan(&f.ID, &scannedUID, &f.Message, &f.CreatedAt); err != nil {
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	if scannedUID.Valid {
		f.UserID = &scannedUID.Int64
	}
	return &f, nil
}

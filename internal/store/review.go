package store

import (
	"database/sql"
	"fmt"

	"github.com/rumzy/unisettle/internal/model"
)

type ReviewStore struct {
	db *sql.DB
}

func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func scanReview(scanner interface{ Scan(...any) error }) (*model.Review, error) {
	var r model.Review
	err := scanner.Scan(&r.ID, &r.BusinessID, &r.UserID, &r.Rating, &r.Comment, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

const reviewCols = `id, business_id, user_id, rating, comment, created_at`

func (s *ReviewStore) Create(businessID, userID int64, rating int, comment string) (*model.Review, error) {
	result, err := s.db.Exec(
		`INSERT INTO reviews (business_id, user_id, rating, comment) VALUES (?, ?, ?, ?)`,
		businessID, userID, rating, comment,
	)
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReviewStore) GetByID(id int64) (*model.Review, error) {
	row := s.db.QueryRow(`SELECT `+reviewCols+` FROM reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

func (s *ReviewStore) ListByBusiness(businessID int64) ([]*model.Review, error) {
	rows, err := s.db.Query(
		`SELECT `+reviewCols+` FROM reviews WHERE business_id = ? ORDER BY created_at DESC`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *ReviewStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

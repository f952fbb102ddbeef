package store

import (
	"database/sql"
	"fmt"

	"github.com/rumzy/unisettle/internal/model"
)

type BookmarkStore struct {
	db *sql.DB
}

func NewBookmarkStore(db *sql.DB) *BookmarkStore {
	return &BookmarkStore{db: db}
}

func scanBookmark(scanner interface{ Scan(...any) error }) (*model.Bookmark, error) {
	var b model.Bookmark
	err := scanner.Scan(&b.ID, &b.UserID, &b.BusinessID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

const bookmarkCols = `id, user_id, business_id, created_at`

// Create saves a bookmark. Saving a business twice returns the existing
// bookmark rather than an error.
func (s *BookmarkStore) Create(userID, businessID int64) (*model.Bookmark, error) {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO bookmarks (user_id, business_id) VALUES (?, ?)`,
		userID, businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}
	row := s.db.QueryRow(
		`SELECT `+bookmarkCols+` FROM bookmarks WHERE user_id = ? AND business_id = ?`,
		userID, businessID,
	)
	return scanBookmark(row)
}

func (s *BookmarkStore) GetByID(id int64) (*model.Bookmark, error) {
	row := s.db.QueryRow(`SELECT `+bookmarkCols+` FROM bookmarks WHERE id = ?`, id)
	b, err := scanBookmark(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get bookmark: %w", err)
	}
	return b, nil
}

func (s *BookmarkStore) ListByUser(userID int64) ([]*model.Bookmark, error) {
	rows, err := s.db.Query(
		`SELECT `+bookmarkCols+` FROM bookmarks WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var bookmarks []*model.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (s *BookmarkStore) ListByBusiness(businessID int64) ([]*model.Bookmark, error) {
	rows, err := s.db.Query(
		`SELECT `+bookmarkCols+` FROM bookmarks WHERE business_id = ?`,
		businessID,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks by business: %w", err)
	}
	defer rows.Close()

	var bookmarks []*model.Bookmark
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}

func (s *BookmarkStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	return nil
}

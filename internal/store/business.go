package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rumzy/unisettle/internal/model"
)

type BusinessStore struct {
	db *sql.DB
}

func NewBusinessStore(db *sql.DB) *BusinessStore {
	return &BusinessStore{db: db}
}

// BusinessFields carries the owner-editable listing fields.
type BusinessFields struct {
	Name        string
	Category    string
	Description string
	City        string
	Address     string
	Phone       string
	Instagram   string
}

func scanBusiness(scanner interface{ Scan(...any) error }) (*model.Business, error) {
	var b model.Business
	var imageKeys string
	err := scanner.Scan(
		&b.ID, &b.OwnerID, &b.Name, &b.Category, &b.Description,
		&b.City, &b.Address, &b.Phone, &b.Instagram, &imageKeys,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if imageKeys != "" {
		b.ImageKeys = strings.Split(imageKeys, ",")
	}
	return &b, nil
}

const businessCols = `id, owner_id, name, category, description, city, address, phone, instagram, image_keys, created_at, updated_at`

func (s *BusinessStore) Create(ownerID int64, f BusinessFields) (*model.Business, error) {
	result, err := s.db.Exec(
		`INSERT INTO businesses (owner_id, name, category, description, city, address, phone, instagram)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, f.Name, f.Category, f.Description, f.City, f.Address, f.Phone, f.Instagram,
	)
	if err != nil {
		return nil, fmt.Errorf("insert business: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *BusinessStore) GetByID(id int64) (*model.Business, error) {
	row := s.db.QueryRow(`SELECT `+businessCols+` FROM businesses WHERE id = ?`, id)
	b, err := scanBusiness(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get business: %w", err)
	}
	return b, nil
}

// List returns businesses, optionally filtered by category and city.
// Empty filter values match everything.
func (s *BusinessStore) List(category, city string) ([]*model.Business, error) {
	query := `SELECT ` + businessCols + ` FROM businesses WHERE 1=1`
	var args []any
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if city != "" {
		query += ` AND city = ?`
		args = append(args, city)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()

	var businesses []*model.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (s *BusinessStore) ListByOwner(ownerID int64) ([]*model.Business, error) {
	rows, err := s.db.Query(
		`SELECT `+businessCols+` FROM businesses WHERE owner_id = ? ORDER BY created_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list businesses by owner: %w", err)
	}
	defer rows.Close()

	var businesses []*model.Business
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		businesses = append(businesses, b)
	}
	return businesses, rows.Err()
}

func (s *BusinessStore) Update(id int64, f BusinessFields) (*model.Business, error) {
	_, err := s.db.Exec(
		`UPDATE businesses SET name = ?, category = ?, description = ?, city = ?, address = ?, phone = ?, instagram = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		f.Name, f.Category, f.Description, f.City, f.Address, f.Phone, f.Instagram, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update business: %w", err)
	}
	return s.GetByID(id)
}

func (s *BusinessStore) SetImageKeys(id int64, keys []string) error {
	_, err := s.db.Exec(
		`UPDATE businesses SET image_keys = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		strings.Join(keys, ","), id,
	)
	if err != nil {
		return fmt.Errorf("set image keys: %w", err)
	}
	return nil
}

func (s *BusinessStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete business: %w", err)
	}
	return nil
}

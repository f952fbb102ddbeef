package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rumzy/unisettle/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var verified int
	err := scanner.Scan(&u.ID, &u.Email, &u.Name, &verified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Verified = verified != 0
	return &u, nil
}

const userCols = `id, email, name, verified, created_at, updated_at`

func (s *UserStore) Create(email, name, passwordHash, verifyToken string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (email, name, password_hash, verify_token) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, verifyToken,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// PasswordHashByEmail returns the user id and stored hash for login.
// Returns (0, "", nil) when the email is unknown.
func (s *UserStore) PasswordHashByEmail(email string) (int64, string, error) {
	var id int64
	var hash string
	err := s.db.QueryRow(`SELECT id, password_hash FROM users WHERE email = ?`, email).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("get password hash: %w", err)
	}
	return id, hash, nil
}

// Verify marks the user holding the token as verified and clears the
// token. Returns nil when the token matches no user.
func (s *UserStore) Verify(token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	var id int64
	err := s.db.QueryRow(`SELECT id FROM users WHERE verify_token = ?`, token).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find verify token: %w", err)
	}
	_, err = s.db.Exec(
		`UPDATE users SET verified = 1, verify_token = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark verified: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) SetResetToken(email, token string, expiresAt time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE users SET reset_token = ?, reset_expires_at = ?, updated_at = CURRENT_TIMESTAMP WHERE email = ?`,
		token, expiresAt, email,
	)
	if err != nil {
		return false, fmt.Errorf("set reset token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ResetPassword replaces the hash for a live reset token. Returns nil
// when the token is unknown or expired.
func (s *UserStore) ResetPassword(token, newHash string, now time.Time) (*model.User, error) {
	if token == "" {
		return nil, nil
	}
	var id int64
	var expires sql.NullTime
	err := s.db.QueryRow(`SELECT id, reset_expires_at FROM users WHERE reset_token = ?`, token).Scan(&id, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find reset token: %w", err)
	}
	if !expires.Valid || expires.Time.Before(now) {
		return nil, nil
	}
	_, err = s.db.Exec(
		`UPDATE users SET password_hash = ?, reset_token = NULL, reset_expires_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newHash, id,
	)
	if err != nil {
		return nil, fmt.Errorf("reset password: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

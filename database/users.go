package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fewr/model"

	"github.com/jmoiron/sqlx"
)

func UpsertUserInTx(tx *sqlx.Tx, u model.User) error {
	const q = `
		INSERT INTO users (code, name, password_hash)
		VALUES (:code, :name, :password_hash)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			password_hash = excluded.password_hash`
	if _, err := tx.NamedExec(q, u); err != nil {
		return fmt.Errorf("UpsertUserInTx (Code: %s) failed: %w", u.Code, err)
	}
	return nil
}

// GetUserByCode looks the code up case-insensitively. A missing user is
// returned as nil without error.
func GetUserByCode(db *sqlx.DB, code string) (*model.User, error) {
	var u model.User
	err := db.Get(&u, "SELECT code, name, password_hash FROM users WHERE code = ?", strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user %s: %w", code, err)
	}
	return &u, nil
}

func GetAllUsers(db *sqlx.DB) ([]model.User, error) {
	var users []model.User
	if err := db.Select(&users, "SELECT code, name, password_hash FROM users ORDER BY code"); err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return users, nil
}

func CreateSession(db *sqlx.DB, s model.Session) error {
	s.CreatedAt = Stamp(s.CreatedAt)
	s.ExpiresAt = Stamp(s.ExpiresAt)
	const q = `INSERT INTO sessions (id, user_code, created_at, expires_at) VALUES (:id, :user_code, :created_at, :expires_at)`
	if _, err := db.NamedExec(q, s); err != nil {
		return fmt.Errorf("CreateSession failed: %w", err)
	}
	return nil
}

// GetActiveSession returns the session and its user when id is known and
// not expired at now; otherwise both are nil.
func GetActiveSession(db *sqlx.DB, id string, now time.Time) (*model.Session, *model.User, error) {
	var row struct {
		model.Session
		Name string `db:"name"`
	}
	const q = `
		SELECT s.id, s.user_code, s.created_at, s.expires_at, u.name
		FROM sessions s JOIN users u ON u.code = s.user_code
		WHERE s.id = ?`
	if err := db.Get(&row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to get session: %w", err)
	}
	if !row.ExpiresAt.After(now) {
		return nil, nil, nil
	}
	return &row.Session, &model.User{Code: row.UserCode, Name: row.Name}, nil
}

func DeleteSession(db *sqlx.DB, id string) error {
	if _, err := db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("DeleteSession failed: %w", err)
	}
	return nil
}

func DeleteExpiredSessions(db *sqlx.DB, now time.Time) (int64, error) {
	res, err := db.Exec("DELETE FROM sessions WHERE expires_at <= ?", Stamp(now))
	if err != nil {
		return 0, fmt.Errorf("DeleteExpiredSessions failed: %w", err)
	}
	return res.RowsAffected()
}

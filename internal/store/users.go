package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/hunlearn/internal/apperr"
	"github.com/starford/hunlearn/internal/models"
)

const userColumns = `id, email, name, password_hash, current_level, target_level, learning_goals,
	daily_goal_minutes, timezone, created_at, updated_at, last_active_at`

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	var goals string
	var lastActive sql.NullTime
	err := s.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CurrentLevel, &u.TargetLevel, &goals,
		&u.DailyGoalMinutes, &u.Timezone, &u.CreatedAt, &u.UpdatedAt, &lastActive)
	if err != nil {
		return nil, err
	}
	if err := fromJSON("user learning_goals", goals, &u.LearningGoals); err != nil {
		return nil, err
	}
	u.LastActiveAt = timePtr(lastActive)
	return &u, nil
}

// CreateUser inserts u. A duplicate email yields apperr.ErrAlreadyExists.
func (db *DB) CreateUser(u *models.User) error {
	now := db.timestamp()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := db.conn.Exec(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, strings.ToLower(u.Email), u.Name, u.PasswordHash, u.CurrentLevel, u.TargetLevel,
		toJSON(u.LearningGoals), u.DailyGoalMinutes, u.Timezone, now, now, nullTime(u.LastActiveAt))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("store: create user: %w", err)
	}
	u.Email = strings.ToLower(u.Email)
	return nil
}

// UserByID returns the user or apperr.ErrNotFound.
func (db *DB) UserByID(id string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: user by id: %w", err)
	}
	return u, nil
}

// UserByEmail looks a user up case-insensitively.
func (db *DB) UserByEmail(email string) (*models.User, error) {
	u, err := scanUser(db.conn.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile stores the editable profile fields of u.
func (db *DB) UpdateProfile(u *models.User) error {
	u.UpdatedAt = db.timestamp()
	res, err := db.conn.Exec(`
		UPDATE users SET name = ?, current_level = ?, target_level = ?, learning_goals = ?,
			daily_goal_minutes = ?, timezone = ?, updated_at = ?
		WHERE id = ?
	`, u.Name, u.CurrentLevel, u.TargetLevel, toJSON(u.LearningGoals), u.DailyGoalMinutes, u.Timezone,
		u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("store: update profile: %w", err)
	}
	return affected(res)
}

// UpdatePassword replaces the stored hash.
func (db *DB) UpdatePassword(userID, hash string) error {
	res, err := db.conn.Exec(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, db.timestamp(), userID)
	if err != nil {
		return fmt.Errorf("store: update password: %w", err)
	}
	return affected(res)
}

// TouchActivity records that the user was active at t.
func (db *DB) TouchActivity(userID string, t time.Time) error {
	_, err := db.conn.Exec(`UPDATE users SET last_active_at = ? WHERE id = ?`, t.UTC(), userID)
	if err != nil {
		return fmt.Errorf("store: touch activity: %w", err)
	}
	return nil
}

// UserNames maps user ids to display names.
func (db *DB) UserNames(ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := db.conn.Query(`SELECT id, name FROM users WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("store: user names: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		out[id] = name
	}
	return out, rows.Err()
}

// UserByEmailOrID resolves either form; used by the MCP tools.
func (db *DB) UserByEmailOrID(key string) (*models.User, error) {
	if strings.Contains(key, "@") {
		return db.UserByEmail(key)
	}
	return db.UserByID(key)
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

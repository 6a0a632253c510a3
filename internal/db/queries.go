// Package db contains database query helpers for the file manager.
// All statements are parameterized; values never reach SQL text.
package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// nowUnix returns the current Unix timestamp in seconds.
func nowUnix() int64 { return time.Now().Unix() }

// CreateUser inserts a new user and returns its database ID.
func (d *DB) CreateUser(ctx context.Context, username, passHash string) (int64, error) {
	if username == "" || passHash == "" {
		return 0, errors.New("username and password hash are required")
	}
	now := nowUnix()
	res, err := d.sql.ExecContext(ctx, `
INSERT INTO user(username, password, created_at, modified_at) VALUES(?, ?, ?, ?)
`, username, passHash, now, now)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByUsername looks up a user by username.
// The boolean indicates whether the row exists.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*User, bool, error) {
	var u User
	err := d.sql.QueryRowContext(ctx, `
SELECT id, username, password, created_at, modified_at FROM user WHERE username=?
`, username).Scan(&u.ID, &u.Username, &u.PassHash, &u.CreatedAt, &u.ModifiedAt)
	if err == nil {
		return &u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// GetUserByID looks up a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*User, bool, error) {
	var u User
	err := d.sql.QueryRowContext(ctx, `
SELECT id, username, password, created_at, modified_at FROM user WHERE id=?
`, id).Scan(&u.ID, &u.Username, &u.PassHash, &u.CreatedAt, &u.ModifiedAt)
	if err == nil {
		return &u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// DeleteUser removes a user by ID.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM user WHERE id=?`, id)
	return err
}

// CreateSession inserts a session row for a user.
func (d *DB) CreateSession(ctx context.Context, id string, userID int64) error {
	if id == "" || userID <= 0 {
		return errors.New("invalid session")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO session(id, user_id, created_at) VALUES(?, ?, ?)
`, id, userID, nowUnix())
	return err
}

// GetSessionByID looks up a session by its identifier.
func (d *DB) GetSessionByID(ctx context.Context, id string) (*Session, bool, error) {
	var s Session
	err := d.sql.QueryRowContext(ctx, `
SELECT id, user_id, created_at FROM session WHERE id=?
`, id).Scan(&s.ID, &s.UserID, &s.CreatedAt)
	if err == nil {
		return &s, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// GetSessionByUserID looks up the session owned by a user.
func (d *DB) GetSessionByUserID(ctx context.Context, userID int64) (*Session, bool, error) {
	var s Session
	err := d.sql.QueryRowContext(ctx, `
SELECT id, user_id, created_at FROM session WHERE user_id=?
`, userID).Scan(&s.ID, &s.UserID, &s.CreatedAt)
	if err == nil {
		return &s, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// DeleteSession removes a session by its identifier.
func (d *DB) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("session id is required")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM session WHERE id=?`, id)
	return err
}

// Package user implements account creation and credential checks on
// top of the db layer.
package user

import (
	"context"

	"github.com/Nhor/static-files-manager/internal/auth"
	"github.com/Nhor/static-files-manager/internal/db"
	"github.com/Nhor/static-files-manager/internal/errcode"
)

// Service owns user rows.
type Service struct {
	db *db.DB
}

func NewService(d *db.DB) *Service {
	return &Service{db: d}
}

// Create hashes the plaintext password and inserts a new user.
func (s *Service) Create(ctx context.Context, username, password string) (int64, error) {
	hash, err := auth.HashPassword(password, auth.DefaultArgon2Params())
	if err != nil {
		return 0, err
	}
	return s.db.CreateUser(ctx, username, hash)
}

// Login resolves a username/password pair to the owning user id.
// An unknown username is USER_NOT_FOUND; a wrong password is
// INVALID_PASSWORD.
func (s *Service) Login(ctx context.Context, username, password string) (int64, error) {
	u, ok, err := s.db.GetUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errcode.New(errcode.UserNotFound, "user not found")
	}
	match, err := auth.VerifyPassword(password, u.PassHash)
	if err != nil {
		return 0, err
	}
	if !match {
		return 0, errcode.New(errcode.InvalidPassword, "invalid password")
	}
	return u.ID, nil
}

// GetByID fetches a user row.
func (s *Service) GetByID(ctx context.Context, id int64) (*db.User, error) {
	u, ok, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errcode.New(errcode.UserNotFound, "user not found")
	}
	return u, nil
}

// Remove deletes a user row; the schema cascades the session row.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.db.DeleteUser(ctx, id)
}

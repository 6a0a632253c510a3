// Package session manages the session rows that gate every protected
// operation. Identifiers are opaque bearer tokens of the form
// SID:<type>:<realm>:<32 hex chars>.
package session

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/Nhor/static-files-manager/internal/db"
	"github.com/Nhor/static-files-manager/internal/errcode"
)

// Config names the deployment the identifier is minted for.
type Config struct {
	Type  string
	Realm string
}

// Store owns session persistence. Lookup misses surface as
// SESSION_NOT_FOUND domain failures; storage errors pass through raw.
type Store struct {
	db *db.DB
}

func NewStore(d *db.DB) *Store {
	return &Store{db: d}
}

// Create mints a fresh identifier, persists the row, and returns it
// with the server-assigned creation time.
func (s *Store) Create(ctx context.Context, cfg Config, userID int64) (*db.Session, error) {
	id := newIdentifier(cfg)
	if err := s.db.CreateSession(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// GetOrCreate returns the user's existing session unchanged when one
// exists; repeated logins reuse the current session rather than
// invalidating it. Otherwise it creates one and re-fetches by user id.
func (s *Store) GetOrCreate(ctx context.Context, cfg Config, userID int64) (*db.Session, error) {
	row, ok, err := s.db.GetSessionByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ok {
		return row, nil
	}
	if _, err := s.Create(ctx, cfg, userID); err != nil {
		return nil, err
	}
	return s.GetByUserID(ctx, userID)
}

// GetByID resolves a session identifier.
func (s *Store) GetByID(ctx context.Context, id string) (*db.Session, error) {
	row, ok, err := s.db.GetSessionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errcode.New(errcode.SessionNotFound, "session not found")
	}
	return row, nil
}

// GetByUserID resolves the session owned by a user.
func (s *Store) GetByUserID(ctx context.Context, userID int64) (*db.Session, error) {
	row, ok, err := s.db.GetSessionByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errcode.New(errcode.SessionNotFound, "session not found")
	}
	return row, nil
}

// Remove deletes a session row. Callers resolve the id first so a
// stale identifier surfaces as SESSION_NOT_FOUND before removal.
func (s *Store) Remove(ctx context.Context, id string) error {
	return s.db.DeleteSession(ctx, id)
}

func newIdentifier(cfg Config) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.Join([]string{"SID", cfg.Type, cfg.Realm, random}, ":")
}

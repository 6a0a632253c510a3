// Package db defines persistence models for the file manager.
package db

// User is an account that can authenticate and manage files.
type User struct {
	ID         int64
	Username   string
	PassHash   string
	CreatedAt  int64
	ModifiedAt int64
}

// Session is a server-issued bearer credential bound to one user.
// At most one row exists per user at a time.
type Session struct {
	ID        string
	UserID    int64
	CreatedAt int64
}

// Package models defines the core data structures for users and notes.
package models

import "time"

// User represents an application user with credentials.
type User struct {
	// ID is the unique identifier for the user.
	ID int64
	// Username is the unique display name chosen by the user.
	Username string
	// Email is the unique address the user logs in with.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string
	// CreatedAt is the time the user signed up.
	CreatedAt time.Time
}

// Public returns the user without its password hash.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// PublicUser is the representation of a user that is safe to return to clients.
type PublicUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Note is a text note owned by exactly one user.
type Note struct {
	// ID is the unique identifier for the note.
	ID int64 `json:"id"`
	// UserID is the id of the owning user.
	UserID int64 `json:"user_id"`
	// Title is the non-empty note title.
	Title string `json:"title"`
	// Content is the optional note body. Nil means no content was given.
	Content *string `json:"content"`
	// CreatedAt is the time the note was created.
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the time of the last successful write.
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the caller identity carried by a verified token.
type Identity struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

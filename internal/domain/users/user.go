package users

import (
	"context"
	"errors"
	"time"

	"github.com/eventradar/server/internal/geo"
)

// Domain-specific errors for user operations.
var (
	// ErrUserNotFound is returned when a user lookup fails.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when registering with an email that
	// already exists. The uniqueness race is settled by the store's unique
	// constraint, not by a check-then-insert in this package.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both a missing account and a
	// password mismatch. The single message prevents account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is the stored identity record. PasswordHash never leaves this package.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Location     *geo.Point
	CreatedAt    time.Time
}

// PublicUser is the projection returned to callers. No hash, ever.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the caller-visible projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type InsertParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Location     *geo.Point
}

// Repository is the credential store contract. Writes are immediately
// visible to subsequent reads.
type Repository interface {
	// FindByEmail returns ErrUserNotFound when no user has the email.
	// Emails are compared exactly as stored; no case normalization.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Insert returns ErrDuplicateEmail when the email is already taken,
	// including when two inserts race on the unique constraint.
	Insert(ctx context.Context, params InsertParams) (*User, error)
}

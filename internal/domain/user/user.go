// Package user implements the simplified email/mobile identity lookup.
package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when no user matches a lookup.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned when the email or mobile is taken.
	ErrAlreadyExists = errors.New("user already exists")
)

const (
	minMobileLen = 7
	maxMobileLen = 15
)

// User is a registered customer.
type User struct {
	ID        string
	Name      string
	Email     string
	Mobile    string
	IsAdmin   bool
	IsActive  bool
	CreatedAt time.Time
}

// Validate checks the user fields.
func (u *User) Validate() error {
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return errors.Wrap(err, "email")
	}
	if n := len(u.Mobile); n < minMobileLen || n > maxMobileLen {
		return errors.Errorf("mobile: length must be between %d and %d, got %d", minMobileLen, maxMobileLen, n)
	}
	return nil
}

// InvalidError reports a user rejected by validation.
type InvalidError struct {
	Err error
}

func (e *InvalidError) Error() string {
	return "invalid user: " + e.Err.Error()
}

func (e *InvalidError) Unwrap() error { return e.Err }

// Repository persists users.
type Repository interface {
	// FindByEmail returns ErrNotFound when no user has email.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByMobile returns ErrNotFound when no user has mobile.
	FindByMobile(ctx context.Context, mobile string) (*User, error)
	// Create stores u; ErrAlreadyExists when the email or mobile is taken.
	Create(ctx context.Context, u *User) (string, error)
}

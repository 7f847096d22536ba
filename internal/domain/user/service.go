package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Service registers users and resolves logins. No credential is verified.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService returns a user Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Register creates a user unless the email or mobile is already registered.
func (s *Service) Register(ctx context.Context, name, email, mobile string) (string, error) {
	u := &User{
		Name:      name,
		Email:     email,
		Mobile:    mobile,
		IsActive:  true,
		CreatedAt: s.now().UTC(),
	}
	if err := u.Validate(); err != nil {
		return "", &InvalidError{Err: err}
	}

	if _, err := s.Login(ctx, email, mobile); err == nil {
		return "", ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return "", errors.Wrap(err, "create user")
	}
	return id, nil
}

// Login returns the user registered with email or, failing that, mobile.
func (s *Service) Login(ctx context.Context, email, mobile string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find user by email")
	}

	u, err = s.repo.FindByMobile(ctx, mobile)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "find user by mobile")
	}
	return nil, ErrNotFound
}

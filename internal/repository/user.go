package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/user"
)

type userRecord struct {
	ID        string    `bson:"_id,omitempty"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Mobile    string    `bson:"mobile"`
	IsAdmin   bool      `bson:"is_admin"`
	IsActive  bool      `bson:"is_active"`
	CreatedAt time.Time `bson:"created_at"`
}

func (r *userRecord) toDomain() (*user.User, error) {
	u := &user.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Mobile:    r.Mobile,
		IsAdmin:   r.IsAdmin,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if err := u.Validate(); err != nil {
		return nil, malformed(Users, r.ID, err)
	}
	return u, nil
}

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository on a document store.
type UserRepository struct {
	store docstore.Store
}

// NewUserRepository returns a UserRepository that uses the given store.
func NewUserRepository(store docstore.Store) *UserRepository {
	return &UserRepository{store: store}
}

// FindByEmail returns the user registered with email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByMobile returns the user registered with mobile.
func (r *UserRepository) FindByMobile(ctx context.Context, mobile string) (*user.User, error) {
	return r.findOne(ctx, "mobile", mobile)
}

// Create stores u. The unique email and mobile indexes report a taken
// identity as user.ErrAlreadyExists.
func (r *UserRepository) Create(ctx context.Context, u *user.User) (string, error) {
	id, err := r.store.Create(ctx, Users, userRecord{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Mobile:    u.Mobile,
		IsAdmin:   u.IsAdmin,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	})
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return "", user.ErrAlreadyExists
	}
	if err != nil {
		return "", errors.Wrap(err, "create user")
	}
	u.ID = id
	return id, nil
}

func (r *UserRepository) findOne(ctx context.Context, field, value string) (*user.User, error) {
	var rec userRecord
	err := r.store.FindOne(ctx, Users, docstore.Filter{field: value}, &rec)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find user by %s", field)
	}
	return rec.toDomain()
}

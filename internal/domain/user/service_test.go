package user

import (
	"context"
	"strconv"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	users   []User
	findErr error
}

func (m *mockRepo) find(match func(User) bool) (*User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if match(u) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	return m.find(func(u User) bool { return u.Email == email })
}

func (m *mockRepo) FindByMobile(_ context.Context, mobile string) (*User, error) {
	return m.find(func(u User) bool { return u.Mobile == mobile })
}

func (m *mockRepo) Create(_ context.Context, u *User) (string, error) {
	u.ID = "u" + strconv.Itoa(len(m.users)+1)
	m.users = append(m.users, *u)
	return u.ID, nil
}

func TestRegister(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	id, err := svc.Register(context.Background(), "Asha", "asha@example.com", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "u1", id)
	require.Len(t, repo.users, 1)
	assert.True(t, repo.users[0].IsActive)
	assert.False(t, repo.users[0].IsAdmin)
}

func TestRegister_Duplicate(t *testing.T) {
	repo := &mockRepo{users: []User{{ID: "u1", Email: "asha@example.com", Mobile: "9876543210"}}}
	svc := NewService(repo)

	tests := []struct {
		name   string
		email  string
		mobile string
	}{
		{name: "same email", email: "asha@example.com", mobile: "1112223334"},
		{name: "same mobile", email: "other@example.com", mobile: "9876543210"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), "", tt.email, tt.mobile)
			require.ErrorIs(t, err, ErrAlreadyExists)
		})
	}
	assert.Len(t, repo.users, 1)
}

func TestRegister_Invalid(t *testing.T) {
	svc := NewService(&mockRepo{})

	tests := []struct {
		name   string
		email  string
		mobile string
	}{
		{name: "bad email", email: "not-an-email", mobile: "9876543210"},
		{name: "short mobile", email: "a@example.com", mobile: "123"},
		{name: "long mobile", email: "a@example.com", mobile: "1234567890123456"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), "", tt.email, tt.mobile)
			var invalid *InvalidError
			require.ErrorAs(t, err, &invalid)
		})
	}
}

func TestLogin(t *testing.T) {
	repo := &mockRepo{users: []User{{ID: "u1", Name: "Asha", Email: "asha@example.com", Mobile: "9876543210"}}}
	svc := NewService(repo)
	ctx := context.Background()

	u, err := svc.Login(ctx, "asha@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u, err = svc.Login(ctx, "unknown@example.com", "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Asha", u.Name)

	_, err = svc.Login(ctx, "unknown@example.com", "0000000")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLogin_StoreFailure(t *testing.T) {
	svc := NewService(&mockRepo{findErr: errors.New("boom")})

	_, err := svc.Login(context.Background(), "a@example.com", "9876543210")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

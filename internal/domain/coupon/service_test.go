package coupon

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	created  *Coupon
	upserted *Coupon
	err      error
}

func (m *mockRepo) FindActive(context.Context, string) (*Coupon, error) { return nil, ErrNotFound }

func (m *mockRepo) Create(_ context.Context, c *Coupon) (string, error) {
	m.created = c
	return "c1", m.err
}

func (m *mockRepo) Upsert(_ context.Context, c *Coupon) error {
	m.upserted = c
	return m.err
}

func TestService_Create(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)

	id, err := svc.Create(context.Background(), &Coupon{Code: "SAVE10", DiscountType: DiscountPercent, Value: d("10"), Active: true})
	require.NoError(t, err)
	assert.Equal(t, "c1", id)
	assert.Equal(t, "SAVE10", repo.created.Code)
}

func TestService_CreateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		coupon Coupon
	}{
		{name: "missing code", coupon: Coupon{DiscountType: DiscountFlat, Value: d("5")}},
		{name: "unknown type", coupon: Coupon{Code: "X", DiscountType: "bogo"}},
		{name: "negative value", coupon: Coupon{Code: "X", DiscountType: DiscountFlat, Value: d("-1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRepo{}
			_, err := NewService(repo).Create(context.Background(), &tt.coupon)

			var invalid *InvalidError
			require.ErrorAs(t, err, &invalid)
			assert.Nil(t, repo.created)
		})
	}
}

func TestService_UpsertPropagatesRepoError(t *testing.T) {
	repo := &mockRepo{err: ErrAlreadyExists}
	err := NewService(repo).Upsert(context.Background(), &Coupon{Code: "X", DiscountType: DiscountFlat, Value: d("5")})
	require.ErrorIs(t, err, ErrAlreadyExists)
}

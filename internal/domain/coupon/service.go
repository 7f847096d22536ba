package coupon

import "context"

// Service validates coupons before they reach the repository.
type Service struct {
	repo Repository
}

// NewService returns a coupon Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new coupon.
func (s *Service) Create(ctx context.Context, c *Coupon) (string, error) {
	if err := c.Validate(); err != nil {
		return "", &InvalidError{Code: c.Code, Err: err}
	}
	return s.repo.Create(ctx, c)
}

// Upsert validates and stores c, replacing any coupon with the same code.
func (s *Service) Upsert(ctx context.Context, c *Coupon) error {
	if err := c.Validate(); err != nil {
		return &InvalidError{Code: c.Code, Err: err}
	}
	return s.repo.Upsert(ctx, c)
}

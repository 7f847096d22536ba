package catalog

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
)

// Service serves storefront listings and admin creation.
type Service struct {
	repo Repository
}

// NewService returns a catalog Service backed by repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetProduct returns a single product.
func (s *Service) GetProduct(ctx context.Context, id string) (*Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts returns products in category (all when empty) whose title or
// description contains q, ignoring case (all when q is empty).
func (s *Service) ListProducts(ctx context.Context, category CategoryName, q string) ([]Product, error) {
	products, err := s.repo.ListProducts(ctx, category)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	if q == "" {
		return products, nil
	}

	needle := strings.ToLower(q)
	matched := products[:0]
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Title), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// ListBanners returns active banners.
func (s *Service) ListBanners(ctx context.Context) ([]Banner, error) {
	return s.repo.ListBanners(ctx)
}

// ListOffers returns active offers.
func (s *Service) ListOffers(ctx context.Context) ([]Offer, error) {
	return s.repo.ListOffers(ctx)
}

// ListAreas returns active delivery areas.
func (s *Service) ListAreas(ctx context.Context) ([]DeliveryArea, error) {
	return s.repo.ListAreas(ctx)
}

// CreateCategory validates and stores a category.
func (s *Service) CreateCategory(ctx context.Context, c *Category) (string, error) {
	if err := c.Validate(); err != nil {
		return "", &InvalidError{Entity: "category", Err: err}
	}
	return s.repo.CreateCategory(ctx, c)
}

// CreateProduct validates and stores a product.
func (s *Service) CreateProduct(ctx context.Context, p *Product) (string, error) {
	if p.Unit == "" {
		p.Unit = UnitKG
	}
	if err := p.Validate(); err != nil {
		return "", &InvalidError{Entity: "product", Err: err}
	}
	return s.repo.CreateProduct(ctx, p)
}

// CreateBanner validates and stores a banner.
func (s *Service) CreateBanner(ctx context.Context, b *Banner) (string, error) {
	if b.AspectRatio == "" {
		b.AspectRatio = DefaultAspectRatio
	}
	if err := b.Validate(); err != nil {
		return "", &InvalidError{Entity: "banner", Err: err}
	}
	return s.repo.CreateBanner(ctx, b)
}

// CreateOffer validates and stores an offer.
func (s *Service) CreateOffer(ctx context.Context, o *Offer) (string, error) {
	if err := o.Validate(); err != nil {
		return "", &InvalidError{Entity: "offer", Err: err}
	}
	return s.repo.CreateOffer(ctx, o)
}

// CreateArea validates and stores a delivery area.
func (s *Service) CreateArea(ctx context.Context, a *DeliveryArea) (string, error) {
	if err := a.Validate(); err != nil {
		return "", &InvalidError{Entity: "delivery area", Err: err}
	}
	return s.repo.CreateArea(ctx, a)
}

// InvalidError reports an entity rejected by validation.
type InvalidError struct {
	Entity string
	Err    error
}

func (e *InvalidError) Error() string {
	return "invalid " + e.Entity + ": " + e.Err.Error()
}

func (e *InvalidError) Unwrap() error { return e.Err }

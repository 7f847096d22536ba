// Package catalog holds the storefront entities: categories, products,
// banners, offers and delivery areas.
package catalog

import (
	"context"
	"slices"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrProductNotFound is returned when a product ID does not resolve.
	ErrProductNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when an entity collides with a unique key
	// (ID, category slug, area pincode).
	ErrAlreadyExists = errors.New("catalog entry already exists")
)

// CategoryName enumerates the product categories the store sells.
type CategoryName string

const (
	CategoryChicken CategoryName = "Chicken"
	CategoryMutton  CategoryName = "Mutton"
	CategoryFish    CategoryName = "Fish"
	CategoryEggs    CategoryName = "Eggs"
)

// Valid reports whether c is a known category.
func (c CategoryName) Valid() bool {
	return slices.Contains([]CategoryName{CategoryChicken, CategoryMutton, CategoryFish, CategoryEggs}, c)
}

// Unit is the selling unit of a product.
type Unit string

const (
	UnitKG    Unit = "kg"
	UnitGram  Unit = "g"
	UnitPiece Unit = "piece"
	UnitDozen Unit = "dozen"
)

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return slices.Contains([]Unit{UnitKG, UnitGram, UnitPiece, UnitDozen}, u)
}

// Category groups products on the storefront.
type Category struct {
	ID          string
	Name        CategoryName
	Slug        string
	Description string
	ImageURL    string
	Active      bool
}

// Validate checks the category fields.
func (c *Category) Validate() error {
	if !c.Name.Valid() {
		return errors.Errorf("name: unknown category %q", c.Name)
	}
	if c.Slug == "" {
		return errors.New("slug: required")
	}
	return nil
}

// Product is a sellable catalog item.
type Product struct {
	ID          string
	Title       string
	SKU         string
	Description string
	Price       decimal.Decimal
	MRP         decimal.NullDecimal
	Unit        Unit
	Weight      *float64
	Category    CategoryName
	ImageURL    string
	InStock     bool
	Tags        []string
}

// Validate checks the product fields.
func (p *Product) Validate() error {
	switch {
	case p.Title == "":
		return errors.New("title: required")
	case p.Price.IsNegative():
		return errors.New("price: must be greater than or equal to 0")
	case p.MRP.Valid && p.MRP.Decimal.IsNegative():
		return errors.New("mrp: must be greater than or equal to 0")
	case !p.Unit.Valid():
		return errors.Errorf("unit: unknown unit %q", p.Unit)
	case !p.Category.Valid():
		return errors.Errorf("category: unknown category %q", p.Category)
	case p.ImageURL == "":
		return errors.New("image_url: required")
	}
	return nil
}

// Banner is a promotional image on the home screen.
type Banner struct {
	ID          string
	Title       string
	Subtitle    string
	ImageURL    string
	AspectRatio string
	Active      bool
}

// DefaultAspectRatio is used when a banner does not specify one.
const DefaultAspectRatio = "16:9"

// Validate checks the banner fields.
func (b *Banner) Validate() error {
	if b.ImageURL == "" {
		return errors.New("image_url: required")
	}
	return nil
}

// Offer is a textual promotion.
type Offer struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	Active      bool
}

// Validate checks the offer fields.
func (o *Offer) Validate() error {
	if o.Title == "" {
		return errors.New("title: required")
	}
	return nil
}

// DeliveryArea is a serviceable pincode.
type DeliveryArea struct {
	ID      string
	Name    string
	Pincode string
	City    string
	Active  bool
}

// Validate checks the area fields.
func (a *DeliveryArea) Validate() error {
	switch {
	case a.Name == "":
		return errors.New("name: required")
	case a.Pincode == "":
		return errors.New("pincode: required")
	}
	return nil
}

// ProductFinder resolves a single product.
type ProductFinder interface {
	// GetProduct returns ErrProductNotFound when id does not resolve.
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Repository is the catalog persistence contract.
type Repository interface {
	ProductFinder
	ListProducts(ctx context.Context, category CategoryName) ([]Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListBanners(ctx context.Context) ([]Banner, error)
	ListOffers(ctx context.Context) ([]Offer, error)
	ListAreas(ctx context.Context) ([]DeliveryArea, error)

	CreateCategory(ctx context.Context, c *Category) (string, error)
	CreateProduct(ctx context.Context, p *Product) (string, error)
	CreateBanner(ctx context.Context, b *Banner) (string, error)
	CreateOffer(ctx context.Context, o *Offer) (string, error)
	CreateArea(ctx context.Context, a *DeliveryArea) (string, error)
}

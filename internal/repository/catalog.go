package repository

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
)

type categoryRecord struct {
	ID          string  `bson:"_id,omitempty"`
	Name        string  `bson:"name"`
	Slug        string  `bson:"slug"`
	Description *string `bson:"description"`
	ImageURL    *string `bson:"image_url"`
	Active      bool    `bson:"active"`
}

func (r *categoryRecord) toDomain() (catalog.Category, error) {
	c := catalog.Category{
		ID:          r.ID,
		Name:        catalog.CategoryName(r.Name),
		Slug:        r.Slug,
		Description: deref(r.Description),
		ImageURL:    deref(r.ImageURL),
		Active:      r.Active,
	}
	if err := c.Validate(); err != nil {
		return c, malformed(Categories, r.ID, err)
	}
	return c, nil
}

type productRecord struct {
	ID          string   `bson:"_id,omitempty"`
	Title       string   `bson:"title"`
	SKU         *string  `bson:"sku"`
	Description *string  `bson:"description"`
	Price       float64  `bson:"price"`
	MRP         *float64 `bson:"mrp"`
	Unit        string   `bson:"unit"`
	Weight      *float64 `bson:"weight"`
	Category    string   `bson:"category"`
	ImageURL    string   `bson:"image_url"`
	InStock     bool     `bson:"in_stock"`
	Tags        []string `bson:"tags"`
}

func (r *productRecord) toDomain() (catalog.Product, error) {
	p := catalog.Product{
		ID:          r.ID,
		Title:       r.Title,
		SKU:         deref(r.SKU),
		Description: deref(r.Description),
		Price:       fromFloat(r.Price),
		MRP:         fromNullFloat(r.MRP),
		Unit:        catalog.Unit(r.Unit),
		Weight:      r.Weight,
		Category:    catalog.CategoryName(r.Category),
		ImageURL:    r.ImageURL,
		InStock:     r.InStock,
		Tags:        r.Tags,
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	if err := p.Validate(); err != nil {
		return p, malformed(Products, r.ID, err)
	}
	return p, nil
}

type bannerRecord struct {
	ID          string  `bson:"_id,omitempty"`
	Title       *string `bson:"title"`
	Subtitle    *string `bson:"subtitle"`
	ImageURL    string  `bson:"image_url"`
	AspectRatio string  `bson:"aspect_ratio"`
	Active      bool    `bson:"active"`
}

func (r *bannerRecord) toDomain() (catalog.Banner, error) {
	b := catalog.Banner{
		ID:          r.ID,
		Title:       deref(r.Title),
		Subtitle:    deref(r.Subtitle),
		ImageURL:    r.ImageURL,
		AspectRatio: r.AspectRatio,
		Active:      r.Active,
	}
	if err := b.Validate(); err != nil {
		return b, malformed(Banners, r.ID, err)
	}
	return b, nil
}

type offerRecord struct {
	ID          string  `bson:"_id,omitempty"`
	Title       string  `bson:"title"`
	Description *string `bson:"description"`
	ImageURL    *string `bson:"image_url"`
	Active      bool    `bson:"active"`
}

func (r *offerRecord) toDomain() (catalog.Offer, error) {
	o := catalog.Offer{
		ID:          r.ID,
		Title:       r.Title,
		Description: deref(r.Description),
		ImageURL:    deref(r.ImageURL),
		Active:      r.Active,
	}
	if err := o.Validate(); err != nil {
		return o, malformed(Offers, r.ID, err)
	}
	return o, nil
}

type areaRecord struct {
	ID      string  `bson:"_id,omitempty"`
	Name    string  `bson:"name"`
	Pincode string  `bson:"pincode"`
	City    *string `bson:"city"`
	Active  bool    `bson:"active"`
}

func (r *areaRecord) toDomain() (catalog.DeliveryArea, error) {
	a := catalog.DeliveryArea{
		ID:      r.ID,
		Name:    r.Name,
		Pincode: r.Pincode,
		City:    deref(r.City),
		Active:  r.Active,
	}
	if err := a.Validate(); err != nil {
		return a, malformed(DeliveryAreas, r.ID, err)
	}
	return a, nil
}

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository on a document store.
type CatalogRepository struct {
	store docstore.Store
}

// NewCatalogRepository returns a CatalogRepository that uses the given store.
func NewCatalogRepository(store docstore.Store) *CatalogRepository {
	return &CatalogRepository{store: store}
}

// GetProduct returns a single product by its identifier.
func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var rec productRecord
	err := r.store.FindOne(ctx, Products, docstore.Filter{docstore.IDField: id}, &rec)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, catalog.ErrProductNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	p, err := rec.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns the products of category, or all products when it is
// empty.
func (r *CatalogRepository) ListProducts(ctx context.Context, category catalog.CategoryName) ([]catalog.Product, error) {
	var filter docstore.Filter
	if category != "" {
		filter = docstore.Filter{"category": string(category)}
	}
	return list(ctx, r.store, Products, filter, (*productRecord).toDomain)
}

// ListCategories returns all categories.
func (r *CatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	return list(ctx, r.store, Categories, nil, (*categoryRecord).toDomain)
}

// ListBanners returns active banners.
func (r *CatalogRepository) ListBanners(ctx context.Context) ([]catalog.Banner, error) {
	return list(ctx, r.store, Banners, activeOnly, (*bannerRecord).toDomain)
}

// ListOffers returns active offers.
func (r *CatalogRepository) ListOffers(ctx context.Context) ([]catalog.Offer, error) {
	return list(ctx, r.store, Offers, activeOnly, (*offerRecord).toDomain)
}

// ListAreas returns active delivery areas.
func (r *CatalogRepository) ListAreas(ctx context.Context) ([]catalog.DeliveryArea, error) {
	return list(ctx, r.store, DeliveryAreas, activeOnly, (*areaRecord).toDomain)
}

// CreateCategory stores c. A preset ID is kept.
func (r *CatalogRepository) CreateCategory(ctx context.Context, c *catalog.Category) (string, error) {
	return r.create(ctx, Categories, categoryRecord{
		ID:          c.ID,
		Name:        string(c.Name),
		Slug:        c.Slug,
		Description: optional(c.Description),
		ImageURL:    optional(c.ImageURL),
		Active:      c.Active,
	})
}

// CreateProduct stores p. A preset ID is kept.
func (r *CatalogRepository) CreateProduct(ctx context.Context, p *catalog.Product) (string, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return r.create(ctx, Products, productRecord{
		ID:          p.ID,
		Title:       p.Title,
		SKU:         optional(p.SKU),
		Description: optional(p.Description),
		Price:       toFloat(p.Price),
		MRP:         toNullFloat(p.MRP),
		Unit:        string(p.Unit),
		Weight:      p.Weight,
		Category:    string(p.Category),
		ImageURL:    p.ImageURL,
		InStock:     p.InStock,
		Tags:        tags,
	})
}

// CreateBanner stores b. A preset ID is kept.
func (r *CatalogRepository) CreateBanner(ctx context.Context, b *catalog.Banner) (string, error) {
	return r.create(ctx, Banners, bannerRecord{
		ID:          b.ID,
		Title:       optional(b.Title),
		Subtitle:    optional(b.Subtitle),
		ImageURL:    b.ImageURL,
		AspectRatio: b.AspectRatio,
		Active:      b.Active,
	})
}

// CreateOffer stores o. A preset ID is kept.
func (r *CatalogRepository) CreateOffer(ctx context.Context, o *catalog.Offer) (string, error) {
	return r.create(ctx, Offers, offerRecord{
		ID:          o.ID,
		Title:       o.Title,
		Description: optional(o.Description),
		ImageURL:    optional(o.ImageURL),
		Active:      o.Active,
	})
}

// CreateArea stores a. A preset ID is kept.
func (r *CatalogRepository) CreateArea(ctx context.Context, a *catalog.DeliveryArea) (string, error) {
	return r.create(ctx, DeliveryAreas, areaRecord{
		ID:      a.ID,
		Name:    a.Name,
		Pincode: a.Pincode,
		City:    optional(a.City),
		Active:  a.Active,
	})
}

func (r *CatalogRepository) create(ctx context.Context, collection string, rec any) (string, error) {
	id, err := r.store.Create(ctx, collection, rec)
	if errors.Is(err, docstore.ErrDuplicateKey) {
		return "", catalog.ErrAlreadyExists
	}
	if err != nil {
		return "", errors.Wrapf(err, "create %s", collection)
	}
	return id, nil
}

var activeOnly = docstore.Filter{"active": true}

// list loads every record of a collection matching filter, in insertion
// order, and converts it with toDomain.
func list[R any, T any](
	ctx context.Context,
	store docstore.Store,
	collection string,
	filter docstore.Filter,
	toDomain func(*R) (T, error),
) ([]T, error) {
	var recs []R
	if err := store.FindMany(ctx, collection, filter, docstore.Sort{}, &recs); err != nil {
		return nil, errors.Wrapf(err, "list %s", collection)
	}
	out := make([]T, 0, len(recs))
	for i := range recs {
		v, err := toDomain(&recs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

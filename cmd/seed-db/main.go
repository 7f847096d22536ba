package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/herbal-kart/internal/app"
	"github.com/xenking/herbal-kart/internal/docstore"
	"github.com/xenking/herbal-kart/internal/domain/catalog"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/repository"
)

type seedFile struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
	Coupons    []couponJSON   `json:"coupons"`
	Areas      []areaJSON     `json:"areas"`
	Banners    []bannerJSON   `json:"banners"`
	Offers     []offerJSON    `json:"offers"`
}

type categoryJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type productJSON struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	SKU         string              `json:"sku"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	MRP         decimal.NullDecimal `json:"mrp"`
	Unit        string              `json:"unit"`
	Weight      *float64            `json:"weight"`
	Category    string              `json:"category"`
	ImageURL    string              `json:"image_url"`
	InStock     *bool               `json:"in_stock"`
	Tags        []string            `json:"tags"`
}

type couponJSON struct {
	Code         string              `json:"code"`
	DiscountType string              `json:"discount_type"`
	Value        decimal.Decimal     `json:"value"`
	MinAmount    decimal.Decimal     `json:"min_amount"`
	MaxDiscount  decimal.NullDecimal `json:"max_discount"`
}

type areaJSON struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Pincode string `json:"pincode"`
	City    string `json:"city"`
}

type bannerJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle"`
	ImageURL    string `json:"image_url"`
	AspectRatio string `json:"aspect_ratio"`
}

type offerJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func main() {
	var (
		store    app.StoreConfig
		seedPath string
	)

	store.BindFlags(flag.CommandLine)
	flag.StringVar(&seedPath, "seed-file", "db/seed/catalog.json", "path to the catalog seed JSON file")
	flag.Parse()

	if err := store.ApplyEnv(); err != nil {
		slog.Error("invalid store configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, store, seedPath); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, cfg app.StoreConfig, seedPath string) error {
	slog.Info("connecting to store", slog.String("driver", cfg.Driver))

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = closeStore(context.Background()) }()

	seed, err := readSeed(seedPath)
	if err != nil {
		return err
	}
	return apply(ctx, store, seed)
}

func readSeed(path string) (*seedFile, error) {
	slog.Info("reading seed file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read seed file")
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrap(err, "parse seed JSON")
	}
	return &seed, nil
}

// apply creates indexes and writes seed into store. Catalog entries that
// already exist are left untouched; coupons are upserted.
func apply(ctx context.Context, store docstore.Store, seed *seedFile) error {
	slog.Info("ensuring indexes")
	if err := repository.EnsureIndexes(ctx, store); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	catalogSvc := catalog.NewService(repository.NewCatalogRepository(store))
	couponSvc := coupon.NewService(repository.NewCouponRepository(store))

	for _, c := range seed.Categories {
		_, err := catalogSvc.CreateCategory(ctx, &catalog.Category{
			ID:          c.ID,
			Name:        catalog.CategoryName(c.Name),
			Slug:        c.Slug,
			Description: c.Description,
			ImageURL:    c.ImageURL,
			Active:      true,
		})
		if err := created("category", c.ID, err); err != nil {
			return err
		}
	}

	for _, p := range seed.Products {
		inStock := true
		if p.InStock != nil {
			inStock = *p.InStock
		}
		_, err := catalogSvc.CreateProduct(ctx, &catalog.Product{
			ID:          p.ID,
			Title:       p.Title,
			SKU:         p.SKU,
			Description: p.Description,
			Price:       p.Price,
			MRP:         p.MRP,
			Unit:        catalog.Unit(p.Unit),
			Weight:      p.Weight,
			Category:    catalog.CategoryName(p.Category),
			ImageURL:    p.ImageURL,
			InStock:     inStock,
			Tags:        p.Tags,
		})
		if err := created("product", p.ID, err); err != nil {
			return err
		}
	}

	for _, a := range seed.Areas {
		_, err := catalogSvc.CreateArea(ctx, &catalog.DeliveryArea{
			ID:      a.ID,
			Name:    a.Name,
			Pincode: a.Pincode,
			City:    a.City,
			Active:  true,
		})
		if err := created("delivery area", a.ID, err); err != nil {
			return err
		}
	}

	for _, b := range seed.Banners {
		_, err := catalogSvc.CreateBanner(ctx, &catalog.Banner{
			ID:          b.ID,
			Title:       b.Title,
			Subtitle:    b.Subtitle,
			ImageURL:    b.ImageURL,
			AspectRatio: b.AspectRatio,
			Active:      true,
		})
		if err := created("banner", b.ID, err); err != nil {
			return err
		}
	}

	for _, o := range seed.Offers {
		_, err := catalogSvc.CreateOffer(ctx, &catalog.Offer{
			ID:          o.ID,
			Title:       o.Title,
			Description: o.Description,
			ImageURL:    o.ImageURL,
			Active:      true,
		})
		if err := created("offer", o.ID, err); err != nil {
			return err
		}
	}

	for _, c := range seed.Coupons {
		if err := couponSvc.Upsert(ctx, &coupon.Coupon{
			Code:         c.Code,
			DiscountType: coupon.DiscountType(c.DiscountType),
			Value:        c.Value,
			MinAmount:    c.MinAmount,
			MaxDiscount:  c.MaxDiscount,
			Active:       true,
		}); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.Code)
		}
		slog.Info("upserted coupon", slog.String("code", c.Code))
	}

	return nil
}

// created logs the outcome of a create call, treating an existing entry as
// success.
func created(kind, id string, err error) error {
	switch {
	case errors.Is(err, catalog.ErrAlreadyExists):
		slog.Info("already exists, skipping", slog.String("kind", kind), slog.String("id", id))
		return nil
	case err != nil:
		return errors.Wrapf(err, "create %s %s", kind, id)
	}
	slog.Info("created", slog.String("kind", kind), slog.String("id", id))
	return nil
}

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/herbal-kart/internal/app"
	"github.com/xenking/herbal-kart/internal/domain/coupon"
	"github.com/xenking/herbal-kart/internal/repository"
)

func main() {
	var (
		store   app.StoreConfig
		dataDir string
	)

	store.BindFlags(flag.CommandLine)
	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz coupon files, used when no files are given")
	flag.Parse()

	if err := store.ApplyEnv(); err != nil {
		slog.Error("invalid store configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, store, dataDir, flag.Args()); err != nil {
		slog.Error("coupon ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon ingest completed successfully")
}

func run(ctx context.Context, cfg app.StoreConfig, dataDir string, files []string) error {
	if len(files) == 0 {
		matches, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
		if err != nil {
			return errors.Wrap(err, "list coupon files")
		}
		files = matches
	}
	if len(files) == 0 {
		slog.Info("no coupon files to ingest", slog.String("data_dir", dataDir))
		return nil
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("connecting to store", slog.String("driver", cfg.Driver))

	store, closeStore, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "open store")
	}
	defer func() { _ = closeStore(context.Background()) }()

	if err := repository.EnsureIndexes(ctx, store); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	ing := newIngester(coupon.NewService(repository.NewCouponRepository(store)))
	stats, err := ing.ingest(ctx, files)
	if err != nil {
		return err
	}

	slog.Info("coupons ingested",
		slog.Int64("written", stats.written.Load()),
		slog.Int64("duplicates", stats.duplicates.Load()),
		slog.Int64("invalid", stats.invalid.Load()),
	)
	return nil
}
